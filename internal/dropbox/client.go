package dropbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/imroc/req/v3"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/version"
)

const (
	listFolderPath         = "/2/files/list_folder"
	listFolderContinuePath = "/2/files/list_folder/continue"
	downloadPath           = "/2/files/download"

	headerAPIArg = "Dropbox-API-Arg"
)

// Client talks to the Dropbox HTTP API v2.
type Client struct {
	api     *req.Client
	content *req.Client
	config  *Config
}

func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	api := newHTTPClient(config, config.APIURL).
		SetTimeout(config.Timeout)

	// a download body is bounded by the caller's ctx only
	content := newHTTPClient(config, config.ContentURL)
	content.GetTransport().SetResponseHeaderTimeout(config.Timeout)

	return &Client{
		api:     api,
		content: content,
		config:  config,
	}, nil
}

func newHTTPClient(config *Config, baseURL string) *req.Client {
	return req.C().
		SetBaseURL(baseURL).
		SetUserAgent(version.UserAgent()).
		SetCommonBearerAuthToken(config.Token).
		SetCommonErrorResult(&APIError{}).
		SetCommonRetryCount(config.MaxRetries).
		SetCommonRetryBackoffInterval(time.Second, 10*time.Second).
		SetCommonRetryCondition(shouldRetry).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
}

func shouldRetry(resp *req.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

// ListFolder returns the first page of a folder listing. arg is not modified.
func (c *Client) ListFolder(ctx context.Context, arg *ListFolderArg) (*ListFolderResult, error) {
	body := *arg
	body.Path = ToDropboxPath(body.Path)
	if body.Limit <= 0 {
		body.Limit = c.config.PageLimit
	}

	var result ListFolderResult
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(&body).
		SetSuccessResult(&result).
		Post(listFolderPath)
	if err := handleAPIError(resp, err, "list folder"); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListFolderContinue returns the page after cursor.
func (c *Client) ListFolderContinue(ctx context.Context, cursor string) (*ListFolderResult, error) {
	var result ListFolderResult
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(&ListFolderContinueArg{Cursor: cursor}).
		SetSuccessResult(&result).
		Post(listFolderContinuePath)
	if err := handleAPIError(resp, err, "list folder continue"); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListAll follows the cursor until the listing is exhausted.
func (c *Client) ListAll(ctx context.Context, arg *ListFolderArg) ([]*Entry, error) {
	res, err := c.ListFolder(ctx, arg)
	if err != nil {
		return nil, err
	}
	entries := res.Entries
	for res.HasMore {
		if res, err = c.ListFolderContinue(ctx, res.Cursor); err != nil {
			return nil, err
		}
		entries = append(entries, res.Entries...)
	}
	return entries, nil
}

// ListPage reads one page of the recursive listing of the whole account.
// An empty token starts a new listing; the returned token is empty on the
// last page.
func (c *Client) ListPage(ctx context.Context, token string) (*mirror.SourcePage, error) {
	var (
		res *ListFolderResult
		err error
	)
	if token == "" {
		res, err = c.ListFolder(ctx, &ListFolderArg{Path: "", Recursive: true})
	} else {
		res, err = c.ListFolderContinue(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	page := &mirror.SourcePage{Entries: make([]mirror.SourceEntry, 0, len(res.Entries))}
	for _, e := range res.Entries {
		switch e.Tag {
		case TagFile:
			page.Entries = append(page.Entries, mirror.SourceEntry{
				Kind:       mirror.KindFile,
				Path:       e.PathDisplay,
				ModifiedAt: e.ServerModified,
			})
		case TagFolder:
			page.Entries = append(page.Entries, mirror.SourceEntry{Kind: mirror.KindFolder, Path: e.PathDisplay})
		}
	}
	if res.HasMore {
		page.NextToken = res.Cursor
	}

	slog.Debug("dropbox list page", "entries", len(res.Entries), "hasMore", res.HasMore)
	return page, nil
}

// Download streams the content of a file. The caller closes the body.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	arg, err := headerArg(&downloadArg{Path: ToDropboxPath(path)})
	if err != nil {
		return nil, fmt.Errorf("dropbox download: %w", err)
	}

	resp, err := c.content.R().
		SetContext(ctx).
		SetHeader(headerAPIArg, arg).
		DisableAutoReadResponse().
		Post(downloadPath)
	if err != nil {
		return nil, fmt.Errorf("dropbox download %q: %w", path, err)
	}

	if resp.IsErrorState() {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed APIError
		if jsonUnmarshal(body, &parsed) == nil && parsed.Summary != "" {
			apiErr.Summary = parsed.Summary
		} else {
			apiErr.Summary = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("dropbox download %q: %w", path, apiErr)
	}

	return resp.Body, nil
}

// headerArg encodes v for the Dropbox-API-Arg header. Header values must be
// ASCII, so every other code point is written as a \u escape.
func headerArg(v any) (string, error) {
	raw, err := jsonMarshal(v)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, r := range string(raw) {
		if r < 0x7f {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String(), nil
}

var _ mirror.SourceListing = (*Client)(nil)

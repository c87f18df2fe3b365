package dropbox

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunvalleybronze/dropmirror/internal/utils"
)

const (
	DefaultAPIURL     = "https://api.dropboxapi.com"
	DefaultContentURL = "https://content.dropboxapi.com"
	DefaultPageLimit  = 1000
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 3 // applied by the config loader; zero disables retries
)

var ErrNoToken = errors.New("dropbox: access token missing")

type Config struct {
	Token      string        `mapstructure:"token"`
	APIURL     string        `mapstructure:"api_url"`
	ContentURL string        `mapstructure:"content_url"`
	PageLimit  int           `mapstructure:"page_limit"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// WithDefaults fills unset fields.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.APIURL == "" {
		out.APIURL = DefaultAPIURL
	}
	if out.ContentURL == "" {
		out.ContentURL = DefaultContentURL
	}
	if out.PageLimit <= 0 {
		out.PageLimit = DefaultPageLimit
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrNoToken
	}
	if c.APIURL != "" && !utils.IsValidURL(c.APIURL) {
		return fmt.Errorf("dropbox: invalid api url %q", c.APIURL)
	}
	if c.ContentURL != "" && !utils.IsValidURL(c.ContentURL) {
		return fmt.Errorf("dropbox: invalid content url %q", c.ContentURL)
	}
	if c.PageLimit < 0 || c.PageLimit > 2000 {
		return fmt.Errorf("dropbox: page limit must be between 1 and 2000")
	}
	return nil
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token", utils.MaskSecret(c.Token)),
		slog.String("apiUrl", c.APIURL),
		slog.String("contentUrl", c.ContentURL),
		slog.Int("pageLimit", c.PageLimit),
	)
}

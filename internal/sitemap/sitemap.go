// Package sitemap publishes a sitemap.xml listing every public object of the bucket.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

const (
	Key         = "sitemap.xml"
	ContentType = "text/xml"
	namespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []url    `xml:"url"`
}

type url struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Generate renders the sitemap for a target snapshot. Folder markers and the
// sitemap itself are left out.
func Generate(snap *mirror.Snapshot, publicURL func(key string) string) ([]byte, error) {
	set := urlset{XMLNS: namespace}
	for _, e := range snap.Entries() {
		if e.IsFolderMarker() || e.Key() == Key {
			continue
		}
		u := url{Loc: publicURL(e.Path)}
		if !e.ModifiedAt.IsZero() {
			u.LastMod = e.ModifiedAt.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(&set); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}

// Store is the bucket the sitemap is read from and written to.
type Store interface {
	ListPage(ctx context.Context, token string) (*mirror.TargetPage, error)
	Put(ctx context.Context, params *mirror.PutParams) (int64, error)
	PublicURL(key string) string
}

type Result struct {
	URLs  int   `json:"urls"`
	Bytes int64 `json:"bytes"`
}

type Updater struct {
	store Store
}

func NewUpdater(store Store) *Updater {
	return &Updater{store: store}
}

// Update lists the bucket and uploads a fresh sitemap.xml.
func (u *Updater) Update(ctx context.Context) (*Result, error) {
	snap, err := mirror.ReadTargetTree(ctx, u.store)
	if err != nil {
		return nil, err
	}

	doc, err := Generate(snap, u.store.PublicURL)
	if err != nil {
		return nil, err
	}

	n, err := u.store.Put(ctx, &mirror.PutParams{
		Key:         Key,
		Body:        bytes.NewReader(doc),
		ContentType: ContentType,
		PublicRead:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("upload sitemap: %w", err)
	}

	res := &Result{URLs: bytes.Count(doc, []byte("<url>")), Bytes: n}
	slog.Info("sitemap updated", "urls", res.URLs, "bytes", res.Bytes)
	return res, nil
}

// Consume refreshes the sitemap after a run that changed the bucket.
func (u *Updater) Consume(ctx context.Context, report *mirror.Report) error {
	if report.Transfers.Succeeded == 0 && report.Deletions.Succeeded == 0 {
		return nil
	}
	_, err := u.Update(ctx)
	return err
}

var _ mirror.ReportSink = (*Updater)(nil)

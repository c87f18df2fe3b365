// Package catalog lists source folders in the shape the public site renders.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
)

// RecentUpdatesLimit is the listing page size for recent updates. Only the
// first page is read.
const RecentUpdatesLimit = 50

type SortOrder string

const (
	SortByPath     SortOrder = "path"
	SortByModified SortOrder = "modified"
)

// Entry is one file as shown on the site. Path links to the public copy in the bucket.
type Entry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

type Lister interface {
	ListFolder(ctx context.Context, arg *dropbox.ListFolderArg) (*dropbox.ListFolderResult, error)
	ListAll(ctx context.Context, arg *dropbox.ListFolderArg) ([]*dropbox.Entry, error)
}

type Service struct {
	lister    Lister
	publicURL func(key string) string
}

func NewService(lister Lister, publicURL func(key string) string) *Service {
	return &Service{lister: lister, publicURL: publicURL}
}

// ListFiles returns the files directly inside folder, sorted by path.
func (s *Service) ListFiles(ctx context.Context, folder string) ([]*Entry, error) {
	entries, err := s.lister.ListAll(ctx, &dropbox.ListFolderArg{Path: folder, Recursive: false})
	if err != nil {
		return nil, fmt.Errorf("list files %q: %w", folder, err)
	}
	return s.Format(entries, SortByPath, 0), nil
}

// RecentUpdates returns up to count of the newest files below folder.
// A count of zero or less returns the whole first page.
func (s *Service) RecentUpdates(ctx context.Context, folder string, count int) ([]*Entry, error) {
	res, err := s.lister.ListFolder(ctx, &dropbox.ListFolderArg{
		Path:      folder,
		Recursive: true,
		Limit:     RecentUpdatesLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("recent updates %q: %w", folder, err)
	}
	return s.Format(res.Entries, SortByModified, count), nil
}

// Format keeps files only, converts them to site entries, sorts and truncates.
func (s *Service) Format(entries []*dropbox.Entry, order SortOrder, count int) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsFile() {
			continue
		}
		out = append(out, &Entry{
			ID:       e.ID,
			Name:     e.BaseName(),
			Type:     strings.ToUpper(e.Ext()),
			Path:     s.publicURL(strings.TrimPrefix(e.PathLower, "/")),
			Modified: e.ServerModified,
		})
	}

	if order == SortByModified {
		slices.SortStableFunc(out, func(a, b *Entry) int {
			return b.Modified.Compare(a.Modified)
		})
	} else {
		slices.SortStableFunc(out, func(a, b *Entry) int {
			return cmp.Compare(strings.ToLower(a.Path), strings.ToLower(b.Path))
		})
	}

	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out
}

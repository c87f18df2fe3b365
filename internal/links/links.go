// Package links hands out public and download links for mirrored files.
package links

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

var ErrPathRequired = errors.New("the path parameter is required")

const cacheSize = 1024

type FileLink struct {
	Link         string `json:"link"`
	DownloadLink string `json:"downloadLink"`
}

type Presigner interface {
	PresignGet(ctx context.Context, key, filename string) (string, error)
	PublicURL(key string) string
}

// Service caches presigned links for half of their lifetime so a cached link
// is always still valid when served.
type Service struct {
	store Presigner
	cache *expirable.LRU[string, *FileLink]
}

func NewService(store Presigner, linkExpiry time.Duration) *Service {
	ttl := linkExpiry / 2
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		store: store,
		cache: expirable.NewLRU[string, *FileLink](cacheSize, nil, ttl),
	}
}

// Get returns the public link of the bucket copy of filePath and a download
// link that saves the file under its original name.
func (s *Service) Get(ctx context.Context, filePath string) (*FileLink, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" || filePath == "/" {
		return nil, ErrPathRequired
	}

	key := mirror.NormalizeKey(filePath)
	if link, ok := s.cache.Get(key); ok {
		return link, nil
	}

	download, err := s.store.PresignGet(ctx, key, path.Base(filePath))
	if err != nil {
		return nil, err
	}

	link := &FileLink{
		Link:         s.store.PublicURL(key),
		DownloadLink: download,
	}
	s.cache.Add(key, link)
	return link, nil
}

// Purge drops every cached link. It runs after a sync run.
func (s *Service) Purge() {
	s.cache.Purge()
}

// Consume purges the cache after a run that changed the bucket.
func (s *Service) Consume(ctx context.Context, report *mirror.Report) error {
	if report.Transfers.Succeeded > 0 || report.Deletions.Succeeded > 0 {
		s.Purge()
	}
	return nil
}

var _ mirror.ReportSink = (*Service)(nil)

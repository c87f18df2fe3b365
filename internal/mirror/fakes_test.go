package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"
)

var errNetwork = errors.New("connection reset by peer")

// memSource is an in-memory source tree served in fixed-size pages.
type memSource struct {
	mu          sync.Mutex
	entries     []SourceEntry
	content     map[string][]byte
	pageSize    int
	failPage    int // -1 disables
	failPaths   map[string]error
	listCalls   int
	downloads   []string
	listStarted chan struct{}
	listRelease chan struct{}
}

func newMemSource(pageSize int) *memSource {
	return &memSource{
		content:   make(map[string][]byte),
		pageSize:  pageSize,
		failPage:  -1,
		failPaths: make(map[string]error),
	}
}

func (s *memSource) addFile(path string, modified time.Time, body string) {
	s.entries = append(s.entries, SourceEntry{Kind: KindFile, Path: "/" + path, ModifiedAt: modified})
	s.content[path] = []byte(body)
}

func (s *memSource) addFolder(path string) {
	s.entries = append(s.entries, SourceEntry{Kind: KindFolder, Path: "/" + path})
}

func (s *memSource) ListPage(ctx context.Context, token string) (*SourcePage, error) {
	if s.listStarted != nil {
		s.listStarted <- struct{}{}
		<-s.listRelease
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	start := 0
	if token != "" {
		var err error
		if start, err = strconv.Atoi(token); err != nil {
			return nil, fmt.Errorf("bad cursor %q", token)
		}
	}
	if s.failPage >= 0 && start/s.pageSize == s.failPage {
		return nil, errNetwork
	}

	end := min(start+s.pageSize, len(s.entries))
	page := &SourcePage{Entries: slices.Clone(s.entries[start:end])}
	if end < len(s.entries) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (s *memSource) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, path)
	if err, ok := s.failPaths[path]; ok {
		return nil, err
	}
	body, ok := s.content[path]
	if !ok {
		return nil, fmt.Errorf("not_found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

type memObject struct {
	body        []byte
	modifiedAt  time.Time
	contentType string
	disposition string
	publicRead  bool
}

// memTarget is an in-memory bucket. Uploaded objects get the store clock as modification time.
type memTarget struct {
	mu         sync.Mutex
	objects    map[string]*memObject
	pageSize   int
	failList   bool
	failPut    map[string]error
	failDelete map[string]error
	deleteErr  error
	puts       []string
	deleteReqs [][]string
	now        func() time.Time
}

func newMemTarget(pageSize int) *memTarget {
	return &memTarget{
		objects:    make(map[string]*memObject),
		pageSize:   pageSize,
		failPut:    make(map[string]error),
		failDelete: make(map[string]error),
		now:        time.Now,
	}
}

func (t *memTarget) addObject(key string, modified time.Time) {
	t.objects[key] = &memObject{modifiedAt: modified}
}

func (t *memTarget) keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.objects))
	for k := range t.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (t *memTarget) ListPage(ctx context.Context, token string) (*TargetPage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failList {
		return nil, errNetwork
	}

	keys := make([]string, 0, len(t.objects))
	for k := range t.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	start := 0
	if token != "" {
		start, _ = strconv.Atoi(token)
	}
	end := min(start+t.pageSize, len(keys))
	page := &TargetPage{}
	for _, k := range keys[start:end] {
		page.Objects = append(page.Objects, TargetObject{Key: k, ModifiedAt: t.objects[k].modifiedAt})
	}
	if end < len(keys) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (t *memTarget) Put(ctx context.Context, params *PutParams) (int64, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.puts = append(t.puts, params.Key)
	if err, ok := t.failPut[params.Key]; ok {
		return 0, err
	}
	t.objects[params.Key] = &memObject{
		body:        body,
		modifiedAt:  t.now(),
		contentType: params.ContentType,
		disposition: params.ContentDisposition,
		publicRead:  params.PublicRead,
	}
	return int64(len(body)), nil
}

func (t *memTarget) DeleteMany(ctx context.Context, keys []string) (*DeleteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteReqs = append(t.deleteReqs, slices.Clone(keys))
	if t.deleteErr != nil {
		return nil, t.deleteErr
	}

	res := &DeleteResult{}
	for _, k := range keys {
		if err, ok := t.failDelete[k]; ok {
			res.Failed = append(res.Failed, KeyFailure{Key: k, Cause: err})
			continue
		}
		delete(t.objects, k)
		res.Succeeded = append(res.Succeeded, k)
	}
	return res, nil
}

var (
	_ SourceListing = (*memSource)(nil)
	_ TargetStore   = (*memTarget)(nil)
)

package mirror

import (
	"context"
	"io"
	"time"
)

// EntryKind distinguishes files from folders in a source listing.
type EntryKind string

const (
	KindFile   EntryKind = "file"
	KindFolder EntryKind = "folder"
)

// SourceEntry is one raw item of a source listing page.
type SourceEntry struct {
	Kind       EntryKind
	Path       string
	ModifiedAt time.Time
}

// SourcePage is one page of the source listing. An empty NextToken ends the listing.
type SourcePage struct {
	Entries   []SourceEntry
	NextToken string
}

// SourceListing is the hierarchical file store being mirrored.
type SourceListing interface {
	// ListPage returns the page after token; the empty token starts a new listing.
	ListPage(ctx context.Context, token string) (*SourcePage, error)

	// Download streams the full content of path. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

// TargetObject is one raw item of a target listing page.
type TargetObject struct {
	Key        string
	ModifiedAt time.Time
}

// TargetPage is one page of the target listing. An empty NextToken ends the listing.
type TargetPage struct {
	Objects   []TargetObject
	NextToken string
}

// PutParams describes one object upload.
type PutParams struct {
	Key                string
	Body               io.Reader
	ContentType        string
	ContentDisposition string
	PublicRead         bool
}

// KeyFailure is a key the target refused to delete.
type KeyFailure struct {
	Key   string
	Cause error
}

// DeleteResult splits a bulk delete into what went through and what didn't.
type DeleteResult struct {
	Succeeded []string
	Failed    []KeyFailure
}

// TargetStore is the object bucket the source is mirrored onto.
type TargetStore interface {
	ListPage(ctx context.Context, token string) (*TargetPage, error)
	Put(ctx context.Context, params *PutParams) (int64, error)
	DeleteMany(ctx context.Context, keys []string) (*DeleteResult, error)
}

// ReportSink receives every finalized report, e.g. a history store or a notifier.
type ReportSink interface {
	Consume(ctx context.Context, report *Report) error
}

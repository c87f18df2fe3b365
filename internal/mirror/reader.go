package mirror

import (
	"context"
	"log/slog"
	"time"
)

// ReadSourceTree enumerates the whole source hierarchy into a snapshot.
// Folders and ignored paths are dropped. Any page failure discards everything
// read so far and returns a *FetchError.
func ReadSourceTree(ctx context.Context, src SourceListing, ignore *IgnoreList) (*Snapshot, error) {
	tstart := time.Now()
	fetch := func(ctx context.Context, token string) (*SourcePage, string, error) {
		p, err := src.ListPage(ctx, token)
		if err != nil {
			return nil, "", err
		}
		return p, p.NextToken, nil
	}

	var entries []FileEntry
	page := 0
	for p, err := range pages(ctx, fetch) {
		if err != nil {
			return nil, &FetchError{Tree: "source", Page: page, Cause: err}
		}
		for _, e := range p.Entries {
			if e.Kind != KindFile {
				continue
			}
			if ignore.ShouldIgnore(e.Path) {
				continue
			}
			entries = append(entries, FileEntry{Path: e.Path, ModifiedAt: e.ModifiedAt})
		}
		page++
	}

	snap := NewSnapshot(entries...)
	slog.Debug("source tree", "files", snap.Len(), "pages", page, "took", time.Since(tstart))
	return snap, nil
}

// ReadTargetTree enumerates every object of the target bucket into a snapshot.
// Folder markers are kept; the delta computer never deletes them.
func ReadTargetTree(ctx context.Context, dst TargetStore) (*Snapshot, error) {
	tstart := time.Now()
	fetch := func(ctx context.Context, token string) (*TargetPage, string, error) {
		p, err := dst.ListPage(ctx, token)
		if err != nil {
			return nil, "", err
		}
		return p, p.NextToken, nil
	}

	var entries []FileEntry
	page := 0
	for p, err := range pages(ctx, fetch) {
		if err != nil {
			return nil, &FetchError{Tree: "target", Page: page, Cause: err}
		}
		for _, obj := range p.Objects {
			entries = append(entries, FileEntry{Path: obj.Key, ModifiedAt: obj.ModifiedAt})
		}
		page++
	}

	snap := NewSnapshot(entries...)
	slog.Debug("target tree", "objects", snap.Len(), "pages", page, "took", time.Since(tstart))
	return snap, nil
}

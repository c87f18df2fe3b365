package mirror

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// FileEntry is one file in a tree snapshot.
type FileEntry struct {
	// Path as reported by the tree, leading separator stripped. Case is preserved.
	Path       string
	ModifiedAt time.Time
}

// Key returns the comparison key of the entry.
func (e FileEntry) Key() string {
	return NormalizeKey(e.Path)
}

// IsFolderMarker reports whether the entry is a zero-byte "folder" object.
func (e FileEntry) IsFolderMarker() bool {
	return strings.HasSuffix(e.Path, "/")
}

// NormalizeKey turns a path from either tree into the key both snapshots are compared on.
func NormalizeKey(path string) string {
	return strings.ToLower(strings.TrimPrefix(path, "/"))
}

// Snapshot is a point-in-time, read-only view of one tree keyed by normalized path.
// It is never mutated after construction so concurrent readers need no locking.
//
// Entries whose paths differ only in case share a key. The entry whose path
// already equals the key is kept, otherwise the later one; the others stay
// reachable through Shadowed.
type Snapshot struct {
	entries  map[string]FileEntry
	shadowed map[string][]FileEntry
}

func NewSnapshot(entries ...FileEntry) *Snapshot {
	s := &Snapshot{entries: make(map[string]FileEntry, len(entries))}
	for _, e := range entries {
		e.Path = strings.TrimPrefix(e.Path, "/")
		key := e.Key()
		prev, ok := s.entries[key]
		if ok && prev.Path != e.Path {
			if prev.Path == key {
				s.shadow(key, e)
				continue
			}
			s.shadow(key, prev)
		}
		s.entries[key] = e
	}
	for key, list := range s.shadowed {
		primary := s.entries[key].Path
		list = slices.DeleteFunc(list, func(e FileEntry) bool { return e.Path == primary })
		slices.SortFunc(list, func(a, b FileEntry) int { return strings.Compare(a.Path, b.Path) })
		s.shadowed[key] = list
	}
	return s
}

func (s *Snapshot) shadow(key string, e FileEntry) {
	if s.shadowed == nil {
		s.shadowed = make(map[string][]FileEntry)
	}
	list := s.shadowed[key]
	if i := slices.IndexFunc(list, func(x FileEntry) bool { return x.Path == e.Path }); i >= 0 {
		list[i] = e
		return
	}
	s.shadowed[key] = append(list, e)
}

// Shadowed returns the entries hidden behind key by a case variant of their path.
func (s *Snapshot) Shadowed(key string) []FileEntry {
	return s.shadowed[NormalizeKey(key)]
}

func (s *Snapshot) Get(key string) (FileEntry, bool) {
	e, ok := s.entries[NormalizeKey(key)]
	return e, ok
}

func (s *Snapshot) Has(key string) bool {
	_, ok := s.entries[NormalizeKey(key)]
	return ok
}

func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Keys returns the snapshot keys in lexical order.
func (s *Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// Entries returns a copy of the snapshot entries in key order.
func (s *Snapshot) Entries() []FileEntry {
	out := make([]FileEntry, 0, len(s.entries))
	for _, k := range s.Keys() {
		out = append(out, s.entries[k])
	}
	return out
}

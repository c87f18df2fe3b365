package mirror

import (
	"log/slog"
	"slices"
)

// Delta classifies the difference between a source and a target snapshot.
// Added and Changed hold source paths; Deleted holds target keys.
// Order within each list carries no meaning.
type Delta struct {
	Added   []string `json:"added"`
	Changed []string `json:"changed"`
	Deleted []string `json:"deleted"`
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Deleted) == 0
}

// Transfers returns every path that must be copied to the target.
func (d Delta) Transfers() []string {
	return slices.Concat(d.Added, d.Changed)
}

// ComputeDelta compares two snapshots. It is pure and performs no I/O.
//
// A path present on both sides is changed only when the source copy is strictly
// newer; the target clock never causes an overwrite. Target-only keys become
// deletions unless they are folder markers or protected, and so do target
// objects shadowed by a case variant of the same key.
func ComputeDelta(source, target *Snapshot, protected ProtectedSet) Delta {
	var d Delta

	for _, key := range source.Keys() {
		src, _ := source.Get(key)
		dst, ok := target.Get(key)
		switch {
		case !ok:
			d.Added = append(d.Added, src.Path)
		case src.ModifiedAt.After(dst.ModifiedAt):
			d.Changed = append(d.Changed, src.Path)
		}
	}

	for _, key := range target.Keys() {
		if protected.Matches(key) {
			slog.Debug("delta skip protected", "key", key)
			continue
		}
		// case variants of a key are never written by a transfer
		for _, dup := range target.Shadowed(key) {
			if !dup.IsFolderMarker() {
				d.Deleted = append(d.Deleted, dup.Path)
			}
		}
		if source.Has(key) {
			continue
		}
		dst, _ := target.Get(key)
		if dst.IsFolderMarker() {
			continue
		}
		d.Deleted = append(d.Deleted, dst.Path)
	}

	return d
}

package mirror

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// GuardResult is the deletion list that is safe to apply.
type GuardResult struct {
	Deleted []string
	Tripped bool
	Overlap []string
}

// Guard cross-checks the deletion candidates against the paths added in the
// same run. A key present in both means the listings raced with a write; the
// whole deletion batch is then withheld rather than filtered.
func Guard(added, deleted []string) GuardResult {
	addedKeys := mapset.NewThreadUnsafeSetWithSize[string](len(added))
	for _, p := range added {
		addedKeys.Add(NormalizeKey(p))
	}

	var overlap []string
	for _, key := range deleted {
		if addedKeys.Contains(NormalizeKey(key)) {
			overlap = append(overlap, key)
		}
	}

	if len(overlap) > 0 {
		slog.Warn("deletion guard tripped, withholding all deletions",
			"candidates", len(deleted), "overlap", len(overlap), "keys", overlap)
		return GuardResult{Deleted: nil, Tripped: true, Overlap: overlap}
	}
	return GuardResult{Deleted: deleted}
}

package mirror

import (
	"context"
	"errors"
	"log/slog"
)

// Deleter removes objects from the target in bulk.
type Deleter struct {
	target TargetStore
}

func NewDeleter(target TargetStore) *Deleter {
	return &Deleter{target: target}
}

// DeleteMany removes keys from the target. Per-key failures come back as
// *DeletionError values joined into the returned error; the succeeded keys are
// always returned. There is no retry.
func (d *Deleter) DeleteMany(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	res, err := d.target.DeleteMany(ctx, keys)
	if err != nil {
		errs := make([]error, 0, len(keys))
		for _, key := range keys {
			errs = append(errs, &DeletionError{Key: key, Cause: err})
		}
		slog.Error("sync", "op", OpDelete, "keys", len(keys), "error", err)
		return nil, errors.Join(errs...)
	}

	var errs []error
	for _, f := range res.Failed {
		slog.Warn("sync", "op", OpDelete, "key", f.Key, "error", f.Cause)
		errs = append(errs, &DeletionError{Key: f.Key, Cause: f.Cause})
	}
	for _, key := range res.Succeeded {
		slog.Info("sync", "op", OpDelete, "key", key)
	}

	return res.Succeeded, errors.Join(errs...)
}

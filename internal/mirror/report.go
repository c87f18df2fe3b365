package mirror

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Failure is one item that could not be applied.
type Failure struct {
	Op    OpType `json:"op" yaml:"op"`
	Path  string `json:"path" yaml:"path"`
	Cause string `json:"cause" yaml:"cause"`
	err   error
}

// Err returns the original error behind Cause, when the failure was recorded in-process.
func (f Failure) Err() error { return f.err }

// Counter tracks one kind of item operation.
type Counter struct {
	Attempted int `json:"attempted" yaml:"attempted"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Report is the outcome of one sync run.
type Report struct {
	RunID        string    `json:"runId" yaml:"run_id"`
	StartedAt    time.Time `json:"startedAt" yaml:"started_at"`
	FinishedAt   time.Time `json:"finishedAt" yaml:"finished_at"`
	SourceFiles  int       `json:"sourceFiles" yaml:"source_files"`
	TargetFiles  int       `json:"targetFiles" yaml:"target_files"`
	Delta        Delta     `json:"delta" yaml:"delta"`
	Transfers    Counter   `json:"transfers" yaml:"transfers"`
	Deletions    Counter   `json:"deletions" yaml:"deletions"`
	Bytes        int64     `json:"bytes" yaml:"bytes"`
	GuardTripped bool      `json:"guardTripped" yaml:"guard_tripped"`
	Anomalies    []string  `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	Failures     []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`

	mu sync.Mutex
}

func newReport(runID string) *Report {
	return &Report{RunID: runID, StartedAt: time.Now().UTC()}
}

func (r *Report) transferOK(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transfers.Succeeded++
	r.Bytes += n
}

func (r *Report) transferFailed(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transfers.Failed++
	r.Failures = append(r.Failures, Failure{Op: OpTransfer, Path: path, Cause: err.Error(), err: err})
}

func (r *Report) deleteOK(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deletions.Succeeded += n
}

func (r *Report) deleteFailed(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deletions.Failed++
	r.Failures = append(r.Failures, Failure{Op: OpDelete, Path: key, Cause: err.Error(), err: err})
}

func (r *Report) anomaly(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Anomalies = append(r.Anomalies, fmt.Sprintf(format, args...))
}

// OK reports whether every item operation succeeded and no anomaly was seen.
func (r *Report) OK() bool {
	return len(r.Failures) == 0 && !r.GuardTripped && len(r.Anomalies) == 0
}

// Took returns the run duration.
func (r *Report) Took() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailureErrors joins the recorded per-item errors.
func (r *Report) FailureErrors() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		if f.err != nil {
			errs = append(errs, f.err)
		} else {
			errs = append(errs, errors.New(f.Cause))
		}
	}
	return errors.Join(errs...)
}

func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("runId", r.RunID),
		slog.Int("added", len(r.Delta.Added)),
		slog.Int("changed", len(r.Delta.Changed)),
		slog.Int("deleted", len(r.Delta.Deleted)),
		slog.Int("transferred", r.Transfers.Succeeded),
		slog.Int("transferFailed", r.Transfers.Failed),
		slog.Int("removed", r.Deletions.Succeeded),
		slog.Int("removeFailed", r.Deletions.Failed),
		slog.String("bytes", humanize.Bytes(uint64(max(r.Bytes, 0)))),
		slog.Bool("guardTripped", r.GuardTripped),
		slog.Duration("took", r.Took()),
	)
}

// Summary is a one-line human readable digest of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d/%d transferred (%s), %d/%d deleted, %d failed",
		r.Transfers.Succeeded, r.Transfers.Attempted, humanize.Bytes(uint64(max(r.Bytes, 0))),
		r.Deletions.Succeeded, r.Deletions.Attempted, len(r.Failures))
}

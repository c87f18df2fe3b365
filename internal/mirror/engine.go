package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Engine runs one-way reconciliation passes from a source tree onto a target bucket.
type Engine struct {
	source     SourceListing
	target     TargetStore
	transferer *Transferer
	deleter    *Deleter
	protected  ProtectedSet
	ignore     *IgnoreList
	locker     Locker
	guard      GuardFunc
	sinks      []ReportSink
	config     *Config

	state      atomic.Uint32
	lastReport atomic.Pointer[Report]
	muRun      sync.Mutex
}

type EngineOption func(*Engine)

// GuardFunc decides which deletion candidates may be applied.
type GuardFunc func(added, deleted []string) GuardResult

// WithGuard replaces the deletion guard. The default is Guard.
func WithGuard(g GuardFunc) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.guard = g
		}
	}
}

// WithLocker extends run exclusion beyond this process.
func WithLocker(l Locker) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithReportSinks registers consumers of finalized reports.
func WithReportSinks(sinks ...ReportSink) EngineOption {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

func NewEngine(source SourceListing, target TargetStore, config *Config, opts ...EngineOption) *Engine {
	if config == nil {
		config = &Config{}
	}
	e := &Engine{
		source:     source,
		target:     target,
		transferer: NewTransferer(source, target),
		deleter:    NewDeleter(target),
		protected:  NewProtectedSet(config.protectedNames()...),
		ignore:     NewIgnoreList(config.Ignore...),
		locker:     noopLocker{},
		guard:      Guard,
		config:     config,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the phase of the current run, or StateIdle.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// LastReport returns the report of the most recent completed run, if any.
func (e *Engine) LastReport() *Report {
	return e.lastReport.Load()
}

func (e *Engine) setState(s State) {
	e.state.Store(uint32(s))
}

// Run performs one synchronization pass. Item failures are recorded in the
// report; only a failed snapshot fetch, a held lock or a broken invariant
// returns a *RunError. A concurrent call returns ErrRunInProgress.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if !e.muRun.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.muRun.Unlock()
	defer e.setState(StateIdle)

	report := newReport(uuid.NewString())
	log := slog.With("runId", report.RunID)

	unlock, err := e.locker.TryLock(ctx)
	if err != nil {
		return nil, &RunError{RunID: report.RunID, Cause: err}
	}
	defer unlock()

	// snapshots
	e.setState(StateFetchingSnapshots)
	source, target, err := e.fetchSnapshots(ctx)
	if err != nil {
		log.Error("sync run aborted", "state", StateFetchingSnapshots, "error", err)
		return nil, &RunError{RunID: report.RunID, Cause: err}
	}
	report.SourceFiles = source.Len()
	report.TargetFiles = target.Len()

	// delta
	e.setState(StateDiffing)
	delta := ComputeDelta(source, target, e.protected)
	report.Delta = delta
	log.Info("delta", "added", len(delta.Added), "changed", len(delta.Changed), "deleted", len(delta.Deleted))

	// guard
	e.setState(StateGuarding)
	guarded := e.guard(delta.Added, delta.Deleted)
	if guarded.Tripped {
		report.GuardTripped = true
		report.anomaly("deletion guard withheld %d deletions: %d keys also added in this run (%v)",
			len(delta.Deleted), len(guarded.Overlap), guarded.Overlap)
	}
	for _, key := range guarded.Deleted {
		if e.protected.Matches(key) {
			return nil, &RunError{RunID: report.RunID, Cause: fmt.Errorf("%w: %s", ErrProtectedDeletion, key)}
		}
	}

	// apply
	e.setState(StateApplying)
	e.apply(ctx, report, delta.Transfers(), guarded.Deleted)

	// report
	e.setState(StateReporting)
	report.FinishedAt = time.Now().UTC()
	if report.OK() {
		log.Info("sync run", "report", report)
	} else {
		log.Warn("sync run", "report", report, "failures", len(report.Failures), "anomalies", report.Anomalies)
	}
	e.lastReport.Store(report)

	for _, sink := range e.sinks {
		if err := sink.Consume(ctx, report); err != nil {
			log.Error("report sink", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}

	return report, nil
}

func (e *Engine) fetchSnapshots(ctx context.Context) (source, target *Snapshot, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = ReadSourceTree(gctx, e.source, e.ignore)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = ReadTargetTree(gctx, e.target)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

// apply runs every transfer and the deletion batch concurrently and waits for
// all of them. Once ctx is done no new item starts; items already running
// finish on a context that ignores the cancellation so no object is left half
// written.
func (e *Engine) apply(ctx context.Context, report *Report, transfers, deletions []string) {
	report.Transfers.Attempted = len(transfers)
	report.Deletions.Attempted = len(deletions)
	itemCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup

	if len(deletions) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				for _, key := range deletions {
					report.deleteFailed(key, &DeletionError{Key: key, Cause: err})
				}
				return
			}
			deleted, err := e.deleter.DeleteMany(itemCtx, deletions)
			report.deleteOK(len(deleted))
			for _, err := range unwrapJoined(err) {
				var delErr *DeletionError
				if errors.As(err, &delErr) {
					report.deleteFailed(delErr.Key, delErr)
				} else {
					report.deleteFailed("", err)
				}
			}
		}()
	}

	g := new(errgroup.Group)
	g.SetLimit(e.config.concurrency())
	for _, path := range transfers {
		if err := ctx.Err(); err != nil {
			report.transferFailed(path, &TransferError{Path: path, Stage: StageDownload, Cause: err})
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.transferFailed(path, &TransferError{Path: path, Stage: StageDownload, Cause: err})
				return nil
			}
			n, err := e.transferer.Transfer(itemCtx, path)
			if err != nil {
				slog.Error("sync", "op", OpTransfer, "path", path, "error", err)
				report.transferFailed(path, err)
				return nil
			}
			slog.Info("sync", "op", OpTransfer, "path", path, "size", n)
			report.transferOK(n)
			return nil
		})
	}

	_ = g.Wait()
	wg.Wait()
}

func unwrapJoined(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

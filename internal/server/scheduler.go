package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

type runner interface {
	Run(ctx context.Context) (*mirror.Report, error)
}

// Scheduler runs the engine every interval. The timer is re-armed only after
// a run returns, so scheduled runs never overlap.
type Scheduler struct {
	engine   runner
	interval time.Duration
}

func NewScheduler(engine runner, interval time.Duration) *Scheduler {
	return &Scheduler{engine: engine, interval: interval}
}

// Start blocks until ctx is done. A zero interval disables the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("sync schedule disabled")
		return
	}

	slog.Info("sync schedule start", "interval", s.interval)
	defer slog.Info("sync schedule stop")

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.engine.Run(ctx)
	switch {
	case errors.Is(err, mirror.ErrRunInProgress), errors.Is(err, mirror.ErrLockHeld):
		slog.Info("scheduled sync skipped", "reason", err)
	case err != nil:
		slog.Error("scheduled sync", "error", err)
	default:
		slog.Info("scheduled sync", "summary", report.Summary())
	}
}

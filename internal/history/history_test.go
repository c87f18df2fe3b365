package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunvalleybronze/dropmirror/internal/db"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	conn, err := db.NewSqliteDB()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s, err := New(context.Background(), conn, keep)
	require.NoError(t, err)
	return s
}

func testReport(id string, started time.Time) *mirror.Report {
	return &mirror.Report{
		RunID:       id,
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		SourceFiles: 10,
		TargetFiles: 9,
		Delta: mirror.Delta{
			Added:   []string{"a.pdf"},
			Changed: []string{"b.pdf", "c.pdf"},
			Deleted: []string{"old.pdf"},
		},
		Transfers: mirror.Counter{Attempted: 3, Succeeded: 2, Failed: 1},
		Deletions: mirror.Counter{Attempted: 1, Succeeded: 1},
		Bytes:     4096,
		Failures: []mirror.Failure{
			{Op: mirror.OpTransfer, Path: "c.pdf", Cause: "transfer \"c.pdf\": upload: AccessDenied"},
		},
	}
}

func TestStore_ConsumeAndGet(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()
	started := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Consume(ctx, testReport("run-1", started)))

	run, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, started, run.StartedAt)
	assert.Equal(t, 3*time.Second, run.FinishedAt.Sub(run.StartedAt))
	assert.Equal(t, 1, run.Added)
	assert.Equal(t, 2, run.Changed)
	assert.Equal(t, 1, run.Deleted)
	assert.Equal(t, mirror.Counter{Attempted: 3, Succeeded: 2, Failed: 1}, run.Transfers)
	assert.Equal(t, int64(4096), run.Bytes)
	assert.False(t, run.GuardTripped)
	assert.Empty(t, run.Anomalies)

	require.Len(t, run.Failures, 1)
	assert.Equal(t, mirror.OpTransfer, run.Failures[0].Op)
	assert.Equal(t, "c.pdf", run.Failures[0].Path)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_GuardAnomalies(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	r := testReport("run-g", time.Now())
	r.GuardTripped = true
	r.Anomalies = []string{"deletion guard withheld 1 deletions"}
	require.NoError(t, s.Consume(ctx, r))

	run, err := s.Get(ctx, "run-g")
	require.NoError(t, err)
	assert.True(t, run.GuardTripped)
	assert.Equal(t, r.Anomalies, run.Anomalies)
}

func TestStore_ListNewestFirstAndPrunes(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, s.Consume(ctx, testReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-2", runs[2].ID)
	assert.Empty(t, runs[0].Failures)

	var orphans int
	require.NoError(t, s.db.Get(&orphans, `SELECT COUNT(*) FROM failures WHERE run_id IN ('run-0', 'run-1')`))
	assert.Zero(t, orphans)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_DuplicateRunID(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Consume(ctx, testReport("dup", time.Now())))
	err := s.Consume(ctx, testReport("dup", time.Now()))
	assert.Error(t, err)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), &Config{Enabled: true, Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopening runs no migration twice
	s, err = Open(context.Background(), &Config{Enabled: true, Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Enabled: true}).Validate())
	assert.Error(t, (&Config{Keep: -1}).Validate())
}

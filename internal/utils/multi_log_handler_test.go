package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiLogHandler(t *testing.T) {
	var info, debug bytes.Buffer
	logger := slog.New(NewMultiLogHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Debug("listing page", "page", 2)
	logger.With("runId", "r1").WithGroup("sync").Info("transfer", "path", "/a.pdf")

	assert.NotContains(t, info.String(), "listing page")
	assert.Contains(t, info.String(), "runId=r1")
	assert.Contains(t, info.String(), "sync.path=/a.pdf")

	assert.Contains(t, debug.String(), `"msg":"listing page"`)
	assert.Contains(t, debug.String(), `"sync":{"path":"/a.pdf"}`)
}

func TestMultiLogHandler_Enabled(t *testing.T) {
	h := NewMultiLogHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelWarn))
}

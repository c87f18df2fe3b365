package mirror

import (
	"errors"
	"fmt"
)

var (
	ErrRunInProgress     = errors.New("mirror: sync run already in progress")
	ErrProtectedDeletion = errors.New("mirror: protected path scheduled for deletion")
	ErrLockHeld          = errors.New("mirror: sync lock held by another process")
)

// FetchError is returned when a tree listing fails. No partial tree is ever used.
type FetchError struct {
	Tree  string // "source" or "target"
	Page  int    // zero-based page that failed
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s tree (page %d): %v", e.Tree, e.Page, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// TransferStage tells which half of a transfer failed.
type TransferStage string

const (
	StageDownload TransferStage = "download"
	StageUpload   TransferStage = "upload"
)

// TransferError is a per-item copy failure. It never aborts sibling transfers.
type TransferError struct {
	Path  string
	Stage TransferStage
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %q: %s: %v", e.Path, e.Stage, e.Cause)
}

func (e *TransferError) Unwrap() error { return e.Cause }

// DeletionError is a per-key removal failure.
type DeletionError struct {
	Key   string
	Cause error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %q: %v", e.Key, e.Cause)
}

func (e *DeletionError) Unwrap() error { return e.Cause }

// RunError terminates a run without a report.
type RunError struct {
	RunID string
	Cause error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("sync run %s failed: %v", e.RunID, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }

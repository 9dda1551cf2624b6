// Package sync reconciles the local TaskFlow document with the remote copy
// stored in a GitHub repository. The flow is always pull, merge, push; the
// remote file's content SHA provides optimistic concurrency on the push.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/storage/github"
)

// DocumentPath is where the board document lives in the remote repository.
const DocumentPath = "taskflow-data.json"

// DefaultSyncInterval is how often Run performs a background sync.
const DefaultSyncInterval = 5 * time.Minute

// Commit messages for the three ways a push happens.
const (
	MessageAutoSave   = "Auto-save from TaskFlow"
	MessageManualSync = "Manual sync from TaskFlow"
	MessageNotesSync  = "Sync notes from TaskFlow"
)

var (
	// ErrSyncInProgress is returned when a sync is requested while another
	// one is still running. Syncs never queue; the caller retries later.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrRemoteNotConfigured is returned when sync is attempted without a
	// configured remote.
	ErrRemoteNotConfigured = errors.New("remote not configured")
)

// Status is the externally visible sync state of the board.
type Status string

const (
	// StatusLocal means there are changes not yet pushed, or no sync has
	// happened.
	StatusLocal Status = "local"
	// StatusSyncing means a sync cycle is running.
	StatusSyncing Status = "syncing"
	// StatusSynced means the last sync completed.
	StatusSynced Status = "synced"
	// StatusError means the last sync failed.
	StatusError Status = "error"
)

// Remote is the remote file store the syncer reads and writes. Implemented
// by *github.Client.
type Remote interface {
	IsConfigured() bool
	GetFile(ctx context.Context, path string) (*github.File, error)
	SaveFile(ctx context.Context, path, content, message, sha string) error
}

// Local is the durable local store the syncer persists merged state to.
// Implemented by *local.Store.
type Local interface {
	SaveState(ctx context.Context, state *schema.AppState) error
	SaveLastSync(ctx context.Context, at int64) error
}

// Syncer coordinates pull/merge/push cycles for one board.
type Syncer interface {
	// Sync runs one full pull-merge-push cycle with the given strategy.
	Sync(ctx context.Context, strategy Strategy, message string) error

	// Pull fetches the remote document and merges it into the store without
	// pushing. Used on startup to fold in changes from other devices.
	Pull(ctx context.Context, strategy Strategy) error

	// Push writes the current document to the remote without merging first.
	// Used for auto-save after local mutations.
	Push(ctx context.Context, message string) error

	// Run performs periodic background syncs until ctx is canceled.
	Run(ctx context.Context, interval time.Duration)

	// Status returns the current sync status.
	Status() Status

	// LastSync returns when the last successful sync finished, or zero.
	LastSync() time.Time

	// SetLastSync seeds the last-sync time, typically from the local store
	// at startup.
	SetLastSync(at time.Time)

	// OnStatusChange registers a handler for status transitions. Handlers
	// run on the syncing goroutine.
	OnStatusChange(fn func(Status))
}

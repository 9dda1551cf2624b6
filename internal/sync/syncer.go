package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	gosync "sync"
	"time"

	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/storage/github"
)

// Board is the in-memory document the syncer reconciles. Implemented by
// *store.Store.
type Board interface {
	Snapshot() *schema.AppState
	Replace(state *schema.AppState)
}

type syncer struct {
	board  Board
	remote Remote
	local  Local
	logger *log.Logger

	// flight is held for the duration of one sync cycle. TryLock gives the
	// single-flight guarantee: concurrent requests fail fast instead of
	// queueing.
	flight gosync.Mutex

	mu       gosync.Mutex
	status   Status
	lastSync time.Time

	listenersMu gosync.Mutex
	listeners   []func(Status)
}

// NewSyncer creates a Syncer over the given board, remote, and local store.
// local may be nil when there is no durable store to mirror into (tests).
func NewSyncer(board Board, remote Remote, local Local, logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &syncer{
		board:  board,
		remote: remote,
		local:  local,
		logger: logger,
		status: StatusLocal,
	}
}

func (s *syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *syncer) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *syncer) SetLastSync(at time.Time) {
	s.mu.Lock()
	s.lastSync = at
	s.mu.Unlock()
}

func (s *syncer) OnStatusChange(fn func(Status)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *syncer) setStatus(status Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()
	if !changed {
		return
	}

	s.listenersMu.Lock()
	listeners := make([]func(Status), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(status)
	}
}

// Sync runs one pull-merge-push cycle. On a push failure the merged state
// stays in the board and the local store, so nothing pulled is lost; only
// the push is retried on the next cycle.
func (s *syncer) Sync(ctx context.Context, strategy Strategy, message string) error {
	if !s.remote.IsConfigured() {
		return ErrRemoteNotConfigured
	}
	if !s.flight.TryLock() {
		return ErrSyncInProgress
	}
	defer s.flight.Unlock()

	s.setStatus(StatusSyncing)

	remoteState, sha, err := s.fetchRemote(ctx)
	if err != nil {
		s.setStatus(StatusError)
		return err
	}

	merged := strategy.Merge(s.board.Snapshot(), remoteState)
	s.board.Replace(merged)
	s.persistLocal(ctx, merged)

	if err := s.push(ctx, merged, message, sha); err != nil {
		s.setStatus(StatusError)
		return err
	}

	s.markSynced(ctx)
	s.logger.Printf("sync complete (%s): %d tasks, %d notes", strategy.Name(), len(merged.Tasks), len(merged.Notes))
	return nil
}

// Pull fetches and merges without pushing. The board still has changes the
// remote has not seen, so on success the status goes back to local rather
// than synced.
func (s *syncer) Pull(ctx context.Context, strategy Strategy) error {
	if !s.remote.IsConfigured() {
		return ErrRemoteNotConfigured
	}
	if !s.flight.TryLock() {
		return ErrSyncInProgress
	}
	defer s.flight.Unlock()

	s.setStatus(StatusSyncing)

	remoteState, _, err := s.fetchRemote(ctx)
	if err != nil {
		s.setStatus(StatusError)
		return err
	}

	merged := strategy.Merge(s.board.Snapshot(), remoteState)
	s.board.Replace(merged)
	s.persistLocal(ctx, merged)

	s.setStatus(StatusLocal)
	return nil
}

// Push writes the current document without merging first. Used for
// auto-save, where the board is assumed current.
func (s *syncer) Push(ctx context.Context, message string) error {
	if !s.remote.IsConfigured() {
		return ErrRemoteNotConfigured
	}
	if !s.flight.TryLock() {
		return ErrSyncInProgress
	}
	defer s.flight.Unlock()

	s.setStatus(StatusSyncing)

	// Fetch only for the concurrency token.
	sha := ""
	if file, err := s.remote.GetFile(ctx, DocumentPath); err == nil {
		sha = file.SHA
	} else if !errors.Is(err, github.ErrNotFound) {
		s.setStatus(StatusError)
		return err
	}

	if err := s.push(ctx, s.board.Snapshot(), message, sha); err != nil {
		s.setStatus(StatusError)
		return err
	}

	s.markSynced(ctx)
	return nil
}

// Run syncs every interval until ctx is canceled. Background cycles use
// SmartMerge so a slow device never clobbers newer notes from another one.
func (s *syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Printf("periodic sync every %s", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("periodic sync stopped")
			return
		case <-ticker.C:
			err := s.Sync(ctx, SmartMerge{}, MessageAutoSave)
			switch {
			case err == nil:
			case errors.Is(err, ErrSyncInProgress):
				// A manual sync is running; skip this tick.
			case errors.Is(err, ErrRemoteNotConfigured):
			default:
				s.logger.Printf("periodic sync failed: %v", err)
			}
		}
	}
}

// fetchRemote pulls the remote document. A missing file is an empty remote
// with no concurrency token, the normal state before the first push. The
// returned state keeps nil collections in that case so merge strategies
// treat the fields as absent rather than deliberately emptied.
func (s *syncer) fetchRemote(ctx context.Context) (*schema.AppState, string, error) {
	file, err := s.remote.GetFile(ctx, DocumentPath)
	if errors.Is(err, github.ErrNotFound) {
		return &schema.AppState{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to pull remote document: %w", err)
	}

	var state schema.AppState
	if err := json.Unmarshal([]byte(file.Content), &state); err != nil {
		return nil, "", fmt.Errorf("failed to parse remote document: %w", err)
	}
	return &state, file.SHA, nil
}

func (s *syncer) push(ctx context.Context, state *schema.AppState, message, sha string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.remote.SaveFile(ctx, DocumentPath, string(data), message, sha); err != nil {
		return fmt.Errorf("failed to push document: %w", err)
	}
	return nil
}

func (s *syncer) persistLocal(ctx context.Context, state *schema.AppState) {
	if s.local == nil {
		return
	}
	if err := s.local.SaveState(ctx, state); err != nil {
		s.logger.Printf("warning: failed to persist merged state locally: %v", err)
	}
}

func (s *syncer) markSynced(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastSync = now
	s.mu.Unlock()

	if s.local != nil {
		if err := s.local.SaveLastSync(ctx, now.UnixMilli()); err != nil {
			s.logger.Printf("warning: failed to record last sync time: %v", err)
		}
	}
	s.setStatus(StatusSynced)
}

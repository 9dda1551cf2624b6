// Package store owns the in-memory AppState document and is the only place
// it is mutated. Every mutation refreshes the entity's updatedAt, records a
// version snapshot, and emits a change event for observers (persistence,
// dashboard). Reads hand out clones so callers can never alias the live
// document.
package store

import (
	"sync"

	"github.com/taskflow/taskflow/internal/ids"
	"github.com/taskflow/taskflow/internal/schema"
)

// MaxVersionsPerItem is the per-entity cap on retained version snapshots.
// On overflow the oldest entries for that entity are purged.
const MaxVersionsPerItem = 50

// ChangeKind identifies what a change event describes.
type ChangeKind string

const (
	ChangeTaskCreated    ChangeKind = "task_created"
	ChangeTaskUpdated    ChangeKind = "task_updated"
	ChangeTaskDeleted    ChangeKind = "task_deleted"
	ChangeCommentAdded   ChangeKind = "comment_added"
	ChangeCommentRemoved ChangeKind = "comment_removed"
	ChangeNoteCreated    ChangeKind = "note_created"
	ChangeNoteUpdated    ChangeKind = "note_updated"
	ChangeNoteDeleted    ChangeKind = "note_deleted"
	ChangeReverted       ChangeKind = "reverted"
	ChangeStateReplaced  ChangeKind = "state_replaced"
)

// Change describes a single mutation of the store.
type Change struct {
	Kind     ChangeKind
	ItemType schema.ItemType
	ItemID   string
	Title    string
}

// Options configures a Store.
type Options struct {
	// KeepVersionsOnDelete retains an entity's version history after the
	// entity is deleted (audit-trail mode). By default history is pruned
	// with the entity so orphaned versions cannot accumulate.
	KeepVersionsOnDelete bool

	// NewID overrides the identifier generator. Defaults to ids.New.
	NewID func() string

	// Now overrides the clock (epoch milliseconds). Defaults to schema.Now.
	Now func() int64
}

// Store holds the live AppState. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state *schema.AppState
	opts  Options

	handlersMu sync.RWMutex
	handlers   []func(Change)
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.NewID == nil {
		opts.NewID = ids.New
	}
	if opts.Now == nil {
		opts.Now = schema.Now
	}
	return &Store{
		state: schema.NewAppState(),
		opts:  opts,
	}
}

// OnChange registers a handler called after every mutation. Handlers run
// outside the store lock, on the mutating goroutine.
func (s *Store) OnChange(fn func(Change)) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Store) emit(ch Change) {
	s.handlersMu.RLock()
	handlers := make([]func(Change), len(s.handlers))
	copy(handlers, s.handlers)
	s.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(ch)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *schema.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Replace swaps the whole document for a copy of state. This is the defined
// replace operation used after loads, merges, and imports.
func (s *Store) Replace(state *schema.AppState) {
	s.mu.Lock()
	next := state.Clone()
	next.Normalize()
	s.state = next
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeStateReplaced})
}

// Clear resets the document to empty.
func (s *Store) Clear() {
	s.Replace(schema.NewAppState())
}

// Stats summarizes the current document for status displays.
type Stats struct {
	Tasks    int
	Notes    int
	Versions int
	ByStatus map[schema.Status]int
}

// Stats returns counts over the current document.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Tasks:    len(s.state.Tasks),
		Notes:    len(s.state.Notes),
		Versions: len(s.state.Versions),
		ByStatus: make(map[schema.Status]int),
	}
	for i := range s.state.Tasks {
		st.ByStatus[s.state.Tasks[i].Status]++
	}
	return st
}

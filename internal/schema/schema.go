// Package schema defines the TaskFlow data model: tasks, notes, version
// snapshots, and the AppState document that is persisted locally and
// synchronized to the remote store.
//
// The JSON shape of these types is the wire format. Field names are
// camelCase and timestamps are epoch milliseconds, so documents written by
// any TaskFlow client (including older ones) decode cleanly. Do not change
// JSON tags without a migration plan.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the board column a task lives in.
type Status string

const (
	// StatusTodo is the default column for new tasks.
	StatusTodo Status = "todo"
	// StatusInProgress marks a task currently being worked on.
	StatusInProgress Status = "in-progress"
	// StatusDone marks a completed task.
	StatusDone Status = "done"
)

// Valid reports whether s is one of the known board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ItemType identifies which entity collection a version snapshot belongs to.
type ItemType string

const (
	// ItemTask marks a version of a Task.
	ItemTask ItemType = "task"
	// ItemNote marks a version of a Note.
	ItemNote ItemType = "note"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTask || t == ItemNote
}

// Comment is a short annotation attached to a task. Comments exist only as
// part of their parent task's lifecycle.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// Task is a board card.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Comments    []Comment `json:"comments"`
	CreatedAt   int64     `json:"createdAt"`
	UpdatedAt   int64     `json:"updatedAt"`
}

// Validate checks that the task has the fields every persisted task must have.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	return nil
}

// Clone returns a structurally independent copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Comments = make([]Comment, len(t.Comments))
	copy(c.Comments, t.Comments)
	return &c
}

// Note is a free-text (markdown) document.
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Validate checks that the note has the fields every persisted note must have.
func (n *Note) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("id is required")
	}
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// Clone returns a copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	return &c
}

// Version is an immutable point-in-time snapshot of a task or note. Data
// holds the entity's JSON at the time the snapshot was taken; it is never
// re-encoded, so it stays immune to later mutation of the live entity.
type Version struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	ItemType  ItemType        `json:"itemType"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// Task decodes the snapshot as a Task. Only valid when ItemType is ItemTask.
func (v *Version) Task() (*Task, error) {
	var t Task
	if err := json.Unmarshal(v.Data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode task snapshot %s: %w", v.ID, err)
	}
	return &t, nil
}

// Note decodes the snapshot as a Note. Only valid when ItemType is ItemNote.
func (v *Version) Note() (*Note, error) {
	var n Note
	if err := json.Unmarshal(v.Data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode note snapshot %s: %w", v.ID, err)
	}
	return &n, nil
}

// Clone returns a copy of the version with its own Data buffer.
func (v *Version) Clone() *Version {
	c := *v
	c.Data = make(json.RawMessage, len(v.Data))
	copy(c.Data, v.Data)
	return &c
}

// Snapshot deep-copies an entity into the raw form stored on a Version.
func Snapshot(entity any) (json.RawMessage, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot entity: %w", err)
	}
	return data, nil
}

// AppState is the whole application document: the unit of local persistence
// and of remote synchronization. There is no partial sync.
type AppState struct {
	Tasks    []Task    `json:"tasks"`
	Notes    []Note    `json:"notes"`
	Versions []Version `json:"versions"`
}

// NewAppState returns an empty state with non-nil collections.
func NewAppState() *AppState {
	return &AppState{
		Tasks:    []Task{},
		Notes:    []Note{},
		Versions: []Version{},
	}
}

// Normalize replaces nil collections with empty ones. Remote documents and
// imports may omit fields; downstream code assumes non-nil slices.
func (s *AppState) Normalize() {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	if s.Versions == nil {
		s.Versions = []Version{}
	}
}

// Clone returns a structurally independent copy of the state.
func (s *AppState) Clone() *AppState {
	c := &AppState{
		Tasks:    make([]Task, len(s.Tasks)),
		Notes:    make([]Note, len(s.Notes)),
		Versions: make([]Version, len(s.Versions)),
	}
	for i := range s.Tasks {
		c.Tasks[i] = *s.Tasks[i].Clone()
	}
	copy(c.Notes, s.Notes)
	for i := range s.Versions {
		c.Versions[i] = *s.Versions[i].Clone()
	}
	return c
}

// Now returns the current time in epoch milliseconds, the timestamp unit
// used throughout the document format.
func Now() int64 {
	return time.Now().UnixMilli()
}

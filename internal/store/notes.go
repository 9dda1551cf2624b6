package store

import (
	"strings"

	"github.com/taskflow/taskflow/internal/schema"
)

// DefaultNoteTitle is used when a note is created without a title.
const DefaultNoteTitle = "Untitled Note"

// NoteUpdate carries the fields of a note update. Nil fields are left
// unchanged.
type NoteUpdate struct {
	Title   *string
	Content *string
}

// CreateNote adds a new empty note and records its first version. An empty
// title defaults to DefaultNoteTitle.
func (s *Store) CreateNote(title string) *schema.Note {
	if title == "" {
		title = DefaultNoteTitle
	}
	return s.createNote(title, "")
}

// ImportNote creates a brand-new note from imported title/content. The note
// gets a fresh id and fresh timestamps; imports never overwrite an existing
// note.
func (s *Store) ImportNote(title, content string) *schema.Note {
	if title == "" {
		title = "Imported Note"
	}
	return s.createNote(title, content)
}

func (s *Store) createNote(title, content string) *schema.Note {
	s.mu.Lock()
	now := s.opts.Now()
	note := schema.Note{
		ID:        s.opts.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.Notes = append(s.state.Notes, note)
	s.recordVersionLocked(note.ID, schema.ItemNote, &note)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeNoteCreated, ItemType: schema.ItemNote, ItemID: note.ID, Title: note.Title})
	return note.Clone()
}

// UpdateNote merges upd into the note, refreshes updatedAt, and records a
// version. No-op returning false when the id is unknown.
func (s *Store) UpdateNote(id string, upd NoteUpdate) (*schema.Note, bool) {
	s.mu.Lock()
	note := s.findNoteLocked(id)
	if note == nil {
		s.mu.Unlock()
		return nil, false
	}
	if upd.Title != nil {
		note.Title = *upd.Title
	}
	if upd.Content != nil {
		note.Content = *upd.Content
	}
	note.UpdatedAt = s.opts.Now()
	s.recordVersionLocked(note.ID, schema.ItemNote, note)
	clone := note.Clone()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeNoteUpdated, ItemType: schema.ItemNote, ItemID: clone.ID, Title: clone.Title})
	return clone, true
}

// DeleteNote removes the note. Same deletion contract as DeleteTask.
func (s *Store) DeleteNote(id string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Notes {
		if s.state.Notes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Notes = append(s.state.Notes[:idx], s.state.Notes[idx+1:]...)
	if !s.opts.KeepVersionsOnDelete {
		s.pruneAllVersionsLocked(id)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeNoteDeleted, ItemType: schema.ItemNote, ItemID: id})
	return true
}

// Note returns a copy of the note, or false when the id is unknown.
func (s *Store) Note(id string) (*schema.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note := s.findNoteLocked(id)
	if note == nil {
		return nil, false
	}
	return note.Clone(), true
}

// Notes returns copies of all notes.
func (s *Store) Notes() []schema.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Note, len(s.state.Notes))
	copy(out, s.state.Notes)
	return out
}

// SearchNotes returns notes whose title or content contains query
// (case-insensitive). An empty query matches everything.
func (s *Store) SearchNotes(query string) []schema.Note {
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.Note
	for i := range s.state.Notes {
		n := &s.state.Notes[i]
		if strings.Contains(strings.ToLower(n.Title), query) ||
			strings.Contains(strings.ToLower(n.Content), query) {
			out = append(out, *n)
		}
	}
	return out
}

// findNoteLocked returns a pointer into the live slice. Callers must hold
// s.mu and must not retain the pointer past unlock.
func (s *Store) findNoteLocked(id string) *schema.Note {
	for i := range s.state.Notes {
		if s.state.Notes[i].ID == id {
			return &s.state.Notes[i]
		}
	}
	return nil
}

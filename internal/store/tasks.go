package store

import (
	"fmt"
	"strings"

	"github.com/taskflow/taskflow/internal/schema"
)

// TaskUpdate carries the fields of a task update. Nil fields are left
// unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *schema.Status
}

// CreateTask adds a new task to the board and records its first version.
// An empty status defaults to "todo".
func (s *Store) CreateTask(title string, status schema.Status) (*schema.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if status == "" {
		status = schema.StatusTodo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	now := s.opts.Now()
	task := schema.Task{
		ID:          s.opts.NewID(),
		Title:       title,
		Description: "",
		Status:      status,
		Comments:    []schema.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.state.Tasks = append(s.state.Tasks, task)
	s.recordVersionLocked(task.ID, schema.ItemTask, &task)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTaskCreated, ItemType: schema.ItemTask, ItemID: task.ID, Title: task.Title})
	return task.Clone(), nil
}

// UpdateTask merges upd into the task, refreshes updatedAt, and records a
// version. It is a no-op returning false when the id is unknown.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (*schema.Task, bool) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, false
	}

	s.mu.Lock()
	task := s.findTaskLocked(id)
	if task == nil {
		s.mu.Unlock()
		return nil, false
	}
	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Status != nil {
		task.Status = *upd.Status
	}
	task.UpdatedAt = s.opts.Now()
	s.recordVersionLocked(task.ID, schema.ItemTask, task)
	clone := task.Clone()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTaskUpdated, ItemType: schema.ItemTask, ItemID: clone.ID, Title: clone.Title})
	return clone, true
}

// DeleteTask removes the task from the board. Deletion is immediate and
// irreversible; unless the store keeps history on delete, the task's
// versions are pruned with it. No-op returning false when the id is unknown.
func (s *Store) DeleteTask(id string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Tasks = append(s.state.Tasks[:idx], s.state.Tasks[idx+1:]...)
	if !s.opts.KeepVersionsOnDelete {
		s.pruneAllVersionsLocked(id)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTaskDeleted, ItemType: schema.ItemTask, ItemID: id})
	return true
}

// AddComment appends a comment to the task, refreshes updatedAt, and records
// a version snapshotting the whole task including its comments.
func (s *Store) AddComment(taskID, content string) (*schema.Task, bool) {
	s.mu.Lock()
	task := s.findTaskLocked(taskID)
	if task == nil {
		s.mu.Unlock()
		return nil, false
	}
	now := s.opts.Now()
	task.Comments = append(task.Comments, schema.Comment{
		ID:        s.opts.NewID(),
		Content:   content,
		CreatedAt: now,
	})
	task.UpdatedAt = now
	s.recordVersionLocked(task.ID, schema.ItemTask, task)
	clone := task.Clone()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeCommentAdded, ItemType: schema.ItemTask, ItemID: clone.ID, Title: clone.Title})
	return clone, true
}

// RemoveComment deletes the comment by id and refreshes the task's
// updatedAt. Like every other mutation it records a version, so comment
// removal is recoverable from history.
func (s *Store) RemoveComment(taskID, commentID string) (*schema.Task, bool) {
	s.mu.Lock()
	task := s.findTaskLocked(taskID)
	if task == nil {
		s.mu.Unlock()
		return nil, false
	}
	kept := task.Comments[:0]
	for _, c := range task.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	task.Comments = kept
	task.UpdatedAt = s.opts.Now()
	s.recordVersionLocked(task.ID, schema.ItemTask, task)
	clone := task.Clone()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeCommentRemoved, ItemType: schema.ItemTask, ItemID: clone.ID, Title: clone.Title})
	return clone, true
}

// Task returns a copy of the task, or false when the id is unknown.
func (s *Store) Task(id string) (*schema.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task := s.findTaskLocked(id)
	if task == nil {
		return nil, false
	}
	return task.Clone(), true
}

// Tasks returns copies of all tasks in board order.
func (s *Store) Tasks() []schema.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Task, 0, len(s.state.Tasks))
	for i := range s.state.Tasks {
		out = append(out, *s.state.Tasks[i].Clone())
	}
	return out
}

// SearchTasks returns tasks whose title or description contains query
// (case-insensitive). An empty query matches everything.
func (s *Store) SearchTasks(query string) []schema.Task {
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.Task
	for i := range s.state.Tasks {
		t := &s.state.Tasks[i]
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Description), query) {
			out = append(out, *t.Clone())
		}
	}
	return out
}

// findTaskLocked returns a pointer into the live slice. Callers must hold
// s.mu and must not retain the pointer past unlock.
func (s *Store) findTaskLocked(id string) *schema.Task {
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			return &s.state.Tasks[i]
		}
	}
	return nil
}

package store

import (
	"encoding/json"
	"sort"

	"github.com/taskflow/taskflow/internal/schema"
)

// recordVersionLocked appends a deep-copied snapshot of entity to the
// version log and enforces the per-item cap. Callers must hold s.mu.
//
// Recording cannot fail: the entity types always marshal, and a marshal
// error would mean the live document itself is unencodable.
func (s *Store) recordVersionLocked(itemID string, itemType schema.ItemType, entity any) {
	data, err := schema.Snapshot(entity)
	if err != nil {
		return
	}

	s.state.Versions = append(s.state.Versions, schema.Version{
		ID:        s.opts.NewID(),
		ItemID:    itemID,
		ItemType:  itemType,
		Data:      data,
		CreatedAt: s.opts.Now(),
	})

	// Enforce the cap: drop the oldest excess snapshots for this item.
	// Versions are appended in creation order, so the first matches are
	// the oldest.
	count := 0
	for i := range s.state.Versions {
		if s.state.Versions[i].ItemID == itemID {
			count++
		}
	}
	excess := count - MaxVersionsPerItem
	if excess <= 0 {
		return
	}
	kept := s.state.Versions[:0]
	for _, v := range s.state.Versions {
		if excess > 0 && v.ItemID == itemID {
			excess--
			continue
		}
		kept = append(kept, v)
	}
	s.state.Versions = kept
}

// pruneAllVersionsLocked drops every version belonging to itemID. Callers
// must hold s.mu.
func (s *Store) pruneAllVersionsLocked(itemID string) {
	kept := s.state.Versions[:0]
	for _, v := range s.state.Versions {
		if v.ItemID != itemID {
			kept = append(kept, v)
		}
	}
	s.state.Versions = kept
}

// ListVersions returns all versions for itemID, most recent first. The
// result is empty (never nil) when the item has no history.
func (s *Store) ListVersions(itemID string) []schema.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.Version{}
	for i := range s.state.Versions {
		if s.state.Versions[i].ItemID == itemID {
			out = append(out, *s.state.Versions[i].Clone())
		}
	}
	// Appended in creation order; flip to newest-first. SliceStable keeps
	// insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Version returns a copy of a single version by id.
func (s *Store) Version(versionID string) (*schema.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.findVersionLocked(versionID)
	if v == nil {
		return nil, false
	}
	return v.Clone(), true
}

// Revert replaces the live entity with the snapshot stored on versionID and
// refreshes its updatedAt. Before the snapshot is applied, the current state
// of the entity is itself recorded as a version, so the pre-revert state is
// never unrecoverable. The applied snapshot is not re-recorded.
//
// Revert is a silent no-op returning false when the version id is unknown
// or the entity it points at no longer exists.
func (s *Store) Revert(versionID string) bool {
	s.mu.Lock()
	found := s.findVersionLocked(versionID)
	if found == nil {
		s.mu.Unlock()
		return false
	}
	// Recording the pre-revert snapshot below may compact the versions
	// slice; work from a copy, not a pointer into it.
	version := found.Clone()

	var (
		itemID = version.ItemID
		title  string
	)
	switch version.ItemType {
	case schema.ItemTask:
		task := s.findTaskLocked(itemID)
		if task == nil {
			s.mu.Unlock()
			return false
		}
		s.recordVersionLocked(itemID, schema.ItemTask, task)
		var restored schema.Task
		if err := json.Unmarshal(version.Data, &restored); err != nil {
			s.mu.Unlock()
			return false
		}
		restored.UpdatedAt = s.opts.Now()
		*task = restored
		title = restored.Title

	case schema.ItemNote:
		note := s.findNoteLocked(itemID)
		if note == nil {
			s.mu.Unlock()
			return false
		}
		s.recordVersionLocked(itemID, schema.ItemNote, note)
		var restored schema.Note
		if err := json.Unmarshal(version.Data, &restored); err != nil {
			s.mu.Unlock()
			return false
		}
		restored.UpdatedAt = s.opts.Now()
		*note = restored
		title = restored.Title

	default:
		s.mu.Unlock()
		return false
	}
	itemType := version.ItemType
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReverted, ItemType: itemType, ItemID: itemID, Title: title})
	return true
}

func (s *Store) findVersionLocked(versionID string) *schema.Version {
	for i := range s.state.Versions {
		if s.state.Versions[i].ID == versionID {
			return &s.state.Versions[i]
		}
	}
	return nil
}

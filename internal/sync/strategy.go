package sync

import "github.com/taskflow/taskflow/internal/schema"

// Strategy decides how a pulled remote document combines with the local one.
// Merge must not mutate either input; it returns a fresh document.
type Strategy interface {
	Name() string
	Merge(local, remote *schema.AppState) *schema.AppState
}

// Replace adopts the remote document wholesale whenever its tasks or notes
// fields are present, even when they are empty: a board cleared and pushed
// from one device clears everywhere on the next replace sync. Only a remote
// that carries neither field (the document was never written) leaves the
// local document untouched.
type Replace struct{}

// Name implements Strategy.
func (Replace) Name() string { return "replace" }

// Merge implements Strategy.
func (Replace) Merge(local, remote *schema.AppState) *schema.AppState {
	if remote.Tasks == nil && remote.Notes == nil {
		return local.Clone()
	}
	merged := remote.Clone()
	merged.Normalize()
	return merged
}

// SmartMerge merges notes per-item by last-writer-wins on updatedAt: a local
// note survives only when it is strictly newer than the remote copy, so
// equal timestamps resolve to remote. Notes that exist on only one side are
// kept. Tasks and versions are taken from whichever side the remote
// provides; when the remote omits them, local's are kept.
//
// updatedAt is wall-clock time from whatever device wrote the note, so a
// device with a skewed clock can win conflicts it shouldn't. Acceptable for
// a single-user tool syncing across their own devices.
type SmartMerge struct{}

// Name implements Strategy.
func (SmartMerge) Name() string { return "smart-merge" }

// Merge implements Strategy.
func (SmartMerge) Merge(local, remote *schema.AppState) *schema.AppState {
	merged := &schema.AppState{}

	if remote.Tasks != nil {
		merged.Tasks = make([]schema.Task, len(remote.Tasks))
		for i := range remote.Tasks {
			merged.Tasks[i] = *remote.Tasks[i].Clone()
		}
	} else {
		merged.Tasks = make([]schema.Task, len(local.Tasks))
		for i := range local.Tasks {
			merged.Tasks[i] = *local.Tasks[i].Clone()
		}
	}

	merged.Notes = mergeNotes(local.Notes, remote.Notes)

	if remote.Versions != nil {
		merged.Versions = make([]schema.Version, len(remote.Versions))
		for i := range remote.Versions {
			merged.Versions[i] = *remote.Versions[i].Clone()
		}
	} else {
		merged.Versions = make([]schema.Version, len(local.Versions))
		for i := range local.Versions {
			merged.Versions[i] = *local.Versions[i].Clone()
		}
	}

	merged.Normalize()
	return merged
}

// mergeNotes starts from the remote set and overlays local notes that are
// strictly newer, preserving remote ordering for notes both sides have.
func mergeNotes(local, remote []schema.Note) []schema.Note {
	merged := make([]schema.Note, len(remote))
	copy(merged, remote)

	index := make(map[string]int, len(merged))
	for i := range merged {
		index[merged[i].ID] = i
	}

	for i := range local {
		n := local[i]
		j, ok := index[n.ID]
		if !ok {
			index[n.ID] = len(merged)
			merged = append(merged, n)
			continue
		}
		if n.UpdatedAt > merged[j].UpdatedAt {
			merged[j] = n
		}
	}
	return merged
}

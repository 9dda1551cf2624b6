package sync

import (
	"testing"

	"github.com/taskflow/taskflow/internal/schema"
)

func task(id, title string) schema.Task {
	return schema.Task{ID: id, Title: title, Status: schema.StatusTodo, Comments: []schema.Comment{}}
}

func note(id, title string, updatedAt int64) schema.Note {
	return schema.Note{ID: id, Title: title, UpdatedAt: updatedAt}
}

func TestReplaceAdoptsRemote(t *testing.T) {
	local := &schema.AppState{
		Tasks: []schema.Task{task("id_1_a", "local task")},
		Notes: []schema.Note{note("id_1_b", "local note", 10)},
	}
	remote := &schema.AppState{
		Tasks: []schema.Task{task("id_2_a", "remote task")},
	}

	merged := Replace{}.Merge(local, remote)

	if len(merged.Tasks) != 1 || merged.Tasks[0].Title != "remote task" {
		t.Errorf("replace should adopt remote tasks: %+v", merged.Tasks)
	}
	// Remote omitted notes entirely; replace does not preserve local ones.
	if len(merged.Notes) != 0 {
		t.Errorf("replace should not keep local notes the remote lacks: %+v", merged.Notes)
	}
}

func TestReplaceIgnoresNeverWrittenRemote(t *testing.T) {
	local := &schema.AppState{
		Tasks: []schema.Task{task("id_1_a", "precious")},
	}
	// Neither field present: the remote document has never been written.
	merged := Replace{}.Merge(local, &schema.AppState{})

	if len(merged.Tasks) != 1 || merged.Tasks[0].Title != "precious" {
		t.Errorf("a never-written remote must not wipe the local board")
	}
}

func TestReplaceAdoptsClearedRemote(t *testing.T) {
	local := &schema.AppState{
		Tasks: []schema.Task{task("id_1_a", "deleted elsewhere")},
		Notes: []schema.Note{note("id_1_b", "deleted elsewhere", 10)},
	}
	// Fields present but empty: another device cleared the board and
	// pushed. Replace must clear here too, not resurrect the data.
	merged := Replace{}.Merge(local, schema.NewAppState())

	if len(merged.Tasks) != 0 || len(merged.Notes) != 0 {
		t.Errorf("a cleared remote should clear the local board: %d tasks, %d notes kept",
			len(merged.Tasks), len(merged.Notes))
	}
}

func TestSmartMergeLocalNewerWins(t *testing.T) {
	local := &schema.AppState{Notes: []schema.Note{note("id_1_n", "local edit", 20)}}
	remote := &schema.AppState{Notes: []schema.Note{note("id_1_n", "remote edit", 10)}}

	merged := SmartMerge{}.Merge(local, remote)
	if len(merged.Notes) != 1 || merged.Notes[0].Title != "local edit" {
		t.Errorf("strictly newer local note should win: %+v", merged.Notes)
	}
}

func TestSmartMergeRemoteWinsTies(t *testing.T) {
	local := &schema.AppState{Notes: []schema.Note{note("id_1_n", "local edit", 10)}}
	remote := &schema.AppState{Notes: []schema.Note{note("id_1_n", "remote edit", 10)}}

	merged := SmartMerge{}.Merge(local, remote)
	if merged.Notes[0].Title != "remote edit" {
		t.Errorf("equal timestamps should resolve to remote, got %q", merged.Notes[0].Title)
	}
}

func TestSmartMergeKeepsBothSides(t *testing.T) {
	local := &schema.AppState{Notes: []schema.Note{note("id_1_n", "only local", 10)}}
	remote := &schema.AppState{Notes: []schema.Note{note("id_2_n", "only remote", 10)}}

	merged := SmartMerge{}.Merge(local, remote)
	if len(merged.Notes) != 2 {
		t.Fatalf("notes unique to either side should survive, got %d", len(merged.Notes))
	}
}

func TestSmartMergeTasksFollowRemoteWhenPresent(t *testing.T) {
	local := &schema.AppState{Tasks: []schema.Task{task("id_1_a", "local")}}
	remote := &schema.AppState{Tasks: []schema.Task{task("id_2_a", "remote")}}

	merged := SmartMerge{}.Merge(local, remote)
	if len(merged.Tasks) != 1 || merged.Tasks[0].Title != "remote" {
		t.Errorf("tasks should come from remote when remote has them")
	}
}

func TestSmartMergeTasksFallBackToLocal(t *testing.T) {
	local := &schema.AppState{Tasks: []schema.Task{task("id_1_a", "local")}}
	remote := &schema.AppState{Notes: []schema.Note{note("id_2_n", "remote note", 5)}}

	merged := SmartMerge{}.Merge(local, remote)
	if len(merged.Tasks) != 1 || merged.Tasks[0].Title != "local" {
		t.Errorf("tasks should fall back to local when remote omits them")
	}
}

func TestSmartMergeIdempotent(t *testing.T) {
	local := &schema.AppState{
		Notes: []schema.Note{note("id_1_n", "a", 10), note("id_2_n", "b", 20)},
	}
	remote := &schema.AppState{
		Notes: []schema.Note{note("id_1_n", "a-remote", 15)},
	}

	once := SmartMerge{}.Merge(local, remote)
	twice := SmartMerge{}.Merge(once, remote)

	if len(once.Notes) != len(twice.Notes) {
		t.Fatalf("merge should be idempotent: %d vs %d notes", len(once.Notes), len(twice.Notes))
	}
	for i := range once.Notes {
		if once.Notes[i] != twice.Notes[i] {
			t.Errorf("note %d changed on re-merge: %+v vs %+v", i, once.Notes[i], twice.Notes[i])
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	local := &schema.AppState{Notes: []schema.Note{note("id_1_n", "local", 20)}}
	remote := &schema.AppState{Notes: []schema.Note{note("id_1_n", "remote", 10)}}

	merged := SmartMerge{}.Merge(local, remote)
	merged.Notes[0].Title = "mutated"

	if local.Notes[0].Title != "local" || remote.Notes[0].Title != "remote" {
		t.Errorf("merge result must not alias its inputs")
	}
}

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/storage/github"
	"github.com/taskflow/taskflow/internal/store"
)

// fakeRemote is an in-memory Remote with controllable failures.
type fakeRemote struct {
	configured bool
	content    string
	sha        int

	getErr  error
	saveErr error

	saves   int
	lastMsg string

	block chan struct{} // when set, GetFile blocks until closed
}

func (f *fakeRemote) IsConfigured() bool { return f.configured }

func (f *fakeRemote) GetFile(ctx context.Context, path string) (*github.File, error) {
	if f.block != nil {
		<-f.block
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.content == "" {
		return nil, github.ErrNotFound
	}
	return &github.File{Content: f.content, SHA: fmt.Sprintf("sha-%d", f.sha)}, nil
}

func (f *fakeRemote) SaveFile(ctx context.Context, path, content, message, sha string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.content = content
	f.sha++
	f.saves++
	f.lastMsg = message
	return nil
}

// fakeLocal records what the syncer persists.
type fakeLocal struct {
	state    *schema.AppState
	lastSync int64
	saveErr  error
}

func (f *fakeLocal) SaveState(ctx context.Context, state *schema.AppState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state = state.Clone()
	return nil
}

func (f *fakeLocal) SaveLastSync(ctx context.Context, at int64) error {
	f.lastSync = at
	return nil
}

func remoteDoc(t *testing.T, state *schema.AppState) string {
	t.Helper()
	data, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSyncFirstTimePushesToEmptyRemote(t *testing.T) {
	board := store.New(store.Options{})
	board.CreateTask("only local", "")
	remote := &fakeRemote{configured: true}
	local := &fakeLocal{}

	s := NewSyncer(board, remote, local, nil)
	if err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync); err != nil {
		t.Fatal(err)
	}

	if remote.saves != 1 {
		t.Fatalf("expected one push, got %d", remote.saves)
	}
	var pushed schema.AppState
	if err := json.Unmarshal([]byte(remote.content), &pushed); err != nil {
		t.Fatal(err)
	}
	if len(pushed.Tasks) != 1 || pushed.Tasks[0].Title != "only local" {
		t.Errorf("pushed document should carry the local board: %+v", pushed.Tasks)
	}
	if s.Status() != StatusSynced {
		t.Errorf("status should be synced, got %s", s.Status())
	}
	if local.lastSync == 0 {
		t.Errorf("last sync time should be persisted")
	}
}

func TestSyncMergesRemoteIntoBoard(t *testing.T) {
	board := store.New(store.Options{})
	remote := &fakeRemote{
		configured: true,
		content: remoteDoc(t, &schema.AppState{
			Notes: []schema.Note{{ID: "id_9_r", Title: "from remote", UpdatedAt: 100}},
		}),
	}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)
	if err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync); err != nil {
		t.Fatal(err)
	}

	notes := board.Notes()
	if len(notes) != 1 || notes[0].Title != "from remote" {
		t.Errorf("remote notes should land in the board: %+v", notes)
	}
}

func TestSyncPullFailureLeavesBoardUntouched(t *testing.T) {
	board := store.New(store.Options{})
	board.CreateTask("keep me", "")
	remote := &fakeRemote{configured: true, getErr: errors.New("network down")}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)
	err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync)
	if err == nil {
		t.Fatal("sync should fail when the pull fails")
	}
	if s.Status() != StatusError {
		t.Errorf("status should be error, got %s", s.Status())
	}
	if remote.saves != 0 {
		t.Errorf("nothing should be pushed after a failed pull")
	}
	if len(board.Tasks()) != 1 {
		t.Errorf("board should be untouched after a failed pull")
	}
}

func TestSyncPushFailureKeepsMergedState(t *testing.T) {
	board := store.New(store.Options{})
	remote := &fakeRemote{
		configured: true,
		content: remoteDoc(t, &schema.AppState{
			Notes: []schema.Note{{ID: "id_9_r", Title: "pulled", UpdatedAt: 100}},
		}),
		saveErr: github.ErrStaleContent,
	}
	local := &fakeLocal{}

	s := NewSyncer(board, remote, local, nil)
	err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync)
	if !errors.Is(err, github.ErrStaleContent) {
		t.Fatalf("expected stale-content error, got %v", err)
	}

	if s.Status() != StatusError {
		t.Errorf("status should be error after a failed push, got %s", s.Status())
	}
	// The merge result survives both in memory and on disk.
	if len(board.Notes()) != 1 {
		t.Errorf("merged state should stay in the board")
	}
	if local.state == nil || len(local.state.Notes) != 1 {
		t.Errorf("merged state should be persisted locally before the push")
	}
}

func TestSyncSingleFlight(t *testing.T) {
	board := store.New(store.Options{})
	remote := &fakeRemote{configured: true, block: make(chan struct{})}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Sync(context.Background(), SmartMerge{}, MessageManualSync)
	}()

	// Wait for the first sync to be inside the pull.
	deadline := time.After(2 * time.Second)
	for s.Status() != StatusSyncing {
		select {
		case <-deadline:
			t.Fatal("first sync never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("concurrent sync should fail fast with ErrSyncInProgress, got %v", err)
	}

	close(remote.block)
	if err := <-done; err != nil {
		t.Fatalf("first sync should complete: %v", err)
	}
}

func TestSyncUnconfiguredRemote(t *testing.T) {
	board := store.New(store.Options{})
	s := NewSyncer(board, &fakeRemote{}, &fakeLocal{}, nil)

	if err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync); !errors.Is(err, ErrRemoteNotConfigured) {
		t.Errorf("expected ErrRemoteNotConfigured, got %v", err)
	}
	if err := s.Push(context.Background(), MessageAutoSave); !errors.Is(err, ErrRemoteNotConfigured) {
		t.Errorf("expected ErrRemoteNotConfigured from Push, got %v", err)
	}
}

func TestPullDoesNotPush(t *testing.T) {
	board := store.New(store.Options{})
	remote := &fakeRemote{
		configured: true,
		content:    remoteDoc(t, &schema.AppState{Notes: []schema.Note{{ID: "id_9_r", Title: "n", UpdatedAt: 1}}}),
	}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)
	if err := s.Pull(context.Background(), SmartMerge{}); err != nil {
		t.Fatal(err)
	}

	if remote.saves != 0 {
		t.Errorf("pull must not push")
	}
	if s.Status() != StatusLocal {
		t.Errorf("pull should end in local status, got %s", s.Status())
	}
}

func TestPushUsesAutoSaveMessage(t *testing.T) {
	board := store.New(store.Options{})
	board.CreateNote("saved")
	remote := &fakeRemote{configured: true}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)
	if err := s.Push(context.Background(), MessageAutoSave); err != nil {
		t.Fatal(err)
	}
	if remote.lastMsg != MessageAutoSave {
		t.Errorf("expected commit message %q, got %q", MessageAutoSave, remote.lastMsg)
	}
}

func TestOnStatusChangeSequence(t *testing.T) {
	board := store.New(store.Options{})
	remote := &fakeRemote{configured: true}

	s := NewSyncer(board, remote, &fakeLocal{}, nil)

	var transitions []Status
	s.OnStatusChange(func(st Status) { transitions = append(transitions, st) })

	if err := s.Sync(context.Background(), SmartMerge{}, MessageManualSync); err != nil {
		t.Fatal(err)
	}

	want := []Status{StatusSyncing, StatusSynced}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: want %s, got %s", i, want[i], transitions[i])
		}
	}
}

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/storage/github"
	"github.com/taskflow/taskflow/internal/storage/local"
	"github.com/taskflow/taskflow/internal/store"
	"github.com/taskflow/taskflow/internal/sync"
)

// fakeGitHub is a contents-API stub that counts pushes and records the last
// document written.
type fakeGitHub struct {
	puts    atomic.Int64
	lastDoc atomic.Value // string
}

func (f *fakeGitHub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.lastDoc.Store(body.Content)
			f.puts.Add(1)
			w.WriteHeader(http.StatusCreated)
		}
	}
}

// newTestApp wires an app over a temp database and a stubbed remote.
func newTestApp(t *testing.T, fake *fakeGitHub) *app {
	t.Helper()

	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	localStore, err := local.Open(filepath.Join(t.TempDir(), "taskflow.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { localStore.Close() })

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	remote := github.NewClient(
		github.Config{Token: "tok", Repo: "owner/repo"},
		github.ClientOptions{BaseURL: server.URL, HTTPClient: server.Client(), Logger: logger},
	)

	board := store.New(store.Options{})
	return &app{
		local:  localStore,
		board:  board,
		remote: remote,
		syncer: sync.NewSyncer(board, remote, localStore, logger),
		logger: logger,
	}
}

func TestSavePushesWhenConfigured(t *testing.T) {
	fake := &fakeGitHub{}
	a := newTestApp(t, fake)
	ctx := context.Background()

	a.board.CreateNote("pushed note")
	if err := a.save(ctx); err != nil {
		t.Fatal(err)
	}

	if got := fake.puts.Load(); got != 1 {
		t.Fatalf("save should push once when a remote is configured, got %d", got)
	}
	if state, found, err := a.local.LoadState(ctx); err != nil || !found || len(state.Notes) != 1 {
		t.Errorf("save should also persist locally: found=%v err=%v", found, err)
	}
}

func TestImportNoteFilePushes(t *testing.T) {
	fake := &fakeGitHub{}
	a := newTestApp(t, fake)
	ctx := context.Background()

	err := a.importNoteFile(ctx, filepath.Join("inbox", "Meeting Notes.md"), []byte("# agenda"))
	if err != nil {
		t.Fatal(err)
	}

	notes := a.board.Notes()
	if len(notes) != 1 || notes[0].Title != "Meeting Notes" {
		t.Fatalf("import should create the note: %+v", notes)
	}

	// The import goes through the same save path as CLI mutations: local
	// persistence plus an immediate push, not a wait for the next periodic
	// sync.
	if got := fake.puts.Load(); got != 1 {
		t.Fatalf("inbox import should push immediately, got %d pushes", got)
	}
	decoded, err := base64.StdEncoding.DecodeString(fake.lastDoc.Load().(string))
	if err != nil {
		t.Fatal(err)
	}
	var state schema.AppState
	if err := json.Unmarshal(decoded, &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Notes) != 1 || state.Notes[0].Title != "Meeting Notes" {
		t.Errorf("pushed document should carry the imported note: %+v", state.Notes)
	}

	if _, found, _ := a.local.LoadState(ctx); !found {
		t.Errorf("import should persist locally as well")
	}
}

func TestImportNoteFileRejectsBadPayload(t *testing.T) {
	fake := &fakeGitHub{}
	a := newTestApp(t, fake)

	err := a.importNoteFile(context.Background(), "bad.json", []byte("{not json"))
	if err == nil {
		t.Fatal("malformed import should error so the inbox keeps the file")
	}
	if got := fake.puts.Load(); got != 0 {
		t.Errorf("failed import must not push, got %d pushes", got)
	}
}

package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collector is a threadsafe ImportFunc for tests.
type collector struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func newCollector() *collector {
	return &collector{files: make(map[string]string)}
}

func (c *collector) imp(path string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.files[filepath.Base(path)] = string(data)
	return nil
}

func (c *collector) get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.files[name]
	return v, ok
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	c := newCollector()

	w, err := New(dir, c.imp, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher a moment to arm before dropping the file.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "idea.md")
	if err := os.WriteFile(path, []byte("# Idea\n\nbody"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool {
		content, ok := c.get("idea.md")
		return ok && content == "# Idea\n\nbody"
	})

	// The file moves to processed/ after import.
	waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(dir, "processed", "idea.md"))
		return err == nil
	})
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("imported file should be moved out of the inbox")
	}
}

func TestWatcherSweepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "already-here.txt"), []byte("waiting"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newCollector()
	w, err := New(dir, c.imp, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	waitFor(t, 5*time.Second, func() bool {
		_, ok := c.get("already-here.txt")
		return ok
	})
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	c := newCollector()
	w, err := New(dir, c.imp, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "real.txt"), []byte("yes"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool {
		_, ok := c.get("real.txt")
		return ok
	})
	if _, ok := c.get("photo.png"); ok {
		t.Errorf("non-note files should be ignored")
	}
}

func TestWatcherLeavesFailedImports(t *testing.T) {
	dir := t.TempDir()
	c := newCollector()
	c.err = os.ErrInvalid

	w, err := New(dir, c.imp, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "bad.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait past the settle delay plus processing, then confirm the file is
	// still in place for a retry.
	time.Sleep(settleDelay + 500*time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("failed import should leave the file in the inbox: %v", err)
	}
}

// Package inbox watches a drop directory for note files. Any .json, .md, or
// .txt file placed there is imported as a new note and then moved into a
// processed/ subdirectory, so the same file is never imported twice.
package inbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must be quiet before it is imported.
// Editors and copies often write in several bursts; importing on the first
// event would read a half-written file.
const settleDelay = 500 * time.Millisecond

// ImportFunc receives the contents of a dropped file. Returning an error
// leaves the file in place for a later retry.
type ImportFunc func(path string, data []byte) error

// Watcher imports note files dropped into a directory.
type Watcher struct {
	dir       string
	importFn  ImportFunc
	logger    *log.Logger
	watcher   *fsnotify.Watcher
	processed string

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. The directory and its processed/
// subdirectory are created if missing.
func New(dir string, importFn ImportFunc, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[inbox] ", log.LstdFlags)
	}

	processed := filepath.Join(dir, "processed")
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inbox directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:       dir,
		importFn:  importFn,
		logger:    logger,
		watcher:   fsw,
		processed: processed,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run processes events until ctx is canceled. Files already present when
// Run starts are imported first.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	w.sweep()
	w.logger.Printf("watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !importable(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

// sweep imports files that were dropped while the watcher was not running.
func (w *Watcher) sweep() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Printf("failed to scan inbox: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !importable(e.Name()) {
			continue
		}
		w.process(filepath.Join(w.dir, e.Name()))
	}
}

// schedule (re)arms the settle timer for path. Every new event pushes the
// import further out until the file stops changing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Printf("failed to read %s: %v", path, err)
		}
		return
	}

	if err := w.importFn(path, data); err != nil {
		w.logger.Printf("failed to import %s: %v", filepath.Base(path), err)
		return
	}

	dest := filepath.Join(w.processed, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Printf("imported %s but failed to archive it: %v", filepath.Base(path), err)
		return
	}
	w.logger.Printf("imported %s", filepath.Base(path))
}

func importable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".md", ".markdown", ".txt":
		return true
	}
	return false
}

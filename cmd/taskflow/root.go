package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/storage/github"
	"github.com/taskflow/taskflow/internal/storage/local"
	"github.com/taskflow/taskflow/internal/store"
	"github.com/taskflow/taskflow/internal/sync"
	"github.com/taskflow/taskflow/internal/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Local-first task board and notes with GitHub sync",
	Long: `TaskFlow keeps a task board and notes on your machine, records a
bounded version history for every item, and optionally syncs the whole
document to a file in a GitHub repository so several devices can share it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.taskflow/config.yaml)")
}

// app wires the pieces every command needs. Close when done.
type app struct {
	cfg    *config.Config
	local  *local.Store
	board  *store.Store
	remote *github.Client
	syncer sync.Syncer
	logger *log.Logger
}

// openApp loads config, opens the local store, and hydrates the board from
// it. The remote client is always built; it reports unconfigured when no
// remote has been set up.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "[taskflow] ", log.LstdFlags)

	localStore, err := local.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return nil, err
	}

	board := store.New(store.Options{})
	if state, found, err := localStore.LoadState(ctx); err != nil {
		localStore.Close()
		return nil, err
	} else if found {
		board.Replace(state)
	}

	remoteCfg, err := github.LoadConfig(ctx, localStore)
	if err != nil {
		localStore.Close()
		return nil, err
	}
	remote := github.NewClient(remoteCfg, github.ClientOptions{Logger: logger})

	syncer := sync.NewSyncer(board, remote, localStore, logger)
	if at, found, err := localStore.LoadLastSync(ctx); err == nil && found {
		syncer.SetLastSync(time.UnixMilli(at))
	}

	return &app{
		cfg:    cfg,
		local:  localStore,
		board:  board,
		remote: remote,
		syncer: syncer,
		logger: logger,
	}, nil
}

func (a *app) Close() error {
	return a.local.Close()
}

// save persists the board locally and, when a remote is configured, pushes
// the document. A failed push is reported but never blocks the local save;
// the board stays in local status until the next successful sync.
func (a *app) save(ctx context.Context) error {
	state := a.board.Snapshot()
	if err := a.local.SaveState(ctx, state); err != nil {
		return err
	}

	if !a.remote.IsConfigured() {
		return nil
	}
	if err := a.syncer.Push(ctx, sync.MessageAutoSave); err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			return nil
		}
		fmt.Printf("%s Saved locally; push failed: %v\n", ui.RenderWarn("⚠"), err)
	}
	return nil
}

// importNoteFile imports a dropped file as a new note and persists through
// the same save path as every other mutation, so a configured remote sees
// the note immediately rather than on the next periodic sync.
func (a *app) importNoteFile(ctx context.Context, path string, data []byte) error {
	title, content, err := export.ParseNoteImport(filepath.Base(path), data)
	if err != nil {
		return err
	}
	a.board.ImportNote(title, content)
	return a.save(ctx)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskflow/taskflow/internal/dashboard"
	"github.com/taskflow/taskflow/internal/inbox"
	"github.com/taskflow/taskflow/internal/sync"
	"github.com/taskflow/taskflow/internal/ui"
)

var (
	servePort    int
	serveLogFile string
	serveNoInbox bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the TaskFlow server: dashboard, inbox watcher, periodic sync",
	Long: `Run TaskFlow as a long-lived process.

The server exposes a WebSocket dashboard with the live board, watches the
inbox directory for dropped note files, and syncs with the configured
remote every sync interval. Stop it with Ctrl-C.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		logger := a.logger
		logFile := serveLogFile
		if logFile == "" {
			logFile = a.cfg.LogFile
		}
		if logFile != "" {
			logger = log.New(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     30, // days
			}, "[taskflow] ", log.LstdFlags)
		}

		// Fold in remote changes before serving anything.
		if a.remote.IsConfigured() {
			if err := a.syncer.Pull(ctx, sync.SmartMerge{}); err != nil {
				logger.Printf("initial pull failed: %v", err)
			}
		}

		port := servePort
		if port == 0 {
			port = a.cfg.DashboardPort
		}
		var handler *dashboard.Handler
		server := dashboard.NewServer(&dashboard.Config{
			Port:     port,
			Logger:   logger,
			Snapshot: func() json.RawMessage { return handler.Snapshot() },
		})
		handler = dashboard.NewHandler(server, a.board, logger)

		a.board.OnChange(handler.OnChange)
		a.syncer.OnStatusChange(handler.OnSyncStatus)

		if err := server.Start(); err != nil {
			fail(err)
		}
		defer server.Stop()
		fmt.Printf("%s Dashboard on http://localhost%s\n", ui.RenderAccent("🚀"), server.Addr())

		if !serveNoInbox {
			watcher, err := inbox.New(a.cfg.InboxDir, func(path string, data []byte) error {
				return a.importNoteFile(ctx, path, data)
			}, logger)
			if err != nil {
				fail(err)
			}
			go watcher.Run(ctx)
			fmt.Printf("%s Watching inbox %s\n", ui.RenderAccent("📥"), watcher.Dir())
		}

		if a.remote.IsConfigured() {
			go a.syncer.Run(ctx, a.cfg.SyncInterval)
			fmt.Printf("%s Syncing with %s every %s\n", ui.RenderAccent("🔄"), a.remote.Repo(), a.cfg.SyncInterval)
		} else {
			fmt.Printf("%s No remote configured; running locally\n", ui.RenderWarn("⚠"))
		}

		<-ctx.Done()
		fmt.Printf("\n%s Shutting down\n", ui.RenderAccent("👋"))

		// Final local save so nothing imported or merged is lost.
		if err := a.local.SaveState(context.Background(), a.board.Snapshot()); err != nil {
			logger.Printf("final save failed: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "dashboard port (default from config)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "write logs to a rotating file instead of stderr")
	serveCmd.Flags().BoolVar(&serveNoInbox, "no-inbox", false, "disable the inbox watcher")
	rootCmd.AddCommand(serveCmd)
}

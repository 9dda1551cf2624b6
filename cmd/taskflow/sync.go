package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/sync"
	"github.com/taskflow/taskflow/internal/ui"
)

var syncStrategy string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the board with the configured GitHub repository",
	Long: `Pull the remote document, merge it with the local board, and push
the result.

Strategies:
  smart    per-note last-writer-wins merge; safest across devices (default)
  replace  adopt the remote document wholesale when it has any content`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		var strategy sync.Strategy
		switch syncStrategy {
		case "smart":
			strategy = sync.SmartMerge{}
		case "replace":
			strategy = sync.Replace{}
		default:
			fail(fmt.Errorf("unknown strategy %q; use smart or replace", syncStrategy))
		}

		fmt.Printf("%s Syncing with %s...\n", ui.RenderAccent("🔄"), a.remote.Repo())
		start := time.Now()
		if err := a.syncer.Sync(ctx, strategy, sync.MessageManualSync); err != nil {
			fail(err)
		}

		st := a.board.Stats()
		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		fmt.Printf("   Tasks: %d\n", st.Tasks)
		fmt.Printf("   Notes: %d\n", st.Notes)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync configuration and last sync time",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		fmt.Printf("\n%s Sync Status\n\n", ui.RenderAccent("📊"))
		if !a.remote.IsConfigured() {
			fmt.Printf("%s No remote configured\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'taskflow remote setup' to connect a repository\n\n")
			return
		}

		fmt.Printf("   Repository: %s\n", a.remote.Repo())
		if last := a.syncer.LastSync(); !last.IsZero() {
			fmt.Printf("   Last sync:  %s\n", last.Format("Jan 2, 2006, 03:04 PM"))
		} else {
			fmt.Printf("   Last sync:  %s\n", ui.RenderDim("never"))
		}
		fmt.Println()
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncStrategy, "strategy", "smart", "merge strategy (smart, replace)")
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

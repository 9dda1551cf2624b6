package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/ui"
)

var dataClearYes bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a full backup of the board to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		backup := export.NewBackup(a.board.Snapshot())
		out := export.DefaultBackupName(backup.ExportedAt)
		if len(args) > 0 {
			out = args[0]
		}
		if err := export.WriteBackup(out, backup); err != nil {
			fail(err)
		}
		fmt.Printf("%s Exported %d tasks and %d notes to %s\n",
			ui.RenderPass("✓"), len(backup.Tasks), len(backup.Notes), out)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the board with a previously exported backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		backup, err := export.ReadBackup(args[0])
		if err != nil {
			fail(err)
		}

		a.board.Replace(backup.State())
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		st := a.board.Stats()
		fmt.Printf("%s Imported %d tasks and %d notes\n", ui.RenderPass("✓"), st.Tasks, st.Notes)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show board counts",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		st := a.board.Stats()
		fmt.Printf("\n%s Board\n\n", ui.RenderAccent("📊"))
		fmt.Printf("   Tasks:    %d\n", st.Tasks)
		for _, status := range []schema.Status{schema.StatusTodo, schema.StatusInProgress, schema.StatusDone} {
			if n := st.ByStatus[status]; n > 0 {
				fmt.Printf("     %s %d\n", ui.StatusBadge(string(status)), n)
			}
		}
		fmt.Printf("   Notes:    %d\n", st.Notes)
		fmt.Printf("   Versions: %d\n", st.Versions)
		fmt.Printf("   Database: %s\n\n", a.local.Path())
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all tasks, notes, and history",
	Long: `Reset the board to empty. This deletes every task, note, and
version snapshot from the local store. The remote document is not touched
until the next sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if !dataClearYes {
			fmt.Printf("%s This deletes all local data. Type 'yes' to continue: ", ui.RenderWarn("⚠"))
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Println("Aborted.")
				return
			}
		}

		a.board.Clear()
		if err := a.local.SaveState(ctx, a.board.Snapshot()); err != nil {
			fail(err)
		}
		fmt.Printf("%s Board cleared\n", ui.RenderPass("✓"))
	},
}

func init() {
	clearCmd.Flags().BoolVar(&dataClearYes, "yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
}

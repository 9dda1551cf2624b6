package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history <item-id>",
	Short: "Show an item's version history, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		versions := a.board.ListVersions(args[0])
		if len(versions) == 0 {
			fmt.Println(ui.RenderDim("No history for this item."))
			return
		}

		for i := range versions {
			v := &versions[i]
			label := versionLabel(v)
			fmt.Printf("%s %s %s\n", ui.RenderDim(export.FormatTimestamp(v.CreatedAt)), label, ui.RenderDim(v.ID))
		}
	},
}

// versionLabel summarizes a snapshot for list output.
func versionLabel(v *schema.Version) string {
	switch v.ItemType {
	case schema.ItemTask:
		task, err := v.Task()
		if err != nil {
			return ui.RenderWarn("(unreadable snapshot)")
		}
		return fmt.Sprintf("%s %s", ui.StatusBadge(string(task.Status)), task.Title)
	case schema.ItemNote:
		note, err := v.Note()
		if err != nil {
			return ui.RenderWarn("(unreadable snapshot)")
		}
		return note.Title
	}
	return string(v.ItemType)
}

var revertCmd = &cobra.Command{
	Use:   "revert <version-id>",
	Short: "Restore an item to a previous version",
	Long: `Restore a task or note to the state captured in a version snapshot.

The item's current state is recorded as a new version first, so a revert
can itself be reverted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if !a.board.Revert(args[0]) {
			fail(fmt.Errorf("version %s not found, or its item no longer exists", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Reverted\n", ui.RenderPass("✓"))
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(revertCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/store"
	"github.com/taskflow/taskflow/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage board tasks",
}

var (
	taskAddStatus  string
	taskAddDesc    string
	taskListStatus string
	taskSetTitle   string
	taskSetDesc    string
	taskSetStatus  string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		task, err := a.board.CreateTask(args[0], schema.Status(taskAddStatus))
		if err != nil {
			fail(err)
		}
		if taskAddDesc != "" {
			desc := taskAddDesc
			task, _ = a.board.UpdateTask(task.ID, store.TaskUpdate{Description: &desc})
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}

		fmt.Printf("%s Added %s %s\n", ui.RenderPass("✓"), ui.RenderTitle(task.Title), ui.RenderDim(task.ID))
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, optionally filtered by status",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		tasks := a.board.Tasks()
		shown := 0
		for i := range tasks {
			t := &tasks[i]
			if taskListStatus != "" && string(t.Status) != taskListStatus {
				continue
			}
			shown++
			fmt.Printf("%s %s %s\n", ui.StatusBadge(string(t.Status)), ui.RenderTitle(t.Title), ui.RenderDim(t.ID))
			if t.Description != "" {
				fmt.Printf("    %s\n", t.Description)
			}
			if len(t.Comments) > 0 {
				fmt.Printf("    %s\n", ui.RenderDim(fmt.Sprintf("%d comment(s)", len(t.Comments))))
			}
		}
		if shown == 0 {
			fmt.Println(ui.RenderDim("No tasks."))
		}
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task with its comments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		task, ok := a.board.Task(args[0])
		if !ok {
			fail(fmt.Errorf("task %s not found", args[0]))
		}

		fmt.Printf("%s %s\n", ui.StatusBadge(string(task.Status)), ui.RenderTitle(task.Title))
		fmt.Printf("%s\n", ui.RenderDim(task.ID))
		if task.Description != "" {
			fmt.Printf("\n%s\n", task.Description)
		}
		fmt.Printf("\nCreated: %s\n", export.FormatTimestamp(task.CreatedAt))
		fmt.Printf("Updated: %s\n", export.FormatTimestamp(task.UpdatedAt))
		if len(task.Comments) > 0 {
			fmt.Printf("\nComments:\n")
			for _, c := range task.Comments {
				fmt.Printf("  - %s %s\n", c.Content, ui.RenderDim(fmt.Sprintf("(%s, %s)", export.FormatTimestamp(c.CreatedAt), c.ID)))
			}
		}
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task's title, description, or status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		upd := store.TaskUpdate{}
		if cmd.Flags().Changed("title") {
			upd.Title = &taskSetTitle
		}
		if cmd.Flags().Changed("description") {
			upd.Description = &taskSetDesc
		}
		if cmd.Flags().Changed("status") {
			status := schema.Status(taskSetStatus)
			if !status.Valid() {
				fail(fmt.Errorf("unknown status %q", taskSetStatus))
			}
			upd.Status = &status
		}
		if upd.Title == nil && upd.Description == nil && upd.Status == nil {
			fail(fmt.Errorf("nothing to update; pass --title, --description, or --status"))
		}

		task, ok := a.board.UpdateTask(args[0], upd)
		if !ok {
			fail(fmt.Errorf("task %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), ui.RenderTitle(task.Title))
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		status := schema.StatusDone
		task, ok := a.board.UpdateTask(args[0], store.TaskUpdate{Status: &status})
		if !ok {
			fail(fmt.Errorf("task %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Done: %s\n", ui.RenderPass("✓"), ui.RenderTitle(task.Title))
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task and its version history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if !a.board.DeleteTask(args[0]) {
			fail(fmt.Errorf("task %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), ui.RenderDim(args[0]))
	},
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage task comments",
}

var taskCommentAddCmd = &cobra.Command{
	Use:   "add <task-id> <content>",
	Short: "Add a comment to a task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		task, ok := a.board.AddComment(args[0], args[1])
		if !ok {
			fail(fmt.Errorf("task %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Commented on %s\n", ui.RenderPass("✓"), ui.RenderTitle(task.Title))
	},
}

var taskCommentRemoveCmd = &cobra.Command{
	Use:   "remove <task-id> <comment-id>",
	Short: "Remove a comment from a task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		task, ok := a.board.RemoveComment(args[0], args[1])
		if !ok {
			fail(fmt.Errorf("task %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Removed comment from %s\n", ui.RenderPass("✓"), ui.RenderTitle(task.Title))
	},
}

var taskSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tasks by title and description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		tasks := a.board.SearchTasks(args[0])
		if len(tasks) == 0 {
			fmt.Println(ui.RenderDim("No matches."))
			return
		}
		for i := range tasks {
			t := &tasks[i]
			fmt.Printf("%s %s %s\n", ui.StatusBadge(string(t.Status)), ui.RenderTitle(t.Title), ui.RenderDim(t.ID))
		}
	},
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddStatus, "status", "todo", "initial status (todo, in-progress, done)")
	taskAddCmd.Flags().StringVar(&taskAddDesc, "description", "", "task description")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "only show tasks with this status")
	taskUpdateCmd.Flags().StringVar(&taskSetTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVar(&taskSetDesc, "description", "", "new description")
	taskUpdateCmd.Flags().StringVar(&taskSetStatus, "status", "", "new status (todo, in-progress, done)")

	taskCommentCmd.AddCommand(taskCommentAddCmd)
	taskCommentCmd.AddCommand(taskCommentRemoveCmd)

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskCommentCmd)
	taskCmd.AddCommand(taskSearchCmd)
	rootCmd.AddCommand(taskCmd)
}

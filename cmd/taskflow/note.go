package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/store"
	"github.com/taskflow/taskflow/internal/ui"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var (
	noteAddContent   string
	noteEditTitle    string
	noteEditContent  string
	noteExportFormat string
	noteExportOut    string
)

var noteAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a note",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		title := ""
		if len(args) > 0 {
			title = args[0]
		}
		note := a.board.CreateNote(title)
		if noteAddContent != "" {
			content := noteAddContent
			note, _ = a.board.UpdateNote(note.ID, store.NoteUpdate{Content: &content})
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Created %s %s\n", ui.RenderPass("✓"), ui.RenderTitle(note.Title), ui.RenderDim(note.ID))
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		notes := a.board.Notes()
		if len(notes) == 0 {
			fmt.Println(ui.RenderDim("No notes."))
			return
		}
		for i := range notes {
			n := &notes[i]
			fmt.Printf("%s %s %s\n", ui.RenderTitle(n.Title), ui.RenderDim(n.ID),
				ui.RenderDim(export.FormatTimestamp(n.UpdatedAt)))
		}
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		note, ok := a.board.Note(args[0])
		if !ok {
			fail(fmt.Errorf("note %s not found", args[0]))
		}
		fmt.Printf("%s\n%s\n\n%s\n", ui.RenderTitle(note.Title), ui.RenderDim(note.ID), note.Content)
		fmt.Printf("\n%s\n", ui.RenderDim("Last updated: "+export.FormatTimestamp(note.UpdatedAt)))
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update a note's title or content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		upd := store.NoteUpdate{}
		if cmd.Flags().Changed("title") {
			upd.Title = &noteEditTitle
		}
		if cmd.Flags().Changed("content") {
			upd.Content = &noteEditContent
		}
		if upd.Title == nil && upd.Content == nil {
			fail(fmt.Errorf("nothing to update; pass --title or --content"))
		}

		note, ok := a.board.UpdateNote(args[0], upd)
		if !ok {
			fail(fmt.Errorf("note %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), ui.RenderTitle(note.Title))
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note and its version history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if !a.board.DeleteNote(args[0]) {
			fail(fmt.Errorf("note %s not found", args[0]))
		}
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), ui.RenderDim(args[0]))
	},
}

var noteSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by title and content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		notes := a.board.SearchNotes(args[0])
		if len(notes) == 0 {
			fmt.Println(ui.RenderDim("No matches."))
			return
		}
		for i := range notes {
			n := &notes[i]
			fmt.Printf("%s %s\n", ui.RenderTitle(n.Title), ui.RenderDim(n.ID))
		}
	},
}

var noteExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a note to a JSON or markdown file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		note, ok := a.board.Note(args[0])
		if !ok {
			fail(fmt.Errorf("note %s not found", args[0]))
		}

		var data []byte
		ext := "md"
		switch noteExportFormat {
		case "json":
			ext = "json"
			data, err = export.MarshalNoteJSON(note)
			if err != nil {
				fail(err)
			}
		case "md", "markdown":
			data = export.MarshalNoteMarkdown(note)
		default:
			fail(fmt.Errorf("unknown format %q; use json or md", noteExportFormat))
		}

		out := noteExportOut
		if out == "" {
			out = fmt.Sprintf("%s.%s", export.SanitizeFilename(note.Title), ext)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			fail(fmt.Errorf("failed to write %s: %w", out, err))
		}
		fmt.Printf("%s Exported to %s\n", ui.RenderPass("✓"), out)
	},
}

var noteImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON, markdown, or text file as a new note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fail(fmt.Errorf("failed to read %s: %w", args[0], err))
		}
		title, content, err := export.ParseNoteImport(filepath.Base(args[0]), data)
		if err != nil {
			fail(err)
		}

		note := a.board.ImportNote(title, content)
		if err := a.save(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("%s Imported %s %s\n", ui.RenderPass("✓"), ui.RenderTitle(note.Title), ui.RenderDim(note.ID))
	},
}

func init() {
	noteAddCmd.Flags().StringVar(&noteAddContent, "content", "", "note body")
	noteEditCmd.Flags().StringVar(&noteEditTitle, "title", "", "new title")
	noteEditCmd.Flags().StringVar(&noteEditContent, "content", "", "new body")
	noteExportCmd.Flags().StringVar(&noteExportFormat, "format", "md", "export format (json, md)")
	noteExportCmd.Flags().StringVar(&noteExportOut, "out", "", "output file (default derived from title)")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteDeleteCmd)
	noteCmd.AddCommand(noteSearchCmd)
	noteCmd.AddCommand(noteExportCmd)
	noteCmd.AddCommand(noteImportCmd)
	rootCmd.AddCommand(noteCmd)
}

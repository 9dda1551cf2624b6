package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskflow/taskflow/internal/schema"
)

// NoteExport is a single note exported to JSON.
type NoteExport struct {
	schema.Note
	ExportedAt int64  `json:"exportedAt"`
	Version    string `json:"version"`
}

// NewNoteExport packages a note for export.
func NewNoteExport(n *schema.Note) *NoteExport {
	return &NoteExport{
		Note:       *n.Clone(),
		ExportedAt: schema.Now(),
		Version:    FormatVersion,
	}
}

// MarshalNoteJSON encodes a note export as indented JSON.
func MarshalNoteJSON(n *schema.Note) ([]byte, error) {
	data, err := json.MarshalIndent(NewNoteExport(n), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode note: %w", err)
	}
	return data, nil
}

// MarshalNoteMarkdown renders a note as a standalone markdown document with
// a trailing last-updated footer.
func MarshalNoteMarkdown(n *schema.Note) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	b.WriteString(n.Content)
	fmt.Fprintf(&b, "\n\n---\n*Last updated: %s*\n", FormatTimestamp(n.UpdatedAt))
	return []byte(b.String())
}

// FormatTimestamp renders an epoch-millisecond timestamp for display,
// e.g. "Aug 28, 2026, 03:04 PM".
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("Jan 2, 2006, 03:04 PM")
}

// FormatDate renders an epoch-millisecond timestamp as YYYY-MM-DD.
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}

// SanitizeFilename turns a note title into a safe file name: every run of
// characters outside [a-zA-Z0-9] becomes a single underscore.
func SanitizeFilename(title string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "note"
	}
	return out
}

// ParseNoteImport interprets an imported file as a note. JSON files must
// carry at least a title or content field; markdown and plain text become
// the note body with the file name (extension stripped) as the title.
func ParseNoteImport(path string, data []byte) (title, content string, err error) {
	switch Ext(path) {
	case "json":
		var payload struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if payload.Title == nil && payload.Content == nil {
			return "", "", fmt.Errorf("%w: missing title and content", ErrInvalidFormat)
		}
		if payload.Title != nil {
			title = *payload.Title
		}
		if payload.Content != nil {
			content = *payload.Content
		}
		return title, content, nil

	case "md", "markdown", "txt", "":
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
		return title, string(data), nil

	default:
		return "", "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidFormat, Ext(path))
	}
}

package export

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taskflow/taskflow/internal/schema"
)

func sampleState() *schema.AppState {
	return &schema.AppState{
		Tasks: []schema.Task{{ID: "id_1_a", Title: "t", Status: schema.StatusTodo, Comments: []schema.Comment{}}},
		Notes: []schema.Note{{ID: "id_2_a", Title: "n", Content: "body", UpdatedAt: 1724800000000}},
		Versions: []schema.Version{},
	}
}

func TestBackupRoundTrip(t *testing.T) {
	backup := NewBackup(sampleState())
	if backup.Version != FormatVersion {
		t.Errorf("backup should carry format version, got %q", backup.Version)
	}
	if backup.ExportedAt == 0 {
		t.Errorf("backup should be timestamped")
	}

	data, err := MarshalBackup(backup)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := UnmarshalBackup(data)
	if err != nil {
		t.Fatal(err)
	}

	state := loaded.State()
	if len(state.Tasks) != 1 || state.Tasks[0].Title != "t" {
		t.Errorf("tasks did not round-trip")
	}
	if len(state.Notes) != 1 || state.Notes[0].Content != "body" {
		t.Errorf("notes did not round-trip")
	}
}

func TestUnmarshalBackupRejectsForeignJSON(t *testing.T) {
	for _, payload := range []string{
		`{}`,
		`{"version":"1.0"}`,
		`{"items":[1,2,3]}`,
		`not json at all`,
	} {
		if _, err := UnmarshalBackup([]byte(payload)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("payload %q: expected ErrInvalidFormat, got %v", payload, err)
		}
	}
}

func TestUnmarshalBackupAcceptsPartial(t *testing.T) {
	// Either collection alone marks the file as ours; the other comes back
	// empty, not nil.
	loaded, err := UnmarshalBackup([]byte(`{"notes":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Tasks == nil || loaded.Versions == nil {
		t.Errorf("absent collections should normalize to empty")
	}
}

func TestWriteReadBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := WriteBackup(path, NewBackup(sampleState())); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadBackup(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Tasks) != 1 {
		t.Errorf("backup file did not round-trip")
	}
}

func TestMarshalNoteMarkdown(t *testing.T) {
	note := &schema.Note{Title: "Meeting Notes", Content: "- item one", UpdatedAt: 1724800000000}
	out := string(MarshalNoteMarkdown(note))

	if !strings.HasPrefix(out, "# Meeting Notes\n\n") {
		t.Errorf("markdown should open with a title heading: %q", out)
	}
	if !strings.Contains(out, "- item one") {
		t.Errorf("markdown should contain the body")
	}
	if !strings.Contains(out, "*Last updated: ") {
		t.Errorf("markdown should end with the last-updated footer: %q", out)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Meeting Notes":      "Meeting_Notes",
		"a/b\\c: d?":         "a_b_c_d",
		"plain":              "plain",
		"!!!":                "note",
		"  spaced   out  ":   "spaced_out",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseNoteImportJSON(t *testing.T) {
	title, content, err := ParseNoteImport("note.json", []byte(`{"title":"From JSON","content":"hello"}`))
	if err != nil {
		t.Fatal(err)
	}
	if title != "From JSON" || content != "hello" {
		t.Errorf("json import wrong: %q %q", title, content)
	}

	if _, _, err := ParseNoteImport("note.json", []byte(`{"foo":1}`)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("json without title or content should be rejected, got %v", err)
	}
	if _, _, err := ParseNoteImport("note.json", []byte(`broken`)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("broken json should be rejected, got %v", err)
	}
}

func TestParseNoteImportMarkdown(t *testing.T) {
	title, content, err := ParseNoteImport("Weekly Plan.md", []byte("# Plan\n\ndo things"))
	if err != nil {
		t.Fatal(err)
	}
	if title != "Weekly Plan" {
		t.Errorf("markdown title should come from the file name, got %q", title)
	}
	if content != "# Plan\n\ndo things" {
		t.Errorf("markdown body should be the raw file")
	}
}

func TestParseNoteImportUnsupported(t *testing.T) {
	if _, _, err := ParseNoteImport("image.png", []byte{0x89}); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("unsupported extension should be rejected, got %v", err)
	}
}

func TestDefaultBackupName(t *testing.T) {
	name := DefaultBackupName(1724800000000)
	if !strings.HasPrefix(name, "taskflow-backup-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected backup name %q", name)
	}
}

// Package export reads and writes TaskFlow interchange files: full-board
// backups and single-note exports in JSON or markdown.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskflow/taskflow/internal/schema"
)

// FormatVersion is stamped on every backup so future readers can tell what
// they are looking at.
const FormatVersion = "1.0"

// ErrInvalidFormat is returned when an import payload is not a TaskFlow
// document.
var ErrInvalidFormat = errors.New("not a TaskFlow export file")

// Backup is a full-board export.
type Backup struct {
	Version    string           `json:"version"`
	ExportedAt int64            `json:"exportedAt"`
	Tasks      []schema.Task    `json:"tasks"`
	Notes      []schema.Note    `json:"notes"`
	Versions   []schema.Version `json:"versions"`
}

// NewBackup packages state into a backup stamped with the current time.
func NewBackup(state *schema.AppState) *Backup {
	c := state.Clone()
	return &Backup{
		Version:    FormatVersion,
		ExportedAt: schema.Now(),
		Tasks:      c.Tasks,
		Notes:      c.Notes,
		Versions:   c.Versions,
	}
}

// State converts the backup back into an application document.
func (b *Backup) State() *schema.AppState {
	state := &schema.AppState{
		Tasks:    b.Tasks,
		Notes:    b.Notes,
		Versions: b.Versions,
	}
	state.Normalize()
	return state
}

// MarshalBackup encodes a backup as indented JSON.
func MarshalBackup(b *Backup) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// UnmarshalBackup decodes a backup. A payload missing both the tasks and
// notes fields is rejected as ErrInvalidFormat; a payload with either field
// present (even empty) is accepted, with absent collections normalized to
// empty.
func UnmarshalBackup(data []byte) (*Backup, error) {
	var probe struct {
		Version    string            `json:"version"`
		ExportedAt int64             `json:"exportedAt"`
		Tasks      *[]schema.Task    `json:"tasks"`
		Notes      *[]schema.Note    `json:"notes"`
		Versions   *[]schema.Version `json:"versions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if probe.Tasks == nil && probe.Notes == nil {
		return nil, fmt.Errorf("%w: missing tasks and notes", ErrInvalidFormat)
	}

	b := &Backup{Version: probe.Version, ExportedAt: probe.ExportedAt}
	if probe.Tasks != nil {
		b.Tasks = *probe.Tasks
	} else {
		b.Tasks = []schema.Task{}
	}
	if probe.Notes != nil {
		b.Notes = *probe.Notes
	} else {
		b.Notes = []schema.Note{}
	}
	if probe.Versions != nil {
		b.Versions = *probe.Versions
	} else {
		b.Versions = []schema.Version{}
	}
	return b, nil
}

// WriteBackup writes a backup to path atomically (temp file then rename).
func WriteBackup(path string, b *Backup) error {
	data, err := MarshalBackup(b)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize backup: %w", err)
	}
	return nil
}

// ReadBackup loads and validates a backup from path.
func ReadBackup(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return UnmarshalBackup(data)
}

// DefaultBackupName returns the conventional file name for a backup written
// today, e.g. taskflow-backup-2026-08-28.json.
func DefaultBackupName(now int64) string {
	return fmt.Sprintf("taskflow-backup-%s.json", FormatDate(now))
}

// Ext reports the lowercase extension of path without the dot.
func Ext(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

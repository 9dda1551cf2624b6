// Package ui provides the shared terminal styling helpers used by the CLI
// commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	pass   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true)
	warn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true)
	fail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true)
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	title  = lipgloss.NewStyle().Bold(true)
)

// RenderAccent styles informational markers.
func RenderAccent(s string) string { return accent.Render(s) }

// RenderPass styles success markers.
func RenderPass(s string) string { return pass.Render(s) }

// RenderWarn styles warning markers.
func RenderWarn(s string) string { return warn.Render(s) }

// RenderFail styles failure markers.
func RenderFail(s string) string { return fail.Render(s) }

// RenderDim styles secondary text like ids and timestamps.
func RenderDim(s string) string { return dim.Render(s) }

// RenderTitle styles entity titles.
func RenderTitle(s string) string { return title.Render(s) }

// StatusBadge colors a task status for list output.
func StatusBadge(status string) string {
	switch status {
	case "todo":
		return dim.Render("[todo]")
	case "in-progress":
		return warn.Render("[in-progress]")
	case "done":
		return pass.Render("[done]")
	default:
		return "[" + status + "]"
	}
}

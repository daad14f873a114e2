package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/archivist/internal/domain/archive"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
)

// Styles are the lipgloss styles used for plan and result output.
type Styles struct {
	Title   lipgloss.Style
	Create  lipgloss.Style
	Replace lipgloss.Style
	Remove  lipgloss.Style
	NoOp    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default output styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Create:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Replace: lipgloss.NewStyle().Foreground(ColorWarning),
		Remove:  lipgloss.NewStyle().Foreground(ColorError),
		NoOp:    lipgloss.NewStyle().Foreground(ColorMuted),
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),
		Muted: lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// PlainStyles renders without colors or emphasis.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Create: plain, Replace: plain, Remove: plain,
		NoOp: plain, Success: plain, Error: plain, Muted: plain,
	}
}

// kindStyle picks the style and marker for an action kind.
func (s Styles) kindStyle(kind archive.ActionKind) (lipgloss.Style, string) {
	switch kind {
	case archive.ActionCreate:
		return s.Create, "+"
	case archive.ActionReplace:
		return s.Replace, "~"
	case archive.ActionRemove:
		return s.Remove, "-"
	}
	return s.NoOp, "✓"
}

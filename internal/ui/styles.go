// Package ui renders assay and bench output to the terminal, grounded
// on the teacher's internal/ui table/color conventions.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#6B46C1", Dark: "#B794F4"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#C05621", Dark: "#F6AD55"}
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#68D391"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#718096", Dark: "#A0AEC0"}
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Align(lipgloss.Center)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	BorderStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows NO_COLOR/CLICOLOR conventions.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal()
}

// Width returns the terminal width, defaulting to 80 for non-TTY output.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

package ui

import "github.com/charmbracelet/glamour"

// RenderPattern previews a pattern document's markdown content the way
// the teacher previews long-form text fields, grounded on the pack's
// glamour usage for terminal markdown rendering.
func RenderPattern(markdown string) (string, error) {
	style := "notty"
	if ShouldUseColor() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(Width()),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

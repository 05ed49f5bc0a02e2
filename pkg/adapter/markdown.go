package adapter

import (
	"github.com/charmbracelet/glamour"
	"github.com/m-mizutani/goerr/v2"
)

// Markdown renders agent answers for the terminal in a dark or a light style
type Markdown struct {
	dark  *glamour.TermRenderer
	light *glamour.TermRenderer
}

// NewMarkdown creates renderers for both styles wrapping at width columns
func NewMarkdown(width int) (*Markdown, error) {
	dark, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create dark renderer")
	}

	light, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create light renderer")
	}

	return &Markdown{dark: dark, light: light}, nil
}

// Render returns text rendered in the dark style when dark is true, light otherwise
func (m *Markdown) Render(text string, dark bool) (string, error) {
	r := m.light
	if dark {
		r = m.dark
	}

	out, err := r.Render(text)
	if err != nil {
		return "", goerr.Wrap(err, "failed to render markdown")
	}
	return out, nil
}

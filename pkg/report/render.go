package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatPlot = "plot"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned by ForFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatPlot, FormatXLSX}
}

// Binary reports whether format produces non-text output.
func Binary(format string) bool {
	return strings.EqualFold(format, FormatXLSX)
}

// Renderer writes a report in one format.
type Renderer interface {
	Render(w io.Writer, rep *Report) error
}

// RenderOptions are shared by the renderers that use them.
type RenderOptions struct {
	NoColor bool
}

// ForFormat returns the renderer for a format name. An empty name is text.
func ForFormat(format string, opts RenderOptions) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return NewTextRenderer(opts.NoColor), nil
	case FormatJSON:
		return JSONRenderer{}, nil
	case FormatYAML:
		return YAMLRenderer{}, nil
	case FormatPlot:
		return PlotRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// JSONRenderer writes indented JSON.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}

// YAMLRenderer writes YAML.
type YAMLRenderer struct{}

// Render implements Renderer.
func (YAMLRenderer) Render(w io.Writer, rep *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush yaml report: %w", err)
	}

	return nil
}

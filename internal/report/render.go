package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/cohort/internal/errors"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DefaultWidth is used for text reports when the width is neither configured
// nor discoverable from the terminal.
const DefaultWidth = 100

// Options controls rendering.
type Options struct {
	// Format is one of FormatText, FormatJSON or FormatYAML. Empty means text.
	Format string
	// Color is one of ColorAuto, ColorAlways or ColorNever. Empty means auto.
	Color string
	// ListResources prints the resources of each component inside a group.
	ListResources bool
	// ShowMatrix prints the sorted commonality matrix in text reports.
	ShowMatrix bool
	// Width of text reports in columns. Zero means the terminal width.
	Width int
}

// Render writes doc to w in the format selected by opts.
func Render(w io.Writer, doc *Document, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return newTextRenderer(w, opts).render(doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode JSON report")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode YAML report")
		}
		return enc.Close()
	default:
		return errors.NewNotFoundError("report format", opts.Format)
	}
}

// fdWriter is implemented by *os.File and anything else backed by a file
// descriptor.
type fdWriter interface {
	Fd() uintptr
}

// colorEnabled resolves the color mode against w.
func colorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportWidth resolves the configured width against w.
func reportWidth(w io.Writer, configured int) int {
	if configured > 0 {
		return configured
	}
	if f, ok := w.(fdWriter); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// formatErr is returned for a write failure partway through a text report.
func formatErr(err error) error {
	return fmt.Errorf("failed to write report: %w", err)
}

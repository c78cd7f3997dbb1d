// Package util provides terminal string helpers shared by the report renderers.
package util

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated labels. It is one column wide so that even very
// narrow matrix columns keep a visible hint.
const Ellipsis = "…"

// Truncate shortens s to maxWidth visual columns, ending it with Ellipsis when
// anything was cut. ANSI escape codes and wide characters are measured by
// their rendered width, so styled labels can be passed in directly.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return Ellipsis
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}

// PadRight truncates or pads s with spaces to exactly width columns.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// PadLeft truncates or left-pads s with spaces to exactly width columns.
func PadLeft(s string, width int) string {
	s = Truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// MaxWidth returns the widest visual width among values.
func MaxWidth(values []string) int {
	w := 0
	for _, v := range values {
		w = max(w, lipgloss.Width(v))
	}
	return w
}

// Count formats n followed by noun, adding an "s" unless n is one.
func Count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// WrapList joins items with ", " and breaks the result into lines no wider
// than width columns, each prefixed with indent. Items are never split. A
// width of zero or less puts everything on one line.
func WrapList(items []string, width int, indent string) []string {
	if len(items) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{indent + strings.Join(items, ", ")}
	}

	var lines []string
	line := indent
	lineWidth := lipgloss.Width(indent)
	empty := true
	for i, item := range items {
		piece := item
		if i < len(items)-1 {
			piece += ","
		}
		w := lipgloss.Width(piece)
		if !empty && lineWidth+1+w > width {
			lines = append(lines, line)
			line, lineWidth, empty = indent, lipgloss.Width(indent), true
		}
		if !empty {
			line += " "
			lineWidth++
		}
		line += piece
		lineWidth += w
		empty = false
	}
	return append(lines, line)
}

// Package output formats human-facing CLI messages: status lines, aligned
// key/value summaries and indented blocks.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	ok   lipgloss.Style
	warn lipgloss.Style
	bad  lipgloss.Style
	key  lipgloss.Style
}

// New creates a new output Writer. Color is off unless enabled with
// WithColor.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WithColor enables lipgloss styling of icons and keys.
func (w *Writer) WithColor(enabled bool) *Writer {
	w.useColor = enabled
	if enabled {
		w.ok = lipgloss.NewStyle().Foreground(lipgloss.Color("154"))
		w.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
		w.bad = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		w.key = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
	return w
}

func (w *Writer) paint(s lipgloss.Style, text string) string {
	if !w.useColor {
		return text
	}
	return s.Render(text)
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.paint(w.ok, "✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.paint(w.warn, "!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.paint(w.bad, "✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// KeyValues prints pairs as an aligned two-column block. pairs alternates
// key, value; a trailing key without a value is ignored.
func (w *Writer) KeyValues(pairs ...string) {
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprintf("%-*s", width+1, pairs[i]+":")
		_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.paint(w.key, key), pairs[i+1])
	}
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

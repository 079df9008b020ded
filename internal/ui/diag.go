// Package ui prints diagnostics to the error stream. Styles are rendered per
// writer, so output to pipes and files stays plain.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Error prints "error: <err>" to w, in red when w is a terminal.
func Error(w io.Writer, err error) {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")).Render("error:")
	_, _ = fmt.Fprintf(w, "%s %v\n", label, err)
}

// Hint prints a follow-up suggestion under an error, dimmed on terminals.
func Hint(w io.Writer, format string, args ...any) {
	r := lipgloss.NewRenderer(w)
	_, _ = fmt.Fprintln(w, r.NewStyle().Faint(true).Render(fmt.Sprintf("hint: "+format, args...)))
}

// Success prints a completed-action line to w, in green on terminals.
func Success(w io.Writer, format string, args ...any) {
	r := lipgloss.NewRenderer(w)
	_, _ = fmt.Fprintln(w, r.NewStyle().Foreground(lipgloss.Color("2")).Render(fmt.Sprintf(format, args...)))
}

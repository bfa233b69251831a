// Package render formats agent status for terminal display: a lipgloss
// table when the terminal supports ANSI styling, and a fatih/color
// fallback for the narrower cases lipgloss's own capability detection
// doesn't cover (e.g. a caller that wants plain inline coloring without
// building a styled block).
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/arthurnw/workmux/internal/statestore"
)

var (
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func styleFor(status *statestore.Status) lipgloss.Style {
	if status == nil {
		return staleStyle
	}
	switch *status {
	case statestore.StatusWorking:
		return workingStyle
	case statestore.StatusWaiting:
		return waitingStyle
	case statestore.StatusDone:
		return doneStyle
	default:
		return staleStyle
	}
}

func label(status *statestore.Status) string {
	if status == nil {
		return "idle"
	}
	return string(*status)
}

// Table renders panes as an aligned, colorized table to w.
func Table(w io.Writer, panes []statestore.AgentPane) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-20s %-10s %-8s %s", "WORKDIR", "STATUS", "PID", "TITLE")))
	for _, p := range panes {
		style := styleFor(p.Status)
		line := fmt.Sprintf("%-20s %-10s %-8d %s", shorten(p.WorkDir, 20), label(p.Status), p.PanePID, p.PaneTitle)
		fmt.Fprintln(w, style.Render(line))
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}

// PlainStatusLine renders a single status label using fatih/color, for
// callers that just want one inline colored token rather than a full
// lipgloss-styled block (e.g. a one-line confirmation after `open`).
func PlainStatusLine(status *statestore.Status) string {
	text := label(status)
	if status == nil {
		return color.New(color.Faint).Sprint(text)
	}
	switch *status {
	case statestore.StatusWorking:
		return color.New(color.FgYellow, color.Bold).Sprint(text)
	case statestore.StatusWaiting:
		return color.New(color.FgCyan).Sprint(text)
	case statestore.StatusDone:
		return color.New(color.FgGreen).Sprint(text)
	default:
		return text
	}
}

// NoColorWriter strips ANSI escapes from anything written through it, for
// non-terminal output (files, pipes) where lipgloss's own detection might
// not apply (e.g. output explicitly redirected by the caller rather than
// os.Stdout itself).
type NoColorWriter struct {
	W io.Writer
}

func (n NoColorWriter) Write(p []byte) (int, error) {
	stripped := stripANSI(string(p))
	if _, err := n.W.Write([]byte(stripped)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package render

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/arthurnw/workmux/internal/statestore"
)

func TestTableIncludesWorkdirAndStatus(t *testing.T) {
	var buf bytes.Buffer
	working := statestore.StatusWorking
	panes := []statestore.AgentPane{
		{AgentState: statestore.AgentState{WorkDir: "/repo/wt/a", PanePID: 123, Status: &working, PaneTitle: "feat-a"}},
	}
	Table(&buf, panes)

	out := buf.String()
	if !strings.Contains(out, "feat-a") || !strings.Contains(out, "working") {
		t.Fatalf("expected table output to include title and status, got %q", out)
	}
}

func TestPlainStatusLineDistinguishesNilStatus(t *testing.T) {
	idle := PlainStatusLine(nil)
	if !strings.Contains(idle, "idle") {
		t.Fatalf("expected idle label for nil status, got %q", idle)
	}

	done := statestore.StatusDone
	doneLine := PlainStatusLine(&done)
	if !strings.Contains(doneLine, "done") {
		t.Fatalf("expected done label, got %q", doneLine)
	}
}

func TestNoColorWriterStripsEscapes(t *testing.T) {
	var buf bytes.Buffer
	w := NoColorWriter{W: &buf}
	_, err := w.Write([]byte("\x1b[31mred text\x1b[0m plain"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "\x1b") {
		t.Fatalf("expected no escape codes, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "red text") {
		t.Fatalf("expected visible text preserved, got %q", buf.String())
	}
}

func TestShortenPreservesSuffix(t *testing.T) {
	got := shorten("/very/long/path/to/worktree/feat-a", 20)
	if utf8.RuneCountInString(got) > 20 {
		t.Fatalf("expected shortened string within budget, got %q (%d)", got, utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "feat-a") {
		t.Fatalf("expected suffix preserved, got %q", got)
	}
}

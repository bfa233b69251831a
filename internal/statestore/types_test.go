package statestore

import "testing"

func TestPaneKeyFilenameRoundTrip(t *testing.T) {
	cases := []PaneKey{
		{Backend: "tmux", Instance: "default", PaneID: "%1"},
		{Backend: "wezterm", Instance: "abc123", PaneID: "pane_with_underscore"},
		{Backend: "tmux", Instance: "default", PaneID: "%1_x_y"},
	}

	for _, key := range cases {
		name := key.Filename()
		got, err := ParsePaneKeyFilename(name)
		if err != nil {
			t.Fatalf("ParsePaneKeyFilename(%q) error: %v", name, err)
		}
		if got != key {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, key)
		}
	}
}

func TestParsePaneKeyFilenameRejectsMalformed(t *testing.T) {
	cases := []string{
		"tmux__default.json",                 // only 2 fields
		"tmux__default__%1__extra.json",      // 4 fields
		"tmux_default_%1.json",               // single underscores only, 1 field
		"__default__%1.json",                 // empty backend
		"tmux____%1.json",                    // empty instance
	}

	for _, name := range cases {
		if _, err := ParsePaneKeyFilename(name); err == nil {
			t.Errorf("ParsePaneKeyFilename(%q) expected error, got nil", name)
		}
	}
}

func TestValidPreviewSize(t *testing.T) {
	if ValidPreviewSize(9) {
		t.Error("9 should be invalid")
	}
	if !ValidPreviewSize(10) {
		t.Error("10 should be valid")
	}
	if !ValidPreviewSize(90) {
		t.Error("90 should be valid")
	}
	if ValidPreviewSize(91) {
		t.Error("91 should be invalid")
	}
}

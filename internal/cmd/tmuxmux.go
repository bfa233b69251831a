package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/arthurnw/workmux/internal/multiplexer"
)

// tmuxMux implements multiplexer.Multiplexer by shelling out to the tmux
// binary. tmux itself, and the window/pane semantics it owns, are
// explicitly out of scope for the core; this is the thin adapter the
// core's interface was written against.
type tmuxMux struct {
	instance string
}

func newTmuxMultiplexer() (*tmuxMux, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux not found on PATH: %w", err)
	}
	instance := os.Getenv("TMUX")
	if idx := strings.Index(instance, ","); idx >= 0 {
		instance = instance[:idx]
	}
	if instance == "" {
		instance = "default"
	}
	return &tmuxMux{instance: instance}, nil
}

func (t *tmuxMux) Name() string       { return "tmux" }
func (t *tmuxMux) InstanceID() string { return t.instance }

func tmuxOutput(args ...string) (string, error) {
	out, err := exec.Command("tmux", args...).Output()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (t *tmuxMux) AllLivePaneInfo() (map[string]multiplexer.LivePaneInfo, error) {
	format := "#{pane_id}\t#{pane_pid}\t#{pane_current_command}\t#{session_name}\t#{window_name}\t#{pane_title}"
	out, err := tmuxOutput("list-panes", "-a", "-F", format)
	if err != nil {
		// No server running is not an error: it means zero live panes.
		return map[string]multiplexer.LivePaneInfo{}, nil
	}
	result := make(map[string]multiplexer.LivePaneInfo)
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 6)
		if len(fields) != 6 {
			continue
		}
		pid, _ := strconv.Atoi(fields[1])
		result[fields[0]] = multiplexer.LivePaneInfo{
			PID:            pid,
			CurrentCommand: fields[2],
			Session:        fields[3],
			Window:         fields[4],
			Title:          fields[5],
		}
	}
	return result, nil
}

func (t *tmuxMux) CurrentPaneID() (string, bool) {
	id := os.Getenv("TMUX_PANE")
	return id, id != ""
}

func (t *tmuxMux) CurrentSession() (string, bool) {
	out, err := tmuxOutput("display-message", "-p", "#{session_name}")
	return out, err == nil && out != ""
}

func (t *tmuxMux) ActivePaneID() (string, bool) {
	out, err := tmuxOutput("display-message", "-p", "#{pane_id}")
	return out, err == nil && out != ""
}

func (t *tmuxMux) SwitchToPane(paneID string) error {
	_, err := tmuxOutput("switch-client", "-t", paneID)
	if err != nil {
		_, err = tmuxOutput("select-pane", "-t", paneID)
	}
	return err
}

func (t *tmuxMux) ClearStatus(paneID string) error {
	_, err := tmuxOutput("select-pane", "-t", paneID, "-T", "")
	return err
}

func (t *tmuxMux) SetStatus(paneID string, icon multiplexer.StatusIcon, autoClear bool) error {
	_, err := tmuxOutput("select-pane", "-t", paneID, "-T", string(icon))
	if err != nil {
		return err
	}
	if autoClear {
		// This adapter schedules no removal: the icon stays until
		// ClearStatus or the next SetStatus replaces it.
		return nil
	}
	return nil
}

func (t *tmuxMux) EnsureStatusFormat(paneID string) error {
	_, err := tmuxOutput("set-option", "-p", "-t", paneID, "pane-border-status", "top")
	return err
}

func (t *tmuxMux) WindowExistsInSession(prefix, handle, session string) (bool, error) {
	out, err := tmuxOutput("list-windows", "-t", session, "-F", "#{window_name}")
	if err != nil {
		return false, nil
	}
	want := prefix + handle
	for _, name := range strings.Split(out, "\n") {
		if name == want {
			return true, nil
		}
	}
	return false, nil
}

func (t *tmuxMux) EnsureSession(name, cwd string) error {
	if _, err := tmuxOutput("has-session", "-t", name); err == nil {
		return nil
	}
	_, err := tmuxOutput("new-session", "-d", "-s", name, "-c", cwd)
	return err
}

func (t *tmuxMux) SplitPane(window, workdir, command string) (string, error) {
	out, err := tmuxOutput("split-window", "-t", window, "-c", workdir, "-P", "-F", "#{pane_id}", command)
	if err != nil {
		return "", err
	}
	return out, nil
}

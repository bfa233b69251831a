package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/rpc"
	"github.com/arthurnw/workmux/internal/statestore"
)

var statusCmd = &cobra.Command{
	Use:     "set-window-status {working|waiting|done|clear}",
	GroupID: GroupInternal,
	Hidden:  true,
	Short:   "Report the calling agent's lifecycle status (invoked by agent hooks)",
	Args:    cobra.ExactArgs(1),
	RunE:    runSetWindowStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runSetWindowStatus(cmd *cobra.Command, args []string) error {
	status := args[0]
	switch status {
	case "working", "waiting", "done", "clear":
	default:
		return fmt.Errorf("status must be one of working, waiting, done, clear")
	}

	if inSandboxGuest() {
		client, err := rpc.DialFromEnv()
		if err != nil {
			return err
		}
		defer client.Close()
		return client.SetStatus(status)
	}

	paneID := os.Getenv("TMUX_PANE")
	if paneID == "" {
		// No pane context: per the hook contract this is a silent no-op,
		// not a failure (hooks fire in many non-pane contexts too).
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	mux, err := a.mux()
	if err != nil {
		return err
	}
	return applyWindowStatus(a, mux, paneID, status)
}

func applyWindowStatus(a *app, mux multiplexer.Multiplexer, paneID, status string) error {
	key := statestore.PaneKey{Backend: mux.Name(), Instance: mux.InstanceID(), PaneID: paneID}

	panes, _ := mux.AllLivePaneInfo()
	live, haveLive := panes[paneID]

	existing, _ := a.store.Get(key)

	state := statestore.AgentState{PaneKey: key}
	if existing != nil {
		state = *existing
	}
	if haveLive {
		state.PanePID = live.PID
		state.Command = live.CurrentCommand
		if state.PaneTitle == "" {
			state.PaneTitle = live.Title
		}
	}

	now := time.Now().Unix()
	state.UpdatedTS = now

	if status == "clear" {
		state.Status = nil
		if err := mux.ClearStatus(paneID); err != nil {
			return err
		}
	} else {
		s := statestore.Status(status)
		state.Status = &s
		state.StatusTS = now

		icon := multiplexer.IconWorking
		autoClear := false
		switch s {
		case statestore.StatusWaiting:
			icon = multiplexer.IconWaiting
		case statestore.StatusDone:
			icon, autoClear = multiplexer.IconDone, true
		}
		if err := mux.SetStatus(paneID, icon, autoClear); err != nil {
			return err
		}
	}

	return a.store.Upsert(state)
}

package cmd

import (
	"fmt"
	"os/exec"

	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/rpc"
)

// hostHandler implements rpc.Handler on the host side of the sandbox
// boundary: it runs the git work that the guest can only request, and
// applies status updates and notifications using the same code paths
// the non-sandboxed CLI uses.
type hostHandler struct {
	app      *app
	mux      multiplexer.Multiplexer
	repoRoot string
	paneID   string
}

func (h *hostHandler) HandleSetStatus(req rpc.SetStatusRequest) (rpc.OutputResponse, error) {
	if h.paneID == "" {
		return rpc.OutputResponse{}, fmt.Errorf("no pane associated with this sandbox")
	}
	if err := applyWindowStatus(h.app, h.mux, h.paneID, req.Status); err != nil {
		return rpc.OutputResponse{}, err
	}
	return rpc.OutputResponse{Message: "ok"}, nil
}

func (h *hostHandler) HandleMerge(req rpc.MergeRequest) (rpc.OutputResponse, error) {
	output, err := performMerge(h.repoRoot, req, false, false)
	if err != nil {
		return rpc.OutputResponse{}, err
	}
	return rpc.OutputResponse{Message: output}, nil
}

func (h *hostHandler) HandleNotify(req rpc.NotifyRequest) (rpc.OutputResponse, error) {
	_ = exec.Command("afplay", "/System/Library/Sounds/Glass.aiff").Run()
	return rpc.OutputResponse{Message: req.Message}, nil
}

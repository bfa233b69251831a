package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/exitcode"
	"github.com/arthurnw/workmux/internal/rpc"
)

var hostExecCmd = &cobra.Command{
	Use:                "host-exec <cmd> [args...]",
	GroupID:            GroupInternal,
	Hidden:             true,
	Short:              "Run a host command from inside a sandbox guest (guest-only)",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE:               runHostExec,
}

func init() {
	rootCmd.AddCommand(hostExecCmd)
}

func runHostExec(cmd *cobra.Command, args []string) error {
	if !inSandboxGuest() {
		return exitcode.Wrap(1, fmt.Errorf("host-exec only runs inside a sandbox guest (WM_SANDBOX_GUEST unset)"))
	}

	client, err := rpc.DialFromEnv()
	if err != nil {
		return exitcode.Wrap(1, err)
	}
	defer client.Close()

	stream, err := client.Exec(args[0], args[1:])
	if err != nil {
		return exitcode.Wrap(1, err)
	}

	for stream.Stdout != nil || stream.Stderr != nil {
		select {
		case chunk, ok := <-stream.Stdout:
			if !ok {
				stream.Stdout = nil
				continue
			}
			os.Stdout.Write(chunk)
		case chunk, ok := <-stream.Stderr:
			if !ok {
				stream.Stderr = nil
				continue
			}
			os.Stderr.Write(chunk)
		}
	}

	code := <-stream.Done
	if err := stream.Err(); err != nil {
		return exitcode.Wrap(1, err)
	}
	if code == 0 {
		return nil
	}
	return exitcode.Wrap(code, fmt.Errorf("exit status %d", code))
}

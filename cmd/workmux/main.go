// workmux orchestrates parallel AI coding agents across git worktrees.
package main

import (
	"os"

	"github.com/arthurnw/workmux/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/kcghost/git-cache/internal/gitcache"
)

// execCmdName is the hidden command that unrecognized commands are routed to.
const execCmdName = "exec"

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                execCmdName + " GIT-COMMAND [args...]",
		Short:              "Run a git command inside the cache directory",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Cache()
			if err != nil {
				return err
			}
			return c.Exec(cmd.Context(), args)
		},
	}
}

// usageError reports bad arguments to cmd with its usage line.
func usageError(cmd *cobra.Command, msg string) error {
	return &gitcache.UsageError{Msg: msg + "\nusage: " + cmd.UseLine()}
}

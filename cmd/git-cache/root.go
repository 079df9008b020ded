package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git-cache",
		Short: "Share a local cache of git objects between clones",
		Long: `git-cache keeps one bare repository that fetches every registered remote.
Clones and submodules made through it borrow objects from the cache with
--reference, and are dissociated afterwards unless --dependent is given.

Any other command is run as "git <command>" inside the cache directory.
With no command, git-cache lists the cached remotes.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Print debug logging")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Settings file (default $GIT_CACHE_CONFIG or <config dir>/git-cache/config.yaml)")

	cmd.AddCommand(
		newInitCmd(a),
		newDeleteCmd(a),
		newAddCmd(a),
		newShowCmd(a),
		newUpdateCmd(a),
		newCloneCmd(a),
		newSubmoduleCmd(a),
		newExecCmd(a),
	)

	return cmd
}

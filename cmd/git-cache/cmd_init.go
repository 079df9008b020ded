package main

import (
	"github.com/spf13/cobra"

	"github.com/kcghost/git-cache/internal/config"
	"github.com/kcghost/git-cache/internal/ui"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [DIR] [TYPE]",
		Short: "Create the cache and record it in git config",
		Long: `Create a bare repository to act as the cache and record its path under
cache.directory in git config.

TYPE is "local" (default) for a per-user cache recorded in the global git
config, or "global" for a machine-wide cache recorded in the system git
config. Without DIR the cache goes to the user cache directory, or for a
global cache to the first writable shared root. Caches under a shared root
are made group-writable.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, keyword := splitInitArgs(args)
			scope, err := config.ParseScope(keyword)
			if err != nil {
				return usageError(cmd, err.Error())
			}

			c, err := a.Cache()
			if err != nil {
				return err
			}
			abs, err := c.Init(cmd.Context(), dir, scope)
			if err != nil {
				return err
			}
			ui.Success(cmd.OutOrStdout(), "Initialized %s git-cache in %s", scope.Keyword(), abs)
			return nil
		},
	}
}

// splitInitArgs separates DIR from TYPE. A lone argument that is a scope
// keyword is TYPE.
func splitInitArgs(args []string) (dir, keyword string) {
	switch len(args) {
	case 0:
		return "", ""
	case 1:
		if args[0] == "local" || args[0] == "global" {
			return "", args[0]
		}
		return args[0], ""
	default:
		return args[0], args[1]
	}
}

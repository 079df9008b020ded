package main

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/kcghost/git-cache/internal/gitcache"
	"github.com/kcghost/git-cache/internal/ui"
)

const dependentFlag = "--dependent"

func newCloneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clone [--dependent] URL|NAME [git clone args...]",
		Short: "Clone a repository, borrowing objects from the cache",
		Long: `Clone URL, or the URL of the cached remote NAME, with --reference to the
cache. The clone is dissociated from the cache unless --dependent is given.
Arguments after URL|NAME are passed to git clone.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, opts, help := parseCloneArgs(args)
			if help {
				return cmd.Help()
			}
			if token == "" {
				return usageError(cmd, "a repository URL or cached remote NAME is required")
			}
			c, err := a.Cache()
			if err != nil {
				return err
			}
			return c.Clone(cmd.Context(), token, opts)
		},
	}
}

func newSubmoduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submodule",
		Short: "Add submodules through the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add [--dependent] URL|NAME [git submodule add args...]",
		Short: "Add a submodule, borrowing objects from the cache",
		Long: `Run git submodule add with --reference to the cache. git cannot dissociate
a submodule, so unless --dependent is given the new submodule is repacked
and its alternates file removed afterwards.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, opts, help := parseCloneArgs(args)
			if help {
				return cmd.Help()
			}
			if token == "" {
				return usageError(cmd, "a repository URL or cached remote NAME is required")
			}
			c, err := a.Cache()
			if err != nil {
				return err
			}
			path, err := c.SubmoduleAdd(cmd.Context(), token, opts)
			if err != nil {
				return err
			}
			if path != "" {
				ui.Success(cmd.OutOrStdout(), "Dissociated submodule %s from the cache", path)
			}
			return nil
		},
	})
	return cmd
}

// parseCloneArgs removes --dependent from args and splits off the repository
// token. Everything after the token is left for git. help is set when the
// first argument asks for help.
func parseCloneArgs(args []string) (token string, opts gitcache.CloneOptions, help bool) {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help" || args[0] == "-help") {
		return "", opts, true
	}
	rest := slices.DeleteFunc(slices.Clone(args), func(s string) bool {
		if s == dependentFlag {
			opts.Dependent = true
			return true
		}
		return false
	})
	if len(rest) == 0 {
		return "", opts, false
	}
	opts.Args = rest[1:]
	return rest[0], opts, false
}

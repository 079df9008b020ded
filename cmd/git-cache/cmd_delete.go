package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcghost/git-cache/internal/ui"
)

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete --force [NAME]",
		Aliases: []string{"rm", "del"},
		Short:   "Remove a cached remote, or the whole cache (destructive, requires --force)",
		Long: `With NAME, remove that remote from the cache.

Without NAME, "delete" removes every configured cache directory and its
cache.directory entry, in both the system and the global git config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			c, err := a.Cache()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := c.RemoveRemote(cmd.Context(), args[0], force); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "Removed remote %s", args[0])
				return nil
			}
			if cmd.CalledAs() != "delete" {
				return usageError(cmd, "a remote NAME is required")
			}

			removed, err := c.Destroy(cmd.Context(), force)
			for _, dir := range removed {
				ui.Success(cmd.OutOrStdout(), "Removed %s", dir)
			}
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No cache directory to remove")
			}
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Required to confirm destructive operation")
	return cmd
}

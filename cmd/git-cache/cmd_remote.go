package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME URL",
		Short: "Register a remote in the cache and fetch it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError(cmd, "a remote NAME and URL are required")
			}
			c, err := a.Cache()
			if err != nil {
				return err
			}
			return c.AddRemote(cmd.Context(), args[0], args[1])
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the remotes registered in the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.Cache()
			if err != nil {
				return err
			}
			remotes, err := c.Remotes(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range remotes {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", r.Name, r.URL)
			}
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update",
		Aliases: []string{"fetch"},
		Short:   "Fetch every cached remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.Cache()
			if err != nil {
				return err
			}
			return c.Update(cmd.Context())
		},
	}
}

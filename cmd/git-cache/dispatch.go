package main

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kcghost/git-cache/internal/git"
	"github.com/kcghost/git-cache/internal/gitcache"
	"github.com/kcghost/git-cache/internal/ui"
)

// run executes one git-cache invocation and returns the process exit status.
func run(ctx context.Context, args []string, a *app) int {
	defer a.close()

	root := newRootCmd(a)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetArgs(rewriteArgs(root, args))

	return a.exitCode(root.ExecuteContext(ctx))
}

// rewriteArgs maps the command line onto the cobra tree: no command means
// show, -help means --help, and a first word that names no subcommand is
// forwarded to git through the hidden exec command.
func rewriteArgs(root *cobra.Command, args []string) []string {
	if onlyRootFlags(args) {
		return append(slices.Clone(args), "show")
	}
	args = slices.Clone(args)
	if args[0] == "-help" {
		args[0] = "--help"
	}
	if strings.HasPrefix(args[0], "-") {
		return args
	}

	root.InitDefaultHelpCmd()
	if cmd, _, err := root.Find(args[:1]); err == nil && cmd != root {
		return args
	}
	return append([]string{execCmdName}, args...)
}

// onlyRootFlags reports whether args holds nothing but --verbose and --config.
func onlyRootFlags(args []string) bool {
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--verbose", strings.HasPrefix(a, "--verbose="), strings.HasPrefix(a, "--config="):
		case a == "--config" && i+1 < len(args):
			i++
		default:
			return false
		}
	}
	return true
}

// exitCode reports err and picks the status: git's own for a failed git
// process, 1 for everything else.
func (a *app) exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *git.ExitError
	if errors.As(err, &exitErr) {
		// A streamed git failure has already been printed by git.
		if err != error(exitErr) || exitErr.Stderr != "" {
			ui.Error(a.stderr, err)
		}
		if exitErr.Code > 0 {
			return exitErr.Code
		}
		return 1
	}

	ui.Error(a.stderr, err)
	switch {
	case errors.Is(err, gitcache.ErrUsage):
		ui.Hint(a.stderr, "run 'git-cache help' for usage")
	case errors.Is(err, gitcache.ErrSubmodulePathUnknown):
		ui.Hint(a.stderr, "remove the submodule or run 'git repack -a -d' in it and delete its objects/info/alternates")
	}
	return 1
}

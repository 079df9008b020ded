package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Runner executes git subcommands. dir is the working directory of the
// process; an empty dir means the current directory.
type Runner interface {
	// Run streams the command's output to the runner's stdout and stderr.
	Run(ctx context.Context, dir string, args ...string) error
	// Output returns stdout. Stderr is captured into the returned error.
	Output(ctx context.Context, dir string, args ...string) (string, error)
	// RunTTY runs the command attached to a pseudo terminal, echoes what it
	// prints and returns the combined output.
	RunTTY(ctx context.Context, dir string, args ...string) (string, error)
}

// CLI is a Runner backed by the git executable.
type CLI struct {
	Binary string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

var _ Runner = (*CLI)(nil)

// New returns a CLI that runs binary (default "git") and streams to stdout/stderr.
func New(binary string, stdout, stderr io.Writer) *CLI {
	return &CLI{Binary: binary, Stdout: stdout, Stderr: stderr}
}

// Run executes a git command in the given directory.
func (c *CLI) Run(ctx context.Context, dir string, args ...string) error {
	cmd := c.command(ctx, dir, args)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.stdout()
	cmd.Stderr = c.stderr()
	return wrapError(args, cmd.Run(), "")
}

// Output executes a git command and returns its stdout without printing to the console.
func (c *CLI) Output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := c.command(ctx, dir, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", wrapError(args, err, stderr.String())
	}
	return stdout.String(), nil
}

// combined runs the command with stdout and stderr merged, echoing both.
func (c *CLI) combined(ctx context.Context, dir string, args []string) (string, error) {
	cmd := c.command(ctx, dir, args)
	var buf bytes.Buffer
	w := io.MultiWriter(&buf, c.stdout())
	cmd.Stdout = w
	cmd.Stderr = w
	err := cmd.Run()
	return buf.String(), wrapError(args, err, "")
}

func (c *CLI) command(ctx context.Context, dir string, args []string) *exec.Cmd {
	c.logger().Debug("running git", "args", args, "dir", dir)
	cmd := exec.CommandContext(ctx, c.binary(), args...) //nolint:gosec // args are assembled by git-cache or forwarded from the user
	cmd.Dir = dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

func (c *CLI) binary() string {
	if c.Binary == "" {
		return "git"
	}
	return c.Binary
}

func (c *CLI) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *CLI) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}

func (c *CLI) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// ExitError reports a git process that exited with a non-zero status.
// Stderr is empty when the output was streamed to the user.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// IsExitCode reports whether err carries a git exit status equal to code.
func IsExitCode(err error, code int) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Code == code
}

func wrapError(args []string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Args: args, Code: exitErr.ExitCode(), Stderr: stderr, Err: err}
	}
	return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
}

// IsGitInstalled returns true if the git binary is available on the system PATH.
func IsGitInstalled(binary string) bool {
	if binary == "" {
		binary = "git"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// RunTTY runs git attached to a pseudo terminal so it prints the progress
// and status lines it only emits for interactive sessions. Everything git
// writes is echoed to Stdout and returned, and Stdin is forwarded to it.
// Platforms without pty support fall back to merged stdout/stderr capture.
func (c *CLI) RunTTY(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := c.command(ctx, dir, args)
	ptmx, err := pty.StartWithSize(cmd, c.winsize())
	if err != nil {
		if errors.Is(err, pty.ErrUnsupported) {
			c.logger().Debug("pseudo terminal unsupported, capturing output instead")
			return c.combined(ctx, dir, args)
		}
		return "", fmt.Errorf("git %s: starting pseudo terminal: %w", strings.Join(args, " "), err)
	}
	defer func() { _ = ptmx.Close() }()

	if c.Stdin != nil {
		if f, ok := c.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			if state, err := term.MakeRaw(int(f.Fd())); err == nil {
				defer func() { _ = term.Restore(int(f.Fd()), state) }()
			}
		}
		// Prompts such as credentials or host key confirmation read from the pty.
		go func() { _, _ = io.Copy(ptmx, c.Stdin) }()
	}

	var buf bytes.Buffer
	_, copyErr := io.Copy(io.MultiWriter(&buf, c.stdout()), ptmx)
	// Reading the master side fails with EIO once the child has exited.
	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) {
		c.logger().Debug("reading pseudo terminal", "error", copyErr)
	}
	return buf.String(), wrapError(args, cmd.Wait(), "")
}

// winsize mirrors the caller's terminal size, or 24x80 when stdout is not a terminal.
func (c *CLI) winsize() *pty.Winsize {
	size := &pty.Winsize{Rows: 24, Cols: 80}
	f, ok := c.stdout().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return size
	}
	if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && h > 0 {
		size.Cols = uint16(w) //nolint:gosec // terminal dimensions fit in uint16
		size.Rows = uint16(h) //nolint:gosec // terminal dimensions fit in uint16
	}
	return size
}

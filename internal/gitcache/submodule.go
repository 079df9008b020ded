package gitcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kcghost/git-cache/internal/git"
	"github.com/kcghost/git-cache/internal/lock"
)

var cloningIntoRE = regexp.MustCompile(`Cloning into '([^']+)'`)

// SubmoduleAdd adds the repository named by token as a submodule of the
// repository in the current directory, borrowing objects from the cache.
//
// git submodule add cannot dissociate, so unless opts.Dependent is set the
// new submodule is repacked and its alternates file deleted afterwards. The
// submodule's directory is found by diffing .gitmodules; git's "Cloning
// into" line is only a fallback. If neither identifies it, SubmoduleAdd
// returns a *SubmodulePathError without touching anything. The returned path
// is empty for dependent submodules.
func (c *Cache) SubmoduleAdd(ctx context.Context, token string, opts CloneOptions) (string, error) {
	var path string
	err := c.withCache(ctx, lock.Shared, func(dir string) error {
		url, err := resolveIn(dir, token)
		if err != nil {
			return err
		}
		top, err := c.topLevel(ctx)
		if err != nil {
			return err
		}
		before, err := c.submodulePaths(ctx, top)
		if err != nil {
			return err
		}

		args := append([]string{"submodule", "add", "--reference", dir, url}, opts.Args...)
		out, err := c.git.RunTTY(ctx, "", args...)
		if err != nil {
			return err
		}
		if opts.Dependent {
			return nil
		}

		path, err = c.newSubmodulePath(ctx, top, before, out)
		if err != nil {
			return err
		}
		return c.dissociate(ctx, path)
	})
	return path, err
}

func (c *Cache) topLevel(ctx context.Context) (string, error) {
	out, err := c.git.Output(ctx, "", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", gitError("locating superproject", err)
	}
	return strings.TrimSpace(out), nil
}

// submodulePaths returns the submodule paths recorded in top/.gitmodules.
func (c *Cache) submodulePaths(ctx context.Context, top string) (map[string]bool, error) {
	out, err := c.git.Output(ctx, top, "config", "--file", ".gitmodules", "--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		// Exit status 1: no .gitmodules or no submodules yet.
		if git.IsExitCode(err, 1) {
			return map[string]bool{}, nil
		}
		return nil, gitError("reading .gitmodules", err)
	}
	paths := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if _, p, ok := strings.Cut(strings.TrimSpace(line), " "); ok && p != "" {
			paths[p] = true
		}
	}
	return paths, nil
}

func (c *Cache) newSubmodulePath(ctx context.Context, top string, before map[string]bool, output string) (string, error) {
	after, err := c.submodulePaths(ctx, top)
	if err != nil {
		return "", err
	}
	var added []string
	for p := range after {
		if !before[p] {
			added = append(added, p)
		}
	}
	if len(added) == 1 {
		return filepath.Join(top, filepath.FromSlash(added[0])), nil
	}

	c.logger.Debug("could not identify submodule from .gitmodules, parsing git output", "candidates", added)
	if p := parseCloningInto(output); p != "" {
		if !filepath.IsAbs(p) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", fmt.Errorf("resolving submodule path: %w", err)
			}
			p = abs
		}
		return p, nil
	}
	return "", &SubmodulePathError{Output: output}
}

// parseCloningInto extracts the directory from git's "Cloning into '<dir>'..." line.
func parseCloningInto(output string) string {
	m := cloningIntoRE.FindStringSubmatch(strings.ReplaceAll(output, "\r", ""))
	if m == nil {
		return ""
	}
	return m[1]
}

// dissociate copies every borrowed object into the submodule and removes the
// alternates file pointing at the cache.
func (c *Cache) dissociate(ctx context.Context, path string) error {
	if err := c.git.Run(ctx, path, "repack", "-a", "-d"); err != nil {
		return gitError("repacking submodule "+path, err)
	}
	out, err := c.git.Output(ctx, path, "rev-parse", "--git-path", "objects/info/alternates")
	if err != nil {
		return gitError("locating alternates file", err)
	}
	alternates := strings.TrimSpace(out)
	if !filepath.IsAbs(alternates) {
		alternates = filepath.Join(path, alternates)
	}
	if err := os.Remove(alternates); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("submodule has no alternates file", "path", alternates)
			return nil
		}
		return fmt.Errorf("removing alternates file: %w", err)
	}
	c.logger.Debug("dissociated submodule", "path", path, "alternates", alternates)
	return nil
}

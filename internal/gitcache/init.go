package gitcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kcghost/git-cache/internal/config"
)

// Init creates a bare repository at dir and records it at scope. An empty
// dir selects the scope's default location. It returns the absolute path.
func (c *Cache) Init(ctx context.Context, dir string, scope config.Scope) (string, error) {
	if scope != config.ScopeSystem && scope != config.ScopeGlobal {
		return "", usageErrorf("unknown configuration scope %q", scope)
	}
	if dir == "" {
		d, err := c.defaultDir(scope)
		if err != nil {
			return "", err
		}
		dir = d
	}
	abs, err := canonicalPath(dir)
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	if IsInitialized(abs) {
		return "", &AlreadyInitializedError{Dir: abs}
	}

	shared := c.IsShared(abs)
	if shared {
		restore := relaxUmask()
		defer restore()
	}
	existing, err := snapshotDir(abs)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil { //nolint:gosec // cache must be readable by everyone who clones from it
		return "", fmt.Errorf("creating cache directory %s: %w", abs, err)
	}

	if err := c.initBare(ctx, abs, scope, shared); err != nil {
		if cerr := undoInit(abs, existing); cerr != nil {
			c.logger.Warn("cleaning up failed init", "dir", abs, "error", cerr)
		}
		return "", err
	}
	c.logger.Debug("initialized cache", "dir", abs, "scope", string(scope), "shared", shared)
	return abs, nil
}

// initBare turns the created directory into the cache and records it.
func (c *Cache) initBare(ctx context.Context, abs string, scope config.Scope, shared bool) error {
	args := []string{"init", "--bare", "--quiet"}
	if shared {
		args = append(args, "--shared=group")
	}
	if _, err := c.git.Output(ctx, abs, args...); err != nil {
		return gitError("initializing cache", err)
	}
	if shared {
		if err := relaxPermissions(abs); err != nil {
			return err
		}
	}
	return c.store.Set(ctx, scope, abs)
}

// snapshotDir lists the entries already in dir. It returns nil when dir is
// not an existing directory.
func snapshotDir(dir string) (map[string]bool, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory %s: %w", dir, err)
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}

// undoInit removes what a failed Init created: the whole directory when it
// did not exist before, otherwise only the new entries.
func undoInit(dir string, existing map[string]bool) error {
	if existing == nil {
		return os.RemoveAll(dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if !existing[e.Name()] {
			errs = append(errs, os.RemoveAll(filepath.Join(dir, e.Name())))
		}
	}
	return errors.Join(errs...)
}

// canonicalPath makes dir absolute and resolves symlinks in its longest
// existing prefix. Paths that cannot be resolved are returned as is.
func canonicalPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	var rest []string
	p := abs
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return abs, nil
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}

// defaultDir picks the cache location for scope: the user cache directory,
// or the first writable shared root for system scope.
func (c *Cache) defaultDir(scope config.Scope) (string, error) {
	if scope == config.ScopeSystem {
		for _, root := range c.sharedRoots {
			if writable(root) {
				return filepath.Join(root, dirName), nil
			}
		}
		return "", fmt.Errorf("no writable shared cache root among %s", strings.Join(c.sharedRoots, ", "))
	}
	if c.userRoot != "" {
		return c.userRoot, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating user cache directory: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

// writable reports whether files can be created in dir.
func writable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.CreateTemp(dir, ".git-cache-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// relaxPermissions makes the tree under root group-writable and marks
// directories setgid so new files inherit the group.
func relaxPermissions(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode().Perm() | 0o060
		if d.IsDir() {
			mode |= 0o010 | fs.ModeSetgid
		}
		return os.Chmod(path, mode)
	})
	if err != nil {
		return fmt.Errorf("sharing cache directory %s: %w", root, err)
	}
	return nil
}

// Destroy deletes every configured cache directory and its configuration
// entry, returning the directories removed. Scopes without a value are
// skipped. The directory is removed before the entry so a failed removal
// leaves the cache still registered.
func (c *Cache) Destroy(ctx context.Context, force bool) ([]string, error) {
	if !force {
		return nil, ErrConfirmationRequired
	}
	var removed []string
	for _, scope := range config.Scopes {
		dir, err := c.store.Get(ctx, scope)
		if err != nil {
			return removed, err
		}
		if dir == "" {
			continue
		}

		existed, err := removeCacheDir(dir)
		if err != nil {
			return removed, err
		}
		if err := c.store.Unset(ctx, scope); err != nil {
			return removed, err
		}
		if existed {
			removed = append(removed, dir)
		}
		c.logger.Debug("destroyed cache", "dir", dir, "scope", string(scope), "existed", existed)
	}
	return removed, nil
}

// removeCacheDir deletes dir if it holds a bare repository. A missing
// directory is not an error; any other directory is refused.
func removeCacheDir(dir string) (bool, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("inspecting cache directory %s: %w", dir, err)
	}
	if !IsInitialized(dir) {
		return false, fmt.Errorf("refusing to delete %s: it does not look like a git-cache repository", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("removing cache directory %s: %w", dir, err)
	}
	return true, nil
}

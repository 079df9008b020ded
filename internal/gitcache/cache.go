package gitcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kcghost/git-cache/internal/config"
	"github.com/kcghost/git-cache/internal/git"
	"github.com/kcghost/git-cache/internal/lock"
	"github.com/kcghost/git-cache/internal/settings"
)

// dirName is the cache directory created under a default root.
const dirName = "git-cache"

// Cache operates on the cache directory recorded in a config.Store.
type Cache struct {
	git         git.Runner
	store       config.Store
	userRoot    string
	sharedRoots []string
	locking     bool
	lockTimeout time.Duration
	command     string
	logger      *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithUserRoot sets the default directory for per-user caches.
func WithUserRoot(dir string) Option {
	return func(c *Cache) { c.userRoot = dir }
}

// WithSharedRoots sets the roots under which caches are shared between users.
func WithSharedRoots(roots ...string) Option {
	return func(c *Cache) { c.sharedRoots = roots }
}

// WithLocking enables or disables the advisory cache lock and bounds the wait for it.
func WithLocking(enabled bool, timeout time.Duration) Option {
	return func(c *Cache) {
		c.locking = enabled
		if timeout > 0 {
			c.lockTimeout = timeout
		}
	}
}

// WithCommand names the running command in lock holder records.
func WithCommand(name string) Option {
	return func(c *Cache) { c.command = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New returns a Cache that runs git through r and keeps its location in store.
func New(r git.Runner, store config.Store, opts ...Option) *Cache {
	c := &Cache{
		git:         r,
		store:       store,
		sharedRoots: settings.DefaultSharedRoots,
		locking:     true,
		lockTimeout: settings.DefaultLockTimeout,
		command:     "git-cache",
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the configured cache directory. It fails with a *NotFoundError
// when the key is unset or does not name an existing directory.
func (c *Cache) Dir(ctx context.Context) (string, error) {
	dir, err := c.store.Get(ctx, config.ScopeEffective)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", &NotFoundError{}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", &NotFoundError{Dir: dir}
	}
	return dir, nil
}

// IsShared reports whether path lies under one of the Cache's shared roots.
func (c *Cache) IsShared(path string) bool {
	return IsShared(path, c.sharedRoots)
}

// IsShared reports whether path is one of roots or lies beneath one.
func IsShared(path string, roots []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		if under(abs, filepath.Clean(root)) {
			return true
		}
		if canon, err := canonicalPath(root); err == nil && under(abs, canon) {
			return true
		}
	}
	return false
}

func under(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// IsInitialized reports whether dir already holds a bare repository.
func IsInitialized(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "HEAD"))
	return err == nil && !info.IsDir()
}

// withCache resolves the cache directory and runs fn while holding the cache
// lock in mode. Exclusive (mutating) work on a shared cache runs with a
// group-friendly umask.
func (c *Cache) withCache(ctx context.Context, mode lock.Mode, fn func(dir string) error) error {
	dir, err := c.Dir(ctx)
	if err != nil {
		return err
	}
	if mode == lock.Exclusive && c.IsShared(dir) {
		restore := relaxUmask()
		defer restore()
	}
	if c.locking {
		lctx, cancel := context.WithTimeout(ctx, c.lockTimeout)
		defer cancel()
		l, err := lock.Acquire(lctx, dir, mode, c.command)
		if err != nil {
			return err
		}
		c.logger.Debug("acquired cache lock", "path", l.Path(), "mode", mode.String())
		defer func() {
			if err := l.Release(); err != nil {
				c.logger.Warn("releasing cache lock", "error", err)
			}
		}()
	}
	return fn(dir)
}

func gitError(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kcghost/git-cache/internal/config"
	"github.com/kcghost/git-cache/internal/git"
	"github.com/kcghost/git-cache/internal/gitcache"
	"github.com/kcghost/git-cache/internal/logging"
	"github.com/kcghost/git-cache/internal/settings"
)

// app carries the streams and dependencies shared by every command. The
// cache is built on first use so help and version work without git.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	verbose    bool
	configPath string

	// Set by tests to replace the git binary or the git config store.
	runner git.Runner
	store  config.Store

	cache  *gitcache.Cache
	logger *slog.Logger
	closer io.Closer
}

// Cache loads settings and wires the cache on first call.
func (a *app) Cache() (*gitcache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}

	path := a.configPath
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	s, err := settings.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	s.ApplyEnv()

	a.logger, a.closer = logging.New(a.stderr, logging.Options{
		Verbose:    a.verbose,
		File:       s.Log.File,
		MaxSize:    s.Log.MaxSize,
		MaxBackups: s.Log.EffectiveMaxBackups(),
		MaxAge:     s.Log.MaxAge,
	})
	a.logger.Debug("loaded settings", "path", path)

	runner := a.runner
	if runner == nil {
		if !git.IsGitInstalled(s.GitBinary()) {
			return nil, fmt.Errorf("%s not found; git-cache needs git installed", s.GitBinary())
		}
		cli := git.New(s.GitBinary(), a.stdout, a.stderr)
		cli.Stdin = a.stdin
		cli.Logger = a.logger
		runner = cli
	}
	store := a.store
	if store == nil {
		store = config.NewGitStore(runner)
	}

	a.cache = gitcache.New(runner, store,
		gitcache.WithUserRoot(s.UserRoot),
		gitcache.WithSharedRoots(s.EffectiveSharedRoots()...),
		gitcache.WithLocking(!s.Lock.Disabled, s.LockTimeout()),
		gitcache.WithCommand("git-cache"),
		gitcache.WithLogger(a.logger),
	)
	return a.cache, nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// Package config stores the location of the cache directory. The value is
// kept under a single git configuration key at system or global scope, and
// is reached through the Store interface so callers can substitute an
// in-memory store.
package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kcghost/git-cache/internal/git"
)

// Key is the git configuration key holding the cache directory.
const Key = "cache.directory"

// Scope is a git configuration scope.
type Scope string

const (
	// ScopeSystem is machine-wide configuration, used for shared caches.
	ScopeSystem Scope = "system"
	// ScopeGlobal is per-user configuration.
	ScopeGlobal Scope = "global"
	// ScopeEffective reads the value git would use, honoring precedence.
	ScopeEffective Scope = ""
)

// Scopes lists the writable scopes, lowest precedence first.
var Scopes = []Scope{ScopeSystem, ScopeGlobal}

// ParseScope maps an init type keyword to a configuration scope.
// "local" (the default) is per-user; "global" is machine-wide.
func ParseScope(keyword string) (Scope, error) {
	switch keyword {
	case "", "local":
		return ScopeGlobal, nil
	case "global":
		return ScopeSystem, nil
	default:
		return "", fmt.Errorf("unknown cache type: %q (must be local or global)", keyword)
	}
}

// Keyword is the inverse of ParseScope.
func (s Scope) Keyword() string {
	if s == ScopeSystem {
		return "global"
	}
	return "local"
}

// Store reads and writes the cache directory at a scope.
// Get returns "" with a nil error when the key is unset.
type Store interface {
	Get(ctx context.Context, scope Scope) (string, error)
	Set(ctx context.Context, scope Scope, value string) error
	Unset(ctx context.Context, scope Scope) error
}

// GitStore keeps the value in git configuration files.
type GitStore struct {
	git git.Runner
}

// NewGitStore returns a Store that shells out to git config.
func NewGitStore(r git.Runner) *GitStore {
	return &GitStore{git: r}
}

// Get runs git config --get. Exit status 1 means the key is unset.
func (s *GitStore) Get(ctx context.Context, scope Scope) (string, error) {
	out, err := s.git.Output(ctx, "", scopeArgs(scope, "--get", Key)...)
	if err != nil {
		if git.IsExitCode(err, 1) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", Key, err)
	}
	return strings.TrimSpace(out), nil
}

// Set writes value at scope.
func (s *GitStore) Set(ctx context.Context, scope Scope, value string) error {
	if scope == ScopeEffective {
		return fmt.Errorf("writing %s: a scope is required", Key)
	}
	if _, err := s.git.Output(ctx, "", scopeArgs(scope, Key, value)...); err != nil {
		return fmt.Errorf("writing %s: %w", Key, err)
	}
	return nil
}

// Unset removes the key at scope. Exit status 5 means it was not set.
func (s *GitStore) Unset(ctx context.Context, scope Scope) error {
	if scope == ScopeEffective {
		return fmt.Errorf("removing %s: a scope is required", Key)
	}
	if _, err := s.git.Output(ctx, "", scopeArgs(scope, "--unset", Key)...); err != nil {
		if git.IsExitCode(err, 5) {
			return nil
		}
		return fmt.Errorf("removing %s: %w", Key, err)
	}
	return nil
}

func scopeArgs(scope Scope, rest ...string) []string {
	args := []string{"config"}
	if scope != ScopeEffective {
		args = append(args, "--"+string(scope))
	}
	return append(args, rest...)
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu     sync.Mutex
	values map[Scope]string
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[Scope]string)}
}

func (m *MemStore) Get(_ context.Context, scope Scope) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if scope != ScopeEffective {
		return m.values[scope], nil
	}
	for i := len(Scopes) - 1; i >= 0; i-- {
		if v := m.values[Scopes[i]]; v != "" {
			return v, nil
		}
	}
	return "", nil
}

func (m *MemStore) Set(_ context.Context, scope Scope, value string) error {
	if scope == ScopeEffective {
		return fmt.Errorf("writing %s: a scope is required", Key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope] = value
	return nil
}

func (m *MemStore) Unset(_ context.Context, scope Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, scope)
	return nil
}

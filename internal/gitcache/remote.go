package gitcache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/kcghost/git-cache/internal/lock"
)

// Remote is a named fetch remote registered in the cache.
type Remote struct {
	Name string
	URL  string
}

// AddRemote registers name -> url in the cache and fetches it.
func (c *Cache) AddRemote(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return usageErrorf("usage: git-cache add NAME URL")
	}
	return c.withCache(ctx, lock.Exclusive, func(dir string) error {
		if _, err := c.git.Output(ctx, dir, "remote", "add", name, url); err != nil {
			return gitError("adding remote "+name, err)
		}
		return c.git.Run(ctx, dir, "fetch", name)
	})
}

// RemoveRemote deletes a remote from the cache. Objects already fetched stay
// until git prunes them.
func (c *Cache) RemoveRemote(ctx context.Context, name string, force bool) error {
	if !force {
		return ErrConfirmationRequired
	}
	if name == "" {
		return usageErrorf("usage: git-cache rm --force NAME")
	}
	return c.withCache(ctx, lock.Exclusive, func(dir string) error {
		if _, err := c.git.Output(ctx, dir, "remote", "remove", name); err != nil {
			return gitError("removing remote "+name, err)
		}
		return nil
	})
}

// Remotes lists the cache's remotes sorted by name.
func (c *Cache) Remotes(ctx context.Context) ([]Remote, error) {
	dir, err := c.Dir(ctx)
	if err != nil {
		return nil, err
	}
	repo, err := openRepo(dir)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	out := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		url := ""
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		out = append(out, Remote{Name: cfg.Name, URL: url})
	}
	slices.SortFunc(out, func(a, b Remote) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Resolve returns the URL of the remote named token, or token itself when no
// such remote is registered.
func (c *Cache) Resolve(ctx context.Context, token string) (string, error) {
	dir, err := c.Dir(ctx)
	if err != nil {
		return "", err
	}
	return resolveIn(dir, token)
}

func resolveIn(dir, token string) (string, error) {
	if token == "" {
		return "", usageErrorf("a repository URL or cached remote name is required")
	}
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(token)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return token, nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up remote %s: %w", token, err)
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}
	return token, nil
}

func openRepo(dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", dir, err)
	}
	return repo, nil
}

// Update fetches every remote into the cache, pruning deleted refs.
func (c *Cache) Update(ctx context.Context) error {
	return c.withCache(ctx, lock.Exclusive, func(dir string) error {
		return c.git.Run(ctx, dir, "fetch", "--all", "--prune")
	})
}

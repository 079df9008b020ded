package gitcache

import (
	"context"

	"github.com/kcghost/git-cache/internal/lock"
)

// CloneOptions controls clones made through the cache.
type CloneOptions struct {
	// Dependent keeps the new repository borrowing objects from the cache
	// instead of copying them (no --dissociate). It saves disk space but the
	// clone breaks if the cache is deleted.
	Dependent bool
	// Args are forwarded to git after the repository URL.
	Args []string
}

// Clone clones the repository named by token (a cached remote name or a URL)
// using the cache as a reference.
func (c *Cache) Clone(ctx context.Context, token string, opts CloneOptions) error {
	return c.withCache(ctx, lock.Shared, func(dir string) error {
		url, err := resolveIn(dir, token)
		if err != nil {
			return err
		}
		return c.git.Run(ctx, "", cloneArgs(dir, url, opts)...)
	})
}

func cloneArgs(cacheDir, url string, opts CloneOptions) []string {
	args := []string{"clone", "--reference", cacheDir}
	if !opts.Dependent {
		args = append(args, "--dissociate")
	}
	args = append(args, url)
	return append(args, opts.Args...)
}

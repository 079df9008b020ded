package gitcache

import "context"

// Exec runs git with args inside the cache directory, e.g. "gc" or
// "remote -v". It takes no lock since the command is opaque.
func (c *Cache) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErrorf("a git command is required")
	}
	dir, err := c.Dir(ctx)
	if err != nil {
		return err
	}
	return c.git.Run(ctx, dir, args...)
}

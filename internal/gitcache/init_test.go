package gitcache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcghost/git-cache/internal/config"
	"github.com/kcghost/git-cache/internal/git"
	"github.com/kcghost/git-cache/internal/testutil"
)

func TestInit_explicitDir(t *testing.T) {
	for _, scope := range config.Scopes {
		t.Run(string(scope), func(t *testing.T) {
			c, store := newGitCache(t)
			ctx := context.Background()
			target := filepath.Join(testutil.TempDir(t), "objects")

			dir, err := c.Init(ctx, target, scope)
			require.NoError(t, err)
			assert.Equal(t, target, dir)
			assert.True(t, IsInitialized(dir))

			stored, err := store.Get(ctx, scope)
			require.NoError(t, err)
			assert.Equal(t, dir, stored)

			got, err := c.Dir(ctx)
			require.NoError(t, err)
			assert.Equal(t, dir, got)
		})
	}
}

func TestInit_relativePathIsCanonicalized(t *testing.T) {
	c, _ := newGitCache(t)
	wd := testutil.TempDir(t)
	t.Chdir(wd)

	dir, err := c.Init(context.Background(), "rel/cache", config.ScopeGlobal)
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join(wd, "rel", "cache"))
	require.NoError(t, err)
	assert.Equal(t, want, dir)
	assert.True(t, filepath.IsAbs(dir))

	got, err := c.Dir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestInit_twiceFailsAndLeavesCache(t *testing.T) {
	c, _ := newGitCache(t)
	ctx := context.Background()
	target := filepath.Join(testutil.TempDir(t), "cache")

	dir, err := c.Init(ctx, target, config.ScopeGlobal)
	require.NoError(t, err)
	marker := filepath.Join(dir, "description")
	before, err := os.ReadFile(marker)
	require.NoError(t, err)

	_, err = c.Init(ctx, target, config.ScopeSystem)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Contains(t, err.Error(), dir)

	after, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, IsInitialized(dir))
}

func TestInit_defaultUserRoot(t *testing.T) {
	root := filepath.Join(testutil.TempDir(t), "user-cache")
	c, store := newGitCache(t, WithUserRoot(root))

	dir, err := c.Init(context.Background(), "", config.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, root, dir)

	stored, _ := store.Get(context.Background(), config.ScopeGlobal)
	assert.Equal(t, root, stored)
}

func TestInit_defaultUserCacheDir(t *testing.T) {
	c, _ := newGitCache(t)
	base, err := os.UserCacheDir()
	require.NoError(t, err)

	dir, err := c.Init(context.Background(), "", config.ScopeGlobal)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(base, "git-cache"))
	require.NoError(t, err)
	assert.Equal(t, want, dir)
}

func TestInit_resolvesSymlinks(t *testing.T) {
	c, store := newGitCache(t)
	target := testutil.TempDir(t)
	link := filepath.Join(testutil.TempDir(t), "link")
	require.NoError(t, os.Symlink(target, link))

	dir, err := c.Init(context.Background(), filepath.Join(link, "nested", "cache"), config.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "nested", "cache"), dir)

	stored, _ := store.Get(context.Background(), config.ScopeGlobal)
	assert.Equal(t, dir, stored)
}

func TestIsShared_symlinkedRoot(t *testing.T) {
	target := testutil.TempDir(t)
	link := filepath.Join(testutil.TempDir(t), "shared")
	require.NoError(t, os.Symlink(target, link))

	assert.True(t, IsShared(filepath.Join(target, "git-cache"), []string{link}))
}

// failingStore records nothing and fails every Set.
type failingStore struct {
	*config.MemStore
}

func (failingStore) Set(context.Context, config.Scope, string) error {
	return errors.New("could not lock config file")
}

func TestInit_storeFailureRemovesNewDirectory(t *testing.T) {
	testutil.IsolateGitConfig(t)
	target := filepath.Join(testutil.TempDir(t), "cache")
	failing := New(git.New("", io.Discard, io.Discard), failingStore{config.NewMemStore()})

	_, err := failing.Init(context.Background(), target, config.ScopeSystem)
	require.ErrorContains(t, err, "could not lock config file")
	assert.NoDirExists(t, target)

	c, store := newGitCache(t)
	dir, err := c.Init(context.Background(), target, config.ScopeGlobal)
	require.NoError(t, err, "retrying after a failed init must succeed")
	stored, _ := store.Get(context.Background(), config.ScopeGlobal)
	assert.Equal(t, dir, stored)
}

func TestInit_storeFailureKeepsExistingContent(t *testing.T) {
	testutil.IsolateGitConfig(t)
	target := testutil.TempDir(t)
	keep := filepath.Join(target, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0600))
	failing := New(git.New("", io.Discard, io.Discard), failingStore{config.NewMemStore()})

	_, err := failing.Init(context.Background(), target, config.ScopeGlobal)
	require.Error(t, err)

	assert.FileExists(t, keep)
	assert.False(t, IsInitialized(target))
	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInit_sharedRoot(t *testing.T) {
	unwritable := filepath.Join(testutil.TempDir(t), "missing")
	root := testutil.TempDir(t)
	c, store := newGitCache(t, WithSharedRoots(unwritable, root))

	dir, err := c.Init(context.Background(), "", config.ScopeSystem)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "git-cache"), dir)
	assert.True(t, c.IsShared(dir))

	stored, _ := store.Get(context.Background(), config.ScopeSystem)
	assert.Equal(t, dir, stored)

	for _, p := range []string{dir, filepath.Join(dir, "objects"), filepath.Join(dir, "config")} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0o020, "%s should be group-writable", p)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "writability check must not leave files behind")
}

func TestInit_noWritableSharedRoot(t *testing.T) {
	c, store := newGitCache(t, WithSharedRoots(filepath.Join(testutil.TempDir(t), "missing")))

	_, err := c.Init(context.Background(), "", config.ScopeSystem)
	require.Error(t, err)

	stored, _ := store.Get(context.Background(), config.ScopeSystem)
	assert.Empty(t, stored)
}

func TestInit_invalidScope(t *testing.T) {
	c, _ := newGitCache(t)

	_, err := c.Init(context.Background(), testutil.TempDir(t), config.ScopeEffective)
	require.ErrorIs(t, err, ErrUsage)
}

func TestInit_cannotCreateDirectory(t *testing.T) {
	c, _ := newGitCache(t)
	file := filepath.Join(testutil.TempDir(t), "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	_, err := c.Init(context.Background(), filepath.Join(file, "cache"), config.ScopeGlobal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating cache directory")
}

func TestDestroy_requiresForce(t *testing.T) {
	c, dir := newInitializedCache(t)

	removed, err := c.Destroy(context.Background(), false)
	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, removed)
	assert.True(t, IsInitialized(dir))

	got, err := c.Dir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestDestroy_allScopes(t *testing.T) {
	c, store := newGitCache(t)
	ctx := context.Background()
	userDir, err := c.Init(ctx, filepath.Join(testutil.TempDir(t), "user"), config.ScopeGlobal)
	require.NoError(t, err)
	systemDir, err := c.Init(ctx, filepath.Join(testutil.TempDir(t), "system"), config.ScopeSystem)
	require.NoError(t, err)

	removed, err := c.Destroy(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{systemDir, userDir}, removed)

	for _, d := range removed {
		assert.NoDirExists(t, d)
	}
	for _, scope := range config.Scopes {
		v, _ := store.Get(ctx, scope)
		assert.Empty(t, v)
	}
	_, err = c.Dir(ctx)
	require.ErrorIs(t, err, ErrCacheNotFound)
}

func TestDestroy_nothingConfigured(t *testing.T) {
	c, _ := newGitCache(t)

	removed, err := c.Destroy(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestDestroy_missingDirectoryStillUnregisters(t *testing.T) {
	c, store := newGitCache(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, config.ScopeGlobal, filepath.Join(testutil.TempDir(t), "gone")))

	removed, err := c.Destroy(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, removed)

	v, _ := store.Get(ctx, config.ScopeGlobal)
	assert.Empty(t, v)
}

func TestDestroy_refusesNonCacheDirectory(t *testing.T) {
	c, store := newGitCache(t)
	ctx := context.Background()
	dir := testutil.TempDir(t)
	keep := filepath.Join(dir, "important.txt")
	require.NoError(t, os.WriteFile(keep, []byte("data"), 0600))
	require.NoError(t, store.Set(ctx, config.ScopeGlobal, dir))

	_, err := c.Destroy(ctx, true)
	require.Error(t, err)
	assert.FileExists(t, keep)

	v, _ := store.Get(ctx, config.ScopeGlobal)
	assert.Equal(t, dir, v, "configuration is kept when the directory is not removed")
}

func TestInit_usesGitInBareMode(t *testing.T) {
	c, _ := newGitCache(t)

	dir, err := c.Init(context.Background(), filepath.Join(testutil.TempDir(t), "bare"), config.ScopeGlobal)
	require.NoError(t, err)

	testutil.Git(t, dir, "rev-parse", "--is-bare-repository")
	assert.NoDirExists(t, filepath.Join(dir, ".git"))
}

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// IsolateGitConfig points git's global and system configuration at files in
// a temp directory so tests never read or write the developer's config.
// It also moves HOME and the XDG directories under the same temp directory.
func IsolateGitConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, ".cache"))
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(dir, "gitconfig-global"))
	t.Setenv("GIT_CONFIG_SYSTEM", filepath.Join(dir, "gitconfig-system"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "0")
	t.Setenv("GIT_CACHE_CONFIG", filepath.Join(dir, "git-cache.yaml"))
	t.Setenv("GIT_CACHE_LOG_FILE", "")
	return dir
}

// CreateBareRepo creates a bare git repository with an initial commit in a temp directory.
// Returns the path to the bare repo.
func CreateBareRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bare := filepath.Join(dir, "repo.git")

	// Create a working repo first, then clone it bare.
	work := filepath.Join(dir, "work")
	Git(t, dir, "init", "-b", "main", work)
	Git(t, work, "config", "user.email", "test@example.com")
	Git(t, work, "config", "user.name", "Test")

	readme := filepath.Join(work, "README.md")
	if err := os.WriteFile(readme, []byte("# test\n"), 0644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
	Git(t, work, "add", ".")
	Git(t, work, "commit", "-m", "initial commit")

	Git(t, dir, "clone", "--bare", work, bare)
	return bare
}

// CreateCache initializes an empty bare repository to act as a cache and
// registers the given remotes in it without fetching them.
func CreateCache(t *testing.T, remotes map[string]string) string {
	t.Helper()
	cache := filepath.Join(t.TempDir(), "cache")
	Git(t, "", "init", "--bare", "--quiet", cache)
	for name, url := range remotes {
		Git(t, cache, "remote", "add", name, url)
	}
	return cache
}

// Git runs the git binary in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
}

// TempDir returns t.TempDir() with symlinks resolved, the form git-cache
// records for cache paths.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kcghost/git-cache/internal/testutil"
)

// runCLI runs git-cache with args and returns the exit status and output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &app{stdin: strings.NewReader(""), stdout: &stdout, stderr: &stderr})
	return code, stdout.String(), stderr.String()
}

// mustRun runs git-cache and fails the test unless it exits 0.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, stdout, stderr := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("git-cache %v exited %d\nstdout: %s\nstderr: %s", args, code, stdout, stderr)
	}
	return stdout
}

// setupCache isolates git config and initializes a per-user cache.
func setupCache(t *testing.T) string {
	t.Helper()
	testutil.IsolateGitConfig(t)
	dir := filepath.Join(testutil.TempDir(t), "cache")
	mustRun(t, "init", dir, "local")
	return dir
}

func gitConfigGet(t *testing.T, scope string) string {
	t.Helper()
	out, err := exec.Command("git", "config", "--"+scope, "--get", "cache.directory").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func TestRun_initAddShow(t *testing.T) {
	dir := setupCache(t)
	src := testutil.CreateBareRepo(t)

	if got := gitConfigGet(t, "global"); got != dir {
		t.Fatalf("global cache.directory = %q, want %q", got, dir)
	}
	if got := gitConfigGet(t, "system"); got != "" {
		t.Errorf("system cache.directory = %q, want unset", got)
	}

	mustRun(t, "add", "origin", src)

	want := "origin " + src + "\n"
	if got := mustRun(t, "show"); got != want {
		t.Errorf("show = %q, want %q", got, want)
	}
	if got := mustRun(t); got != want {
		t.Errorf("no-argument output = %q, want %q", got, want)
	}
	if got := mustRun(t, "--verbose"); got != want {
		t.Errorf("--verbose output = %q, want %q", got, want)
	}
}

func TestRun_initGlobalRecordsSystemScope(t *testing.T) {
	testutil.IsolateGitConfig(t)
	dir := filepath.Join(testutil.TempDir(t), "machine")

	out := mustRun(t, "init", dir, "global")
	if !strings.Contains(out, dir) {
		t.Errorf("init output %q should name %s", out, dir)
	}
	if got := gitConfigGet(t, "system"); got != dir {
		t.Errorf("system cache.directory = %q, want %q", got, dir)
	}
	if got := gitConfigGet(t, "global"); got != "" {
		t.Errorf("global cache.directory = %q, want unset", got)
	}
}

func TestRun_initDefaultDirectory(t *testing.T) {
	home := testutil.IsolateGitConfig(t)

	mustRun(t, "init")

	want, err := filepath.EvalSymlinks(filepath.Join(home, ".cache", "git-cache"))
	if err != nil {
		t.Fatal(err)
	}
	if got := gitConfigGet(t, "global"); got != want {
		t.Errorf("cache.directory = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(want, "HEAD")); err != nil {
		t.Errorf("expected bare repository at %s: %v", want, err)
	}
}

func TestRun_initTwice(t *testing.T) {
	dir := setupCache(t)

	code, _, stderr := runCLI(t, "init", dir)
	if code != 1 {
		t.Fatalf("second init exited %d, want 1", code)
	}
	if !strings.Contains(stderr, "already initialized") {
		t.Errorf("stderr = %q, want already initialized message", stderr)
	}
}

func TestRun_initUnknownType(t *testing.T) {
	testutil.IsolateGitConfig(t)
	dir := filepath.Join(testutil.TempDir(t), "cache")

	code, _, stderr := runCLI(t, "init", dir, "everywhere")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "everywhere") {
		t.Errorf("stderr = %q, want the bad keyword", stderr)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache directory should not be created")
	}
}

func TestRun_deleteRequiresForce(t *testing.T) {
	dir := setupCache(t)

	code, _, stderr := runCLI(t, "delete")
	if code != 1 {
		t.Fatalf("delete without --force exited %d, want 1", code)
	}
	if !strings.Contains(stderr, "--force") {
		t.Errorf("stderr = %q, want a message requiring --force", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		t.Errorf("cache should be untouched: %v", err)
	}
	if got := gitConfigGet(t, "global"); got != dir {
		t.Errorf("cache.directory = %q, want %q", got, dir)
	}
}

func TestRun_deleteForce(t *testing.T) {
	dir := setupCache(t)

	out := mustRun(t, "delete", "--force")
	if !strings.Contains(out, "Removed "+dir) {
		t.Errorf("delete output = %q, want removed %s", out, dir)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache directory should have been removed")
	}
	if got := gitConfigGet(t, "global"); got != "" {
		t.Errorf("cache.directory = %q, want unset", got)
	}

	code, _, stderr := runCLI(t, "show")
	if code != 1 {
		t.Fatalf("show after delete exited %d, want 1", code)
	}
	if !strings.Contains(stderr, "git-cache init") {
		t.Errorf("stderr = %q, want init hint", stderr)
	}
}

func TestRun_removeRemote(t *testing.T) {
	dir := setupCache(t)
	testutil.Git(t, dir, "remote", "add", "origin", "https://example.com/repo.git")
	testutil.Git(t, dir, "remote", "add", "other", "https://example.com/other.git")

	if code, _, _ := runCLI(t, "rm", "origin"); code != 1 {
		t.Errorf("rm without --force exited %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "del", "--force"); code != 1 {
		t.Errorf("del without NAME exited %d, want 1", code)
	}

	mustRun(t, "rm", "--force", "origin")
	mustRun(t, "delete", "--force", "other")

	if got := mustRun(t, "show"); got != "" {
		t.Errorf("show = %q, want no remotes", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		t.Errorf("removing a remote must keep the cache: %v", err)
	}
}

func TestRun_update(t *testing.T) {
	dir := setupCache(t)
	src := testutil.CreateBareRepo(t)
	mustRun(t, "add", "origin", src)

	work := filepath.Join(testutil.TempDir(t), "work")
	testutil.Git(t, "", "clone", "--quiet", src, work)
	testutil.Git(t, work, "-c", "user.email=test@example.com", "-c", "user.name=Test",
		"commit", "--allow-empty", "-m", "second")
	testutil.Git(t, work, "push", "--quiet", "origin", "main")

	mustRun(t, "fetch")

	want, _ := exec.Command("git", "-C", src, "rev-parse", "main").Output()
	got, _ := exec.Command("git", "-C", dir, "rev-parse", "origin/main").Output()
	if string(got) != string(want) {
		t.Errorf("cache origin/main = %s, want %s", got, want)
	}
}

func TestRun_passthrough(t *testing.T) {
	setupCache(t)

	if got := mustRun(t, "config", "--get", "core.bare"); got != "true\n" {
		t.Errorf("core.bare = %q, want true", got)
	}

	code, _, _ := runCLI(t, "rev-parse", "--verify", "--quiet", "refs/heads/nope")
	if code != 1 {
		t.Errorf("passthrough exit = %d, want git's status 1", code)
	}
	code, _, stderr := runCLI(t, "no-such-git-command")
	if code == 0 {
		t.Error("unknown git command should fail")
	}
	if strings.Contains(stderr, "error: git") {
		t.Errorf("git reports its own failure, stderr = %q", stderr)
	}
}

func TestRun_notInitialized(t *testing.T) {
	testutil.IsolateGitConfig(t)

	for _, args := range [][]string{{"show"}, {"update"}, {"gc"}, {"add", "x", "https://example.com/x.git"}} {
		code, _, stderr := runCLI(t, args...)
		if code != 1 {
			t.Errorf("%v exited %d, want 1", args, code)
		}
		if !strings.Contains(stderr, "git-cache init") {
			t.Errorf("%v stderr = %q, want init hint", args, stderr)
		}
	}
}

func TestRun_addUsage(t *testing.T) {
	setupCache(t)

	code, _, stderr := runCLI(t, "add", "onlyname")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "usage: git-cache add NAME URL") {
		t.Errorf("stderr = %q, want usage line", stderr)
	}
}

func TestRun_clone(t *testing.T) {
	dir := setupCache(t)
	src := testutil.CreateBareRepo(t)
	mustRun(t, "add", "origin", src)
	work := testutil.TempDir(t)
	t.Chdir(work)

	mustRun(t, "clone", "origin", "standalone")
	if _, err := os.Stat(filepath.Join(work, "standalone", "README.md")); err != nil {
		t.Fatalf("clone missing checkout: %v", err)
	}
	if _, err := os.Stat(filepath.Join(work, "standalone", ".git", "objects", "info", "alternates")); !os.IsNotExist(err) {
		t.Error("dissociated clone should have no alternates file")
	}

	mustRun(t, "clone", "--dependent", "origin", "borrowed")
	data, err := os.ReadFile(filepath.Join(work, "borrowed", ".git", "objects", "info", "alternates"))
	if err != nil {
		t.Fatalf("dependent clone should keep alternates: %v", err)
	}
	if !strings.Contains(string(data), dir) {
		t.Errorf("alternates = %q, want it to reference %s", data, dir)
	}
}

func TestRun_cloneFailurePropagatesStatus(t *testing.T) {
	setupCache(t)
	t.Chdir(testutil.TempDir(t))

	code, _, _ := runCLI(t, "clone", filepath.Join(testutil.TempDir(t), "missing.git"), "dest")
	if code != 128 {
		t.Errorf("exit = %d, want git's status 128", code)
	}
}

func TestRun_submoduleAdd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pseudo-terminals are not available")
	}
	if f, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0); err != nil {
		t.Skipf("cannot open /dev/ptmx: %v", err)
	} else {
		_ = f.Close()
	}

	setupCache(t)
	testutil.Git(t, "", "config", "--global", "protocol.file.allow", "always")
	src := testutil.CreateBareRepo(t)
	mustRun(t, "add", "lib", src)

	super := filepath.Join(testutil.TempDir(t), "super")
	testutil.Git(t, "", "init", "--quiet", "-b", "main", super)
	t.Chdir(super)

	out := mustRun(t, "submodule", "add", "lib", "vendor/lib")
	want := filepath.Join(super, "vendor", "lib")
	if !strings.Contains(out, "Dissociated submodule "+want) {
		t.Errorf("output = %q, want dissociation of %s", out, want)
	}
	if _, err := os.Stat(filepath.Join(want, "README.md")); err != nil {
		t.Fatalf("submodule missing checkout: %v", err)
	}
	alternates := filepath.Join(super, ".git", "modules", "vendor", "lib", "objects", "info", "alternates")
	if _, err := os.Stat(alternates); !os.IsNotExist(err) {
		t.Errorf("alternates file should be removed, stat err = %v", err)
	}
	testutil.Git(t, want, "fsck", "--connectivity-only")
}

func TestRun_help(t *testing.T) {
	testutil.IsolateGitConfig(t)

	for _, arg := range []string{"help", "-help", "--help", "-h"} {
		code, stdout, _ := runCLI(t, arg)
		if code != 0 {
			t.Errorf("%s exited %d", arg, code)
		}
		if !strings.Contains(stdout, "submodule") || !strings.Contains(stdout, "clone") {
			t.Errorf("%s output missing commands: %q", arg, stdout)
		}
	}

	code, stdout, _ := runCLI(t, "clone", "--help")
	if code != 0 || !strings.Contains(stdout, "--dependent") {
		t.Errorf("clone --help = %d %q", code, stdout)
	}
}

func TestRun_version(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	if code != 0 || !strings.Contains(stdout, version) {
		t.Errorf("--version = %d %q", code, stdout)
	}
}

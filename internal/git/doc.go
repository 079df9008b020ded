// Package git runs the git binary on behalf of git-cache. It provides
// streamed, captured and pseudo-terminal invocations behind the Runner
// interface, and reports non-zero exits as *ExitError so callers can
// propagate git's own status.
package git

package gitcache

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to classify failures.
var (
	// ErrCacheNotFound indicates the cache directory is unset or missing.
	ErrCacheNotFound = errors.New("cache directory not found")

	// ErrUsage indicates missing or invalid arguments.
	ErrUsage = errors.New("usage error")

	// ErrAlreadyInitialized indicates init was run against an existing cache.
	ErrAlreadyInitialized = errors.New("cache already initialized")

	// ErrConfirmationRequired indicates a destructive operation without --force.
	ErrConfirmationRequired = errors.New("this operation is destructive and requires --force")

	// ErrSubmodulePathUnknown indicates the directory of a new submodule
	// could not be determined.
	ErrSubmodulePathUnknown = errors.New("submodule path unknown")
)

// NotFoundError reports an unconfigured or missing cache directory.
type NotFoundError struct {
	Dir string
}

func (e *NotFoundError) Error() string {
	if e.Dir == "" {
		return "cache directory is not configured; run 'git-cache init' first"
	}
	return fmt.Sprintf("cache directory %s does not exist; run 'git-cache init' first", e.Dir)
}

// Is returns true if the target error is ErrCacheNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCacheNotFound
}

// UsageError carries a usage message for the user.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Is returns true if the target error is ErrUsage
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// AlreadyInitializedError reports a directory that already holds a cache.
type AlreadyInitializedError struct {
	Dir string
}

func (e *AlreadyInitializedError) Error() string {
	return fmt.Sprintf("%s is already initialized", e.Dir)
}

// Is returns true if the target error is ErrAlreadyInitialized
func (e *AlreadyInitializedError) Is(target error) bool {
	return target == ErrAlreadyInitialized
}

// SubmodulePathError reports that neither .gitmodules nor git's output
// revealed where a submodule was cloned. Output is what git printed.
type SubmodulePathError struct {
	Output string
}

func (e *SubmodulePathError) Error() string {
	return "could not determine the new submodule directory; it still references the cache (rerun with --dependent to keep it that way)"
}

// Is returns true if the target error is ErrSubmodulePathUnknown
func (e *SubmodulePathError) Is(target error) bool {
	return target == ErrSubmodulePathUnknown
}

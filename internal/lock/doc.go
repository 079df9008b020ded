// Package lock provides an advisory lock on a cache directory. Commands that
// fetch into the cache or edit its remotes hold it exclusively, and clones
// that borrow objects from the cache hold it shared. The exclusive holder
// records itself in the lock file as YAML so waiting commands can report who
// they are waiting for.
package lock

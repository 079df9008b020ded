// Package gitcache manages a shared bare repository used as a Git object
// cache.
//
// The cache directory is recorded under the cache.directory git
// configuration key, per user (global scope) or per machine (system scope).
// Remotes registered in the cache are fetched into it, and clones made
// through Cache.Clone or Cache.SubmoduleAdd pass --reference so git borrows
// objects from the cache instead of downloading them again. Unless a
// dependent clone is requested the new repository is dissociated from the
// cache afterwards, so removing the cache never breaks it.
//
// Caches under a shared root (see IsShared) are made group-writable, and
// every mutation runs with a 0002 umask so other members of the group can
// keep using the cache. Mutations also take an advisory lock (see package
// lock).
package gitcache

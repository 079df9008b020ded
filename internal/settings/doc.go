// Package settings handles parsing of the git-cache config.yaml file, which
// selects the git binary, the default cache roots, lock behavior and the
// debug log. A missing file is equivalent to an empty one.
package settings

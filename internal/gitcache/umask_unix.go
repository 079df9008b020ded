//go:build unix

package gitcache

import "golang.org/x/sys/unix"

// relaxUmask clears the group-write bit from the process umask so files
// created in a shared cache stay writable by the group. It returns a func
// restoring the previous mask.
func relaxUmask() func() {
	old := unix.Umask(0o002)
	return func() { unix.Umask(old) }
}

//go:build !unix

package gitcache

func relaxUmask() func() { return func() {} }

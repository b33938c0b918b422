//go:build !windows

package fileutil

import "os"

// SecureMkdirAll creates a directory path and all parents that do not yet exist.
// On Unix this is os.MkdirAll; on Windows owner-only modes also get a
// restrictive DACL.
func SecureMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// SecureChmod changes the mode of the named file.
// On Unix this is os.Chmod; on Windows owner-only modes also get a
// restrictive DACL.
func SecureChmod(path string, perm os.FileMode) error {
	return os.Chmod(path, perm)
}

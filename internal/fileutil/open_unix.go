//go:build unix

package fileutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// openNoFollow opens a file read-only without following a symlink in the
// final path component.
func openNoFollow(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY|unix.O_NOFOLLOW, 0)
}

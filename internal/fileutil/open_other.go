//go:build !unix

package fileutil

import "os"

func openNoFollow(path string) (*os.File, error) {
	return os.Open(path)
}

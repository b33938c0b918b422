// Package fileutil provides cross-platform file helpers for the data
// directory and generated documentation.
//
// On Unix the Secure* helpers are thin wrappers around os.*. On Windows,
// owner-only modes (perm & 0077 == 0) additionally set a DACL restricting
// access to the current user.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxInputSize bounds how much ReadInput will read.
const MaxInputSize = 64 << 20

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, so readers never see a partial file. Missing parent
// directories are created owner-only.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := SecureMkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := SecureChmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// ReadInput reads a task file without following a symlink at path and
// refuses files larger than MaxInputSize.
func ReadInput(path string) ([]byte, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() > MaxInputSize {
		return nil, fmt.Errorf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), MaxInputSize)
	}
	return io.ReadAll(io.LimitReader(f, MaxInputSize+1))
}

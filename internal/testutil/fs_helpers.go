package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// checkLocal rejects names that would place a fixture outside the
// test's temp directory.
func checkLocal(name string) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("fixture path %q is not local to the test directory", name)
	}
	return nil
}

// WriteFile writes a fixture to dir/name, creating parent directories,
// and returns its path.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	if err := checkLocal(name); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// WriteJSON encodes v as an import file at dir/name.
func WriteJSON(t testing.TB, dir, name string, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	return WriteFile(t, dir, name, data)
}

// AssertFileContent fails the test unless the file at path holds want.
func AssertFileContent(t testing.TB, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s:\n got: %q\nwant: %q", filepath.Base(path), got, want)
	}
}

// MustExist fails the test if path cannot be stat'ed.
func MustExist(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

// MustNotExist fails the test if path exists or cannot be checked.
func MustNotExist(t testing.TB, path string) {
	t.Helper()
	_, err := os.Stat(path)
	switch {
	case err == nil:
		t.Fatalf("expected %s to be absent", path)
	case !errors.Is(err, fs.ErrNotExist):
		t.Fatalf("stat %s: %v", path, err)
	}
}

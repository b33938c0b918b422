package testutil

import (
	"path/filepath"
	"testing"

	"github.com/wesm/groupfn/internal/store"
	"github.com/wesm/groupfn/internal/task"
)

// NewTestStore creates a temporary database with the schema applied.
// The database is closed when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return st
}

// SeedTasks stores tasks as the named source and fails the test on error.
func SeedTasks(t *testing.T, st *store.Store, source string, tasks ...*task.Task) {
	t.Helper()
	if _, err := st.ReplaceSource(source, tasks); err != nil {
		t.Fatalf("seed %s: %v", source, err)
	}
}

// Package testutil provides test helpers for groupfn tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertStrings, etc.)
//   - builders.go: fluent task builders (NewTask)
//   - store_helpers.go: database test setup (NewTestStore, SeedTasks)
//   - fs_helpers.go: filesystem operations (WriteFile, ReadFile, MustExist)
//   - encoding.go: legacy-encoded task text for import tests
package testutil

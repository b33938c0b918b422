// Package query is the shared grouping layer behind the CLI, the HTTP API
// and the MCP server. It loads tasks from a backend, runs grouping
// instructions over them and shapes the result for output.
package query

import (
	"log/slog"
	"time"

	"github.com/wesm/groupfn/internal/importer"
)

// TaskFilter selects stored tasks. Zero values match everything.
type TaskFilter struct {
	Source     string // exact source name
	PathPrefix string // file path prefix, e.g. "Work/"
	Tag        string // exact tag including '#'
	OpenOnly   bool   // only TODO and IN_PROGRESS tasks
	Limit      int    // 0 means no limit
}

// TotalStats provides overall database statistics.
type TotalStats struct {
	TaskCount    int64 `json:"task_count"`
	OpenCount    int64 `json:"open_count"`
	TagCount     int64 `json:"tag_count"`
	SourceCount  int64 `json:"source_count"`
	DatabaseSize int64 `json:"database_size_bytes"`
}

// SourceInfo describes one imported source.
type SourceInfo struct {
	Name       string     `json:"name"`
	TaskCount  int64      `json:"task_count"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
}

// Settings control how instructions are compiled and evaluated.
type Settings struct {
	// Today anchors relative fields. Zero means the current date.
	Today time.Time
	// MaxOperations is the per-evaluation step ceiling, 0 for the default.
	MaxOperations int
	// Parallelism evaluates up to this many tasks at once.
	Parallelism int
	// Collation is a BCP 47 tag for heading order, empty for codepoint order.
	Collation string
	Logger    *slog.Logger
}

// GroupView is one output bucket. Keys are the raw group keys, one per
// instruction; Headings are the same keys as displayed.
type GroupView struct {
	Keys     []string          `json:"keys"`
	Headings []string          `json:"headings"`
	Tasks    []importer.Record `json:"tasks"`
}

// GroupResult is the outcome of running instructions over a task list.
type GroupResult struct {
	Instructions []string    `json:"instructions"`
	TaskCount    int         `json:"task_count"`
	Groups       []GroupView `json:"groups"`
}

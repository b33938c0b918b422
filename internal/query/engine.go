package query

import (
	"context"

	"github.com/wesm/groupfn/internal/task"
)

// Engine provides the task data grouping runs over.
// SQLiteEngine reads the local store; tests use querytest.MockEngine.
type Engine interface {
	// ListTasks returns stored tasks in source then file order.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error)

	// ListSources returns every imported source by name.
	ListSources(ctx context.Context) ([]SourceInfo, error)

	// GetTotalStats returns counts over the whole store.
	GetTotalStats(ctx context.Context) (*TotalStats, error)

	// Close releases any resources held by the engine.
	Close() error
}

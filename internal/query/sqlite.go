package query

import (
	"context"
	"fmt"

	"github.com/wesm/groupfn/internal/store"
	"github.com/wesm/groupfn/internal/task"
)

// SQLiteEngine implements Engine over the task store.
type SQLiteEngine struct {
	st *store.Store
}

// NewSQLiteEngine creates a new store-backed query engine. The engine
// does not own st; Close is a no-op.
func NewSQLiteEngine(st *store.Store) *SQLiteEngine {
	return &SQLiteEngine{st: st}
}

var _ Engine = (*SQLiteEngine)(nil)

func (e *SQLiteEngine) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := e.st.ListTasks(store.ListOptions{
		Source:     filter.Source,
		PathPrefix: filter.PathPrefix,
		Tag:        filter.Tag,
		OpenOnly:   filter.OpenOnly,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (e *SQLiteEngine) ListSources(ctx context.Context) ([]SourceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sources, err := e.st.ListSources()
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	out := make([]SourceInfo, 0, len(sources))
	for _, s := range sources {
		info := SourceInfo{Name: s.Name, TaskCount: s.TaskCount}
		if s.ImportedAt.Valid {
			at := s.ImportedAt.Time
			info.ImportedAt = &at
		}
		out = append(out, info)
	}
	return out, nil
}

func (e *SQLiteEngine) GetTotalStats(ctx context.Context) (*TotalStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := e.st.GetStats()
	if err != nil {
		return nil, err
	}
	return &TotalStats{
		TaskCount:    s.TaskCount,
		OpenCount:    s.OpenCount,
		TagCount:     s.TagCount,
		SourceCount:  s.SourceCount,
		DatabaseSize: s.DatabaseSize,
	}, nil
}

func (e *SQLiteEngine) Close() error { return nil }

// Package querytest provides shared test doubles for the query.Engine interface.
package querytest

import (
	"context"
	"strings"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/task"
)

// MockEngine implements query.Engine for testing. Each method delegates to an
// optional function field; when the field is nil, the canned data is used.
type MockEngine struct {
	Tasks   []*task.Task
	Sources []query.SourceInfo
	Stats   *query.TotalStats

	// Optional overrides for per-test behavior.
	ListTasksFunc     func(context.Context, query.TaskFilter) ([]*task.Task, error)
	GetTotalStatsFunc func(context.Context) (*query.TotalStats, error)

	// LastFilter records the filter of the most recent ListTasks call.
	LastFilter query.TaskFilter
	Closed     bool
}

// Compile-time check.
var _ query.Engine = (*MockEngine)(nil)

// ListTasks applies the path prefix, tag and limit filters to Tasks.
// Source and OpenOnly are recorded but not applied.
func (m *MockEngine) ListTasks(ctx context.Context, filter query.TaskFilter) ([]*task.Task, error) {
	m.LastFilter = filter
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, filter)
	}
	var out []*task.Task
	for _, t := range m.Tasks {
		if filter.PathPrefix != "" && !strings.HasPrefix(t.Path, filter.PathPrefix) {
			continue
		}
		if filter.Tag != "" && !hasTag(t, filter.Tag) {
			continue
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func hasTag(t *task.Task, tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

func (m *MockEngine) ListSources(_ context.Context) ([]query.SourceInfo, error) {
	return m.Sources, nil
}

func (m *MockEngine) GetTotalStats(ctx context.Context) (*query.TotalStats, error) {
	if m.GetTotalStatsFunc != nil {
		return m.GetTotalStatsFunc(ctx)
	}
	if m.Stats == nil {
		return &query.TotalStats{}, nil
	}
	return m.Stats, nil
}

func (m *MockEngine) Close() error {
	m.Closed = true
	return nil
}

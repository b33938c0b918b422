package query

import (
	"context"

	"github.com/wesm/groupfn/internal/search"
	"github.com/wesm/groupfn/internal/task"
)

// StoreFilter is the part of q an Engine can apply itself: the source,
// the path prefix, the first tag and the open-only flag.
func StoreFilter(q *search.Query) TaskFilter {
	f := TaskFilter{
		Source:     q.Source,
		PathPrefix: q.PathPrefix,
		OpenOnly:   q.OpenOnly,
	}
	if len(q.Tags) > 0 {
		f.Tag = q.Tags[0]
	}
	return f
}

// SelectTasks lists the tasks matching q. The engine narrows by
// StoreFilter; the remaining criteria and the limit are applied here.
func SelectTasks(ctx context.Context, engine Engine, q *search.Query) ([]*task.Task, error) {
	tasks, err := engine.ListTasks(ctx, StoreFilter(q))
	if err != nil {
		return nil, err
	}
	return Narrow(tasks, q), nil
}

// Narrow applies q's criteria and limit to tasks that did not come from
// an Engine.
func Narrow(tasks []*task.Task, q *search.Query) []*task.Task {
	tasks = q.Filter(tasks)
	if q.Limit > 0 && len(tasks) > q.Limit {
		tasks = tasks[:q.Limit]
	}
	return tasks
}

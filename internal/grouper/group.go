package grouper

import (
	"context"

	"github.com/wesm/groupfn/internal/task"
)

// Group is one bucket of the output: a heading per grouper level and the
// tasks under it, in input order.
type Group struct {
	Headings []string
	Tasks    []*task.Task
}

// GroupTasks partitions tasks by each grouper in turn. With several groupers
// the result is nested: the tasks under each heading of the first grouper
// are grouped again by the second, and so on. With no groupers a single
// group without headings holds every task.
func GroupTasks(ctx context.Context, tasks []*task.Task, groupers ...*Grouper) ([]Group, error) {
	if len(groupers) == 0 {
		return []Group{{Headings: []string{}, Tasks: tasks}}, nil
	}
	var out []Group
	if err := groupLevel(ctx, tasks, nil, groupers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func groupLevel(ctx context.Context, tasks []*task.Task, headings []string, groupers []*Grouper, out *[]Group) error {
	if len(groupers) == 0 {
		*out = append(*out, Group{Headings: headings, Tasks: tasks})
		return nil
	}
	g := groupers[0]
	memberships, err := g.Assign(ctx, tasks)
	if err != nil {
		return err
	}

	buckets := make(map[string][]*task.Task)
	keys := make([]string, 0)
	for _, m := range memberships {
		if _, ok := buckets[m.Key]; !ok {
			keys = append(keys, m.Key)
		}
		buckets[m.Key] = append(buckets[m.Key], m.Task)
	}

	for _, key := range SortHeadings(keys, g.order) {
		next := make([]string, len(headings), len(headings)+1)
		copy(next, headings)
		next = append(next, key)
		if err := groupLevel(ctx, buckets[key], next, groupers[1:], out); err != nil {
			return err
		}
	}
	return nil
}

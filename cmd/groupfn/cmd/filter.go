package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/fileutil"
	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/search"
	"github.com/wesm/groupfn/internal/task"
)

// taskSelection is the filter flags shared by commands that read tasks.
type taskSelection struct {
	filter  string
	source  string
	path    string
	tag     string
	open    bool
	limit   int
	tasksIn string    // JSON file to read instead of the store
	today   time.Time // anchors relative dates in the filter, zero for now
}

// query combines the --filter string with the individual flags, which
// take precedence. A limit: in the filter wins over --limit.
func (s taskSelection) query() *search.Query {
	p := search.NewParser()
	if !s.today.IsZero() {
		p.Now = func() time.Time { return s.today }
	}
	q := p.Parse(s.filter)
	if s.source != "" {
		q.Source = s.source
	}
	if s.path != "" {
		q.PathPrefix = s.path
	}
	if s.tag != "" {
		q.Tags = append(q.Tags, s.tag)
	}
	if s.open {
		q.OpenOnly = true
	}
	if s.limit > 0 && q.Limit == 0 {
		q.Limit = s.limit
	}
	return q
}

// load returns the selected tasks from the --tasks file or the engine.
func (s taskSelection) load(ctx context.Context, engine func() (query.Engine, func(), error)) ([]*task.Task, error) {
	q := s.query()

	if s.tasksIn == "" {
		e, closeFn, err := engine()
		if err != nil {
			return nil, err
		}
		defer closeFn()
		tasks, err := query.SelectTasks(ctx, e, q)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		return tasks, nil
	}

	if q.Source != "" {
		return nil, errors.New("--source applies to stored tasks, not --tasks")
	}
	data, err := fileutil.ReadInput(s.tasksIn)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	records, err := importer.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.tasksIn, err)
	}
	tasks, recErrs := importer.ToTasks(records)
	for _, e := range recErrs {
		logger.Warn("skipping invalid task record", "file", s.tasksIn, "index", e.Index, "error", e.Err)
	}
	return query.Narrow(tasks, q), nil
}

// storeEngine opens the configured store as a query engine.
func storeEngine() (query.Engine, func(), error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return query.NewSQLiteEngine(s), func() { _ = s.Close() }, nil
}

// addSelectionFlags registers the task filter flags on cmd.
func addSelectionFlags(cmd *cobra.Command, s *taskSelection) {
	cmd.Flags().StringVarP(&s.filter, "filter", "f", "", "filter such as 'source:work #urgent is:open due-before:7d'")
	cmd.Flags().StringVar(&s.source, "source", "", "only tasks from this imported source")
	cmd.Flags().StringVar(&s.path, "path", "", "only tasks whose file path starts with this prefix")
	cmd.Flags().StringVar(&s.tag, "tag", "", "only tasks with this tag, e.g. '#work'")
	cmd.Flags().BoolVar(&s.open, "open", false, "only tasks that are todo or in progress")
}

// Package grouper assigns tasks to group headings by evaluating a
// compiled grouping expression once per task.
package grouper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/textutil"
)

// Grouper evaluates one grouping expression. It is safe for concurrent use.
type Grouper struct {
	name        string
	program     *expr.Program
	today       time.Time
	order       Order
	parallelism int
	logger      *slog.Logger
}

// Option configures a Grouper.
type Option func(*Grouper)

// WithToday sets the date that relative fields (urgency, date
// categories) are computed against. Defaults to the current date.
func WithToday(today time.Time) Option {
	return func(g *Grouper) { g.today = task.Day(today) }
}

// WithOrder sets how the grouper's headings are sorted.
func WithOrder(o Order) Option {
	return func(g *Grouper) { g.order = o }
}

// WithReverse sorts headings in descending order.
func WithReverse(reverse bool) Option {
	return func(g *Grouper) { g.order.Reverse = reverse }
}

// WithParallelism evaluates up to n tasks at once. Values below 2 keep
// evaluation sequential.
func WithParallelism(n int) Option {
	return func(g *Grouper) { g.parallelism = n }
}

// WithLogger sets the logger used for per-pass diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grouper) { g.logger = logger }
}

// New creates a grouper for an already compiled program. name identifies
// the grouper in errors, e.g. "function".
func New(name string, program *expr.Program, opts ...Option) *Grouper {
	g := &Grouper{
		name:    name,
		program: program,
		today:   task.Day(time.Now()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the grouper's name.
func (g *Grouper) Name() string { return g.name }

// Snippet returns the source of the grouping expression.
func (g *Grouper) Snippet() string { return g.program.Source() }

// Order returns the heading order.
func (g *Grouper) Order() Order { return g.order }

// Keys evaluates the expression for t and normalizes the result into
// the task's group keys. Errors are *expr.RuntimeError.
func (g *Grouper) Keys(t *task.Task) ([]string, error) {
	v, err := g.program.Run(facade.Scope(t, g.today))
	if err != nil {
		return nil, err
	}
	keys, err := normalize(v)
	if err != nil {
		var re *expr.RuntimeError
		if errors.As(err, &re) {
			re.Source = g.program.Source()
		}
		return nil, err
	}
	return keys, nil
}

// Membership places one task under one key.
type Membership struct {
	Index int
	Task  *task.Task
	Key   string
}

// EvalError reports the task whose evaluation aborted a grouping pass.
type EvalError struct {
	Grouper string
	Snippet string
	Index   int
	Task    *task.Task
	Err     error
}

// evalErrorDescWidth bounds how much of the task description an
// EvalError message quotes.
const evalErrorDescWidth = 40

func (e *EvalError) Error() string {
	desc := ""
	if e.Task != nil {
		desc = textutil.Truncate(e.Task.Description, evalErrorDescWidth)
	}
	return fmt.Sprintf("group by %s %s: task %d (%q): %v", e.Grouper, e.Snippet, e.Index, desc, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Assign evaluates every task and returns its memberships in task
// order, keys within a task in the order the expression produced them.
// The first failing task (lowest index) aborts the pass.
func (g *Grouper) Assign(ctx context.Context, tasks []*task.Task) ([]Membership, error) {
	keys := make([][]string, len(tasks))
	errs := make([]error, len(tasks))

	if g.parallelism < 2 || len(tasks) < 2 {
		for i, t := range tasks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			k, err := g.Keys(t)
			if err != nil {
				return nil, g.evalError(i, t, err)
			}
			keys[i] = k
		}
	} else {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(g.parallelism)
		for i, t := range tasks {
			// Stop launching after a failure. Tasks already launched
			// run to completion so the lowest failing index is stable.
			if gctx.Err() != nil {
				break
			}
			eg.Go(func() error {
				k, err := g.Keys(t)
				if err != nil {
					errs[i] = err
					return err
				}
				keys[i] = k
				return nil
			})
		}
		waitErr := eg.Wait()
		for i, err := range errs {
			if err != nil {
				return nil, g.evalError(i, tasks[i], err)
			}
		}
		if waitErr != nil {
			return nil, waitErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var out []Membership
	for i, ks := range keys {
		for _, k := range ks {
			out = append(out, Membership{Index: i, Task: tasks[i], Key: k})
		}
	}
	g.logger.Debug("grouping pass complete",
		"grouper", g.name,
		"tasks", len(tasks),
		"memberships", len(out),
	)
	return out, nil
}

func (g *Grouper) evalError(i int, t *task.Task, err error) error {
	return &EvalError{Grouper: g.name, Snippet: g.program.Source(), Index: i, Task: t, Err: err}
}

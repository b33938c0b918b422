package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/wesm/groupfn/internal/config"
	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/grouper"
	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/instruction"
	"github.com/wesm/groupfn/internal/task"
)

// ErrNoInstructions is returned when the query text holds no grouping
// lines, only blanks and comments.
var ErrNoInstructions = errors.New("no group by function instructions given")

// SettingsFromConfig builds evaluation settings from the [grouping]
// config section. now is used when no fixed date is configured.
func SettingsFromConfig(cfg *config.Config, now time.Time, logger *slog.Logger) Settings {
	return Settings{
		Today:         cfg.Today(now),
		MaxOperations: cfg.Grouping.MaxOperations,
		Parallelism:   cfg.Grouping.Parallelism,
		Collation:     cfg.Grouping.Collation,
		Logger:        logger,
	}
}

func (s Settings) grouperOptions() []grouper.Option {
	opts := []grouper.Option{
		grouper.WithOrder(grouper.Order{Collation: s.Collation}),
		grouper.WithParallelism(s.Parallelism),
	}
	if !s.Today.IsZero() {
		opts = append(opts, grouper.WithToday(s.Today))
	}
	if s.Logger != nil {
		opts = append(opts, grouper.WithLogger(s.Logger))
	}
	return opts
}

// Compile parses text, one instruction per line, and compiles every
// expression. Nothing is evaluated.
func Compile(text string, s Settings) ([]*instruction.Instruction, []*grouper.Grouper, error) {
	ins, err := instruction.ParseAll(text)
	if err != nil {
		return nil, nil, err
	}
	if len(ins) == 0 {
		return nil, nil, ErrNoInstructions
	}
	groupers, err := instruction.Groupers(ins, []expr.Option{expr.WithMaxOperations(s.MaxOperations)}, s.grouperOptions()...)
	if err != nil {
		return nil, nil, HintFields(err)
	}
	return ins, groupers, nil
}

// Group runs the instructions in text over tasks. Any instruction that
// fails to parse, compile or evaluate fails the whole query.
func Group(ctx context.Context, text string, tasks []*task.Task, s Settings) (*GroupResult, error) {
	ins, groupers, err := Compile(text, s)
	if err != nil {
		return nil, err
	}
	groups, err := grouper.GroupTasks(ctx, tasks, groupers...)
	if err != nil {
		return nil, err
	}

	res := &GroupResult{
		Instructions: make([]string, 0, len(ins)),
		TaskCount:    len(tasks),
		Groups:       make([]GroupView, 0, len(groups)),
	}
	for _, in := range ins {
		res.Instructions = append(res.Instructions, in.Line)
	}
	for _, g := range groups {
		v := GroupView{
			Keys:     g.Headings,
			Headings: make([]string, len(g.Headings)),
			Tasks:    make([]importer.Record, 0, len(g.Tasks)),
		}
		for i, k := range g.Headings {
			v.Headings[i] = grouper.DisplayHeading(k)
		}
		for _, t := range g.Tasks {
			v.Tasks = append(v.Tasks, importer.RecordFromTask(t))
		}
		res.Groups = append(res.Groups, v)
	}
	return res, nil
}

// JoinInstructions turns separately supplied lines into query text.
func JoinInstructions(lines []string) string {
	return strings.Join(lines, "\n")
}

// IsUserError reports whether err was caused by the query itself (a bad
// instruction line, expression or evaluation) rather than by the system.
func IsUserError(err error) bool {
	var (
		ie *instruction.Error
		se *expr.SyntaxError
		re *expr.RuntimeError
		ee *grouper.EvalError
	)
	return errors.Is(err, ErrNoInstructions) ||
		errors.As(err, &ie) || errors.As(err, &se) || errors.As(err, &re) || errors.As(err, &ee)
}

package testutil

import (
	"time"

	"github.com/wesm/groupfn/internal/task"
)

// TaskBuilder provides a fluent API for constructing task.Task in tests.
type TaskBuilder struct {
	t task.Task
}

// NewTask creates a builder for a todo task with the given description
// in notes/tasks.md. Tags are not inferred from the description.
func NewTask(description string) *TaskBuilder {
	return &TaskBuilder{
		t: task.Task{
			Description: description,
			Status:      task.StatusForSymbol(" "),
			Priority:    task.PriorityNone,
			Path:        "notes/tasks.md",
		},
	}
}

// WithStatus sets the status from one of the core symbols.
func (b *TaskBuilder) WithStatus(symbol string) *TaskBuilder {
	b.t.Status = task.StatusForSymbol(symbol)
	return b
}

// Done marks the task done on the given date.
func (b *TaskBuilder) Done(year int, month time.Month, day int) *TaskBuilder {
	b.t.Status = task.StatusForSymbol("x")
	b.t.Done = task.DatePtr(year, month, day)
	return b
}

func (b *TaskBuilder) WithPriority(p task.Priority) *TaskBuilder {
	b.t.Priority = p
	return b
}

func (b *TaskBuilder) WithTags(tags ...string) *TaskBuilder {
	b.t.Tags = tags
	return b
}

func (b *TaskBuilder) Due(year int, month time.Month, day int) *TaskBuilder {
	b.t.Due = task.DatePtr(year, month, day)
	return b
}

func (b *TaskBuilder) Scheduled(year int, month time.Month, day int) *TaskBuilder {
	b.t.Scheduled = task.DatePtr(year, month, day)
	return b
}

func (b *TaskBuilder) Start(year int, month time.Month, day int) *TaskBuilder {
	b.t.Start = task.DatePtr(year, month, day)
	return b
}

func (b *TaskBuilder) Created(year int, month time.Month, day int) *TaskBuilder {
	b.t.Created = task.DatePtr(year, month, day)
	return b
}

// Cancelled marks the task cancelled on the given date.
func (b *TaskBuilder) Cancelled(year int, month time.Month, day int) *TaskBuilder {
	b.t.Status = task.StatusForSymbol("-")
	b.t.Cancelled = task.DatePtr(year, month, day)
	return b
}

func (b *TaskBuilder) WithRecurrence(rule string) *TaskBuilder {
	b.t.Recurrence = rule
	return b
}

// WithPath sets the file path. An empty path means the task has no file.
func (b *TaskBuilder) WithPath(path string) *TaskBuilder {
	b.t.Path = path
	return b
}

func (b *TaskBuilder) WithHeading(heading string) *TaskBuilder {
	b.t.Heading = heading
	return b
}

func (b *TaskBuilder) WithBlockLink(link string) *TaskBuilder {
	b.t.BlockLink = link
	return b
}

func (b *TaskBuilder) AtLine(n int) *TaskBuilder {
	b.t.LineNumber = n
	return b
}

// Build returns a new task. The builder can be reused.
func (b *TaskBuilder) Build() *task.Task {
	t := b.t
	t.Tags = append([]string(nil), b.t.Tags...)
	return &t
}

// Descriptions returns the description of each task, for compact assertions.
func Descriptions(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

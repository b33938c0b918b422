// Package facade exposes a task to grouping expressions.
//
// A facade is a read-only view: every accessor returns a value or a
// sentinel (null, "", an absent Date) and never fails.
package facade

import (
	"time"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/task"
)

// Field describes one property visible on the task object.
type Field struct {
	Name string
	Kind string
	Doc  string

	get func(v *view) any
}

type view struct {
	t     *task.Task
	today time.Time
}

// Fields lists the task properties in documentation order.
var Fields = []Field{
	{Name: "created", Kind: "Date", Doc: "Date the task was created.", get: func(v *view) any { return v.date(v.t.Created) }},
	{Name: "done", Kind: "Date", Doc: "Date the task was completed.", get: func(v *view) any { return v.date(v.t.Done) }},
	{Name: "due", Kind: "Date", Doc: "Date the task is due.", get: func(v *view) any { return v.date(v.t.Due) }},
	{Name: "scheduled", Kind: "Date", Doc: "Date the task is scheduled for.", get: func(v *view) any { return v.date(v.t.Scheduled) }},
	{Name: "start", Kind: "Date", Doc: "Date work on the task can start.", get: func(v *view) any { return v.date(v.t.Start) }},
	{Name: "cancelled", Kind: "Date", Doc: "Date the task was cancelled.", get: func(v *view) any { return v.date(v.t.Cancelled) }},
	{Name: "happens", Kind: "Date", Doc: "Earliest of the start, scheduled and due dates.", get: func(v *view) any { return v.date(v.t.Happens()) }},

	{Name: "isDone", Kind: "boolean", Doc: "Whether the status counts as finished.", get: func(v *view) any { return v.t.IsDone() }},
	{Name: "isRecurring", Kind: "boolean", Doc: "Whether the task has a recurrence rule.", get: func(v *view) any { return v.t.IsRecurring() }},
	{Name: "recurrenceRule", Kind: "string", Doc: "Recurrence rule text, empty when not recurring.", get: func(v *view) any { return v.t.Recurrence }},

	{Name: "status", Kind: "Status", Doc: "Status object with name, symbol, nextSymbol and type.", get: func(v *view) any { return statusObject(v.t.Status) }},
	{Name: "priorityName", Kind: "string", Doc: "Priority name such as High or Normal.", get: func(v *view) any { return v.t.Priority.Name() }},
	{Name: "priorityNumber", Kind: "number", Doc: "Priority number, 0 is the highest.", get: func(v *view) any { return float64(v.t.Priority) }},

	{Name: "tags", Kind: "string[]", Doc: "Tags in the order they appear, duplicates included.", get: func(v *view) any { return stringArray(v.t.Tags) }},
	{Name: "description", Kind: "string", Doc: "Description text including tags.", get: func(v *view) any { return v.t.Description }},
	{Name: "descriptionWithoutTags", Kind: "string", Doc: "Description with every tag removed.", get: func(v *view) any { return v.t.DescriptionWithoutTags() }},
	{Name: "blockLink", Kind: "string", Doc: "Block link, empty when none.", get: func(v *view) any { return v.t.BlockLink }},
	{Name: "urgency", Kind: "number", Doc: "Urgency score.", get: func(v *view) any { return v.t.Urgency(v.today) }},

	{Name: "file", Kind: "File", Doc: "File object with path, root, folder, filename and filenameWithoutExtension.", get: func(v *view) any { return fileObject(v.t) }},
	{Name: "heading", Kind: "string|null", Doc: "Closest preceding heading, null when none.", get: func(v *view) any {
		if v.t.Heading == "" {
			return nil
		}
		return v.t.Heading
	}},
	{Name: "hasHeading", Kind: "boolean", Doc: "Whether the task has a preceding heading.", get: func(v *view) any { return v.t.Heading != "" }},
	{Name: "lineNumber", Kind: "number", Doc: "Zero-based line number in the file.", get: func(v *view) any { return float64(v.t.LineNumber) }},
}

var fieldIndex = func() map[string]*Field {
	m := make(map[string]*Field, len(Fields))
	for i := range Fields {
		m[Fields[i].Name] = &Fields[i]
	}
	return m
}()

// Names returns the identifiers a grouping expression may reference:
// "task" and every field name as a bare identifier.
func Names() []string {
	names := make([]string, 0, len(Fields)+1)
	names = append(names, "task")
	for _, f := range Fields {
		names = append(names, f.Name)
	}
	return names
}

// Compile compiles a grouping expression with the task names in scope.
func Compile(src string, opts ...expr.Option) (*expr.Program, error) {
	return expr.Compile(src, append([]expr.Option{expr.WithNames(Names()...)}, opts...)...)
}

// Scope binds t for one evaluation. Relative fields (urgency, date
// categories) are computed against today.
func Scope(t *task.Task, today time.Time) expr.Object {
	return &scope{obj: &Task{v: view{t: t, today: task.Day(today)}}}
}

type scope struct {
	obj *Task
}

func (s *scope) Field(name string) (any, bool) {
	if name == "task" {
		return s.obj, true
	}
	return s.obj.Field(name)
}

// Task is the object bound to the name "task".
type Task struct {
	v view
}

// Field implements expr.Object.
func (o *Task) Field(name string) (any, bool) {
	f, ok := fieldIndex[name]
	if !ok {
		return nil, false
	}
	return f.get(&o.v), true
}

func (o *Task) String() string {
	return o.v.t.Description
}

func (v *view) date(d *time.Time) Date {
	return Date{t: d, today: v.today}
}

func statusObject(s task.Status) expr.Fields {
	return expr.Fields{
		"name":       s.Name,
		"symbol":     s.Symbol,
		"nextSymbol": s.NextSymbol,
		"type":       s.Type.String(),
	}
}

func fileObject(t *task.Task) expr.Fields {
	return expr.Fields{
		"path":                     t.Path,
		"root":                     t.Root(),
		"folder":                   t.Folder(),
		"filename":                 t.Filename(),
		"filenameWithoutExtension": t.FilenameWithoutExtension(),
	}
}

func stringArray(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Package task defines the task records that groupfn groups.
// A Task is an immutable snapshot owned by the caller; nothing in the
// grouping engine modifies it.
package task

import (
	"path"
	"strings"
	"time"
)

// StatusType classifies a status independently of its symbol.
type StatusType int

const (
	StatusTodo StatusType = iota
	StatusInProgress
	StatusDone
	StatusCancelled
	StatusNonTask
	StatusEmpty
)

func (s StatusType) String() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusDone:
		return "DONE"
	case StatusCancelled:
		return "CANCELLED"
	case StatusNonTask:
		return "NON_TASK"
	case StatusEmpty:
		return "EMPTY"
	default:
		return "Unknown"
	}
}

// ParseStatusType maps the String form back to a StatusType.
// Unrecognised names map to StatusTodo.
func ParseStatusType(s string) StatusType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN_PROGRESS":
		return StatusInProgress
	case "DONE":
		return StatusDone
	case "CANCELLED":
		return StatusCancelled
	case "NON_TASK":
		return StatusNonTask
	case "EMPTY":
		return StatusEmpty
	default:
		return StatusTodo
	}
}

// Status describes the checkbox state of a task.
type Status struct {
	Symbol     string
	NextSymbol string
	Name       string
	Type       StatusType
}

// DefaultStatuses are the core statuses keyed by symbol.
var DefaultStatuses = map[string]Status{
	" ": {Symbol: " ", NextSymbol: "x", Name: "Todo", Type: StatusTodo},
	"/": {Symbol: "/", NextSymbol: "x", Name: "In Progress", Type: StatusInProgress},
	"x": {Symbol: "x", NextSymbol: " ", Name: "Done", Type: StatusDone},
	"-": {Symbol: "-", NextSymbol: " ", Name: "Cancelled", Type: StatusCancelled},
}

// StatusForSymbol returns the default status for symbol, or a todo-typed
// status named "Unknown" when the symbol is not one of the core ones.
func StatusForSymbol(symbol string) Status {
	if s, ok := DefaultStatuses[symbol]; ok {
		return s
	}
	return Status{Symbol: symbol, NextSymbol: "x", Name: "Unknown", Type: StatusTodo}
}

// Priority is ordered so that a lower number is more important.
type Priority int

const (
	PriorityHighest Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityNone
	PriorityLow
	PriorityLowest
)

// Name is the display name of the priority. PriorityNone is "Normal".
func (p Priority) Name() string {
	switch p {
	case PriorityHighest:
		return "Highest"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityNone:
		return "Normal"
	case PriorityLow:
		return "Low"
	case PriorityLowest:
		return "Lowest"
	default:
		return "Unknown"
	}
}

// ParsePriority accepts either a name ("high", "normal", ...) or "none".
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest":
		return PriorityHighest, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "", "none", "normal":
		return PriorityNone, true
	case "low":
		return PriorityLow, true
	case "lowest":
		return PriorityLowest, true
	}
	return PriorityNone, false
}

// Task is one task line and its metadata.
type Task struct {
	Description string
	Status      Status
	Priority    Priority // zero value is PriorityHighest; set PriorityNone for "Normal"
	Tags        []string

	// Dates are calendar dates at midnight UTC. nil means absent.
	Created   *time.Time
	Done      *time.Time
	Due       *time.Time
	Scheduled *time.Time
	Start     *time.Time
	Cancelled *time.Time

	Recurrence string // recurrence rule text, empty when not recurring

	Path       string // file path using forward slashes
	Heading    string // closest preceding heading, empty when none
	BlockLink  string // e.g. " ^abc123"
	LineNumber int
}

// Day normalises t to a calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DatePtr is a convenience for building tasks with literal dates.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// IsDone reports whether the status counts as finished.
func (t *Task) IsDone() bool {
	switch t.Status.Type {
	case StatusDone, StatusCancelled, StatusNonTask:
		return true
	}
	return false
}

// IsRecurring reports whether the task has a recurrence rule.
func (t *Task) IsRecurring() bool {
	return strings.TrimSpace(t.Recurrence) != ""
}

// Happens is the earliest of the start, scheduled and due dates.
func (t *Task) Happens() *time.Time {
	var earliest *time.Time
	for _, d := range []*time.Time{t.Start, t.Scheduled, t.Due} {
		if d == nil {
			continue
		}
		if earliest == nil || d.Before(*earliest) {
			earliest = d
		}
	}
	return earliest
}

// DescriptionWithoutTags returns the description with every tag removed
// and whitespace collapsed.
func (t *Task) DescriptionWithoutTags() string {
	desc := t.Description
	for _, tag := range t.Tags {
		desc = strings.ReplaceAll(desc, tag, "")
	}
	return strings.Join(strings.Fields(desc), " ")
}

// Folder is the directory containing the task's file, with a trailing slash.
// A file at the top level is in folder "/".
func (t *Task) Folder() string {
	dir := path.Dir(t.Path)
	if dir == "." || dir == "/" || t.Path == "" {
		return "/"
	}
	return strings.TrimPrefix(dir, "/") + "/"
}

// Root is the first path segment with a trailing slash, or "/" for a
// top-level file.
func (t *Task) Root() string {
	p := strings.TrimPrefix(t.Path, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i+1]
	}
	return "/"
}

// Filename is the base name of the task's file, empty when there is no path.
func (t *Task) Filename() string {
	if t.Path == "" {
		return ""
	}
	return path.Base(t.Path)
}

// FilenameWithoutExtension strips the final extension from Filename.
func (t *Task) FilenameWithoutExtension() string {
	name := t.Filename()
	return strings.TrimSuffix(name, path.Ext(name))
}

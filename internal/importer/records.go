// Package importer reads exported task lists into task records and
// stores them as sources.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/textutil"
)

// Record is the JSON form of one task. Dates are YYYY-MM-DD; empty or
// missing fields are absent.
type Record struct {
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`     // checkbox symbol, default " "
	StatusName  string   `json:"statusName,omitempty"` // overrides the name for the symbol
	StatusType  string   `json:"statusType,omitempty"` // TODO, IN_PROGRESS, DONE, CANCELLED or NON_TASK
	NextStatus  string   `json:"nextStatus,omitempty"`
	Priority    string   `json:"priority,omitempty"` // highest, high, medium, normal, low, lowest
	Tags        []string `json:"tags,omitempty"`
	Created     string   `json:"created,omitempty"`
	Done        string   `json:"done,omitempty"`
	Due         string   `json:"due,omitempty"`
	Scheduled   string   `json:"scheduled,omitempty"`
	Start       string   `json:"start,omitempty"`
	Cancelled   string   `json:"cancelled,omitempty"`
	Recurrence  string   `json:"recurrence,omitempty"`
	Path        string   `json:"path,omitempty"`
	Heading     string   `json:"heading,omitempty"`
	BlockLink   string   `json:"blockLink,omitempty"`
	LineNumber  int      `json:"lineNumber,omitempty"`
}

// RecordError reports a record that could not be converted.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Task converts the record. Field text is repaired to valid UTF-8.
func (r Record) Task() (*task.Task, error) {
	desc := strings.TrimSpace(textutil.EnsureUTF8(r.Description))
	if desc == "" {
		return nil, fmt.Errorf("description is required")
	}

	symbol := r.Status
	if symbol == "" {
		symbol = " "
	}
	status := task.StatusForSymbol(symbol)
	if r.StatusName != "" {
		status.Name = textutil.EnsureUTF8(r.StatusName)
	}
	if r.StatusType != "" {
		status.Type = task.ParseStatusType(r.StatusType)
	}
	if r.NextStatus != "" {
		status.NextSymbol = r.NextStatus
	}

	priority, ok := task.ParsePriority(r.Priority)
	if !ok {
		return nil, fmt.Errorf("unknown priority %q", r.Priority)
	}

	t := &task.Task{
		Description: desc,
		Status:      status,
		Priority:    priority,
		Recurrence:  strings.TrimSpace(r.Recurrence),
		Path:        strings.ReplaceAll(textutil.EnsureUTF8(r.Path), `\`, "/"),
		Heading:     textutil.EnsureUTF8(r.Heading),
		BlockLink:   r.BlockLink,
		LineNumber:  r.LineNumber,
	}
	for _, tag := range r.Tags {
		tag = strings.TrimSpace(textutil.EnsureUTF8(tag))
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		t.Tags = append(t.Tags, tag)
	}

	for _, d := range []struct {
		name string
		src  string
		dest **time.Time
	}{
		{"created", r.Created, &t.Created},
		{"done", r.Done, &t.Done},
		{"due", r.Due, &t.Due},
		{"scheduled", r.Scheduled, &t.Scheduled},
		{"start", r.Start, &t.Start},
		{"cancelled", r.Cancelled, &t.Cancelled},
	} {
		if d.src == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(d.src))
		if err != nil {
			return nil, fmt.Errorf("%s date %q: want YYYY-MM-DD", d.name, d.src)
		}
		*d.dest = &parsed
	}
	return t, nil
}

// RecordFromTask is the inverse of Record.Task.
func RecordFromTask(t *task.Task) Record {
	date := func(d *time.Time) string {
		if d == nil {
			return ""
		}
		return d.Format(time.DateOnly)
	}
	r := Record{
		Description: t.Description,
		Status:      t.Status.Symbol,
		Tags:        t.Tags,
		Created:     date(t.Created),
		Done:        date(t.Done),
		Due:         date(t.Due),
		Scheduled:   date(t.Scheduled),
		Start:       date(t.Start),
		Cancelled:   date(t.Cancelled),
		Recurrence:  t.Recurrence,
		Path:        t.Path,
		Heading:     t.Heading,
		BlockLink:   t.BlockLink,
		LineNumber:  t.LineNumber,
	}
	if def := task.StatusForSymbol(t.Status.Symbol); def != t.Status {
		r.StatusName = t.Status.Name
		r.StatusType = t.Status.Type.String()
		r.NextStatus = t.Status.NextSymbol
	}
	if t.Priority != task.PriorityNone {
		r.Priority = strings.ToLower(t.Priority.Name())
	}
	return r
}

// ToTasks converts records, collecting a RecordError for each record that
// fails instead of stopping at the first.
func ToTasks(records []Record) ([]*task.Task, []*RecordError) {
	tasks := make([]*task.Task, 0, len(records))
	var errs []*RecordError
	for i, r := range records {
		t, err := r.Task()
		if err != nil {
			errs = append(errs, &RecordError{Index: i, Err: err})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, errs
}

// DecodeRecords parses a JSON array of records, or an object with a
// "tasks" array. data is repaired to UTF-8 first.
func DecodeRecords(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(textutil.DecodeFile(data))
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if data[0] == '{' {
		var wrapper struct {
			Tasks []Record `json:"tasks"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
		return wrapper.Tasks, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return records, nil
}

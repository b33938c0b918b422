package docsample

import (
	"time"

	"github.com/wesm/groupfn/internal/task"
)

// Fixture is a named, representative set of tasks.
type Fixture struct {
	Name  string
	Tasks []*task.Task
}

// FixtureAll is the union of every other fixture.
const FixtureAll = "all"

func date(y int, m time.Month, d int) *time.Time { return task.DatePtr(y, m, d) }

func todo(desc string) *task.Task {
	return &task.Task{Description: desc, Status: task.StatusForSymbol(" "), Priority: task.PriorityNone, Path: "Tasks/inbox.md"}
}

// absent has every optional field empty, including the file path.
func absent() *task.Task {
	return &task.Task{Description: "Task with no optional fields", Status: task.StatusForSymbol(" "), Priority: task.PriorityNone}
}

func with(t *task.Task, f func(*task.Task)) *task.Task {
	f(t)
	return t
}

// Fixtures returns fresh copies of the representative record sets, one
// per field family, followed by FixtureAll. Dates are relative to
// DefaultToday (Wednesday 2023-11-15).
func Fixtures() []Fixture {
	fixtures := []Fixture{
		{Name: "dates", Tasks: []*task.Task{
			with(todo("Overdue task"), func(t *task.Task) { t.Due = date(2023, time.November, 10) }),
			with(todo("Due today"), func(t *task.Task) { t.Due = date(2023, time.November, 15) }),
			with(todo("Due on the weekend"), func(t *task.Task) { t.Due = date(2023, time.November, 18) }),
			with(todo("Due next year"), func(t *task.Task) { t.Due = date(2024, time.January, 3) }),
			with(todo("Scheduled and started"), func(t *task.Task) {
				t.Scheduled = date(2023, time.November, 20)
				t.Start = date(2023, time.November, 13)
				t.Created = date(2023, time.October, 1)
			}),
			with(todo("Finished"), func(t *task.Task) {
				t.Status = task.StatusForSymbol("x")
				t.Done = date(2023, time.November, 14)
				t.Created = date(2022, time.December, 31)
			}),
			with(todo("Dropped"), func(t *task.Task) {
				t.Status = task.StatusForSymbol("-")
				t.Cancelled = date(2023, time.September, 30)
			}),
			absent(),
		}},
		{Name: "tags", Tasks: []*task.Task{
			with(todo("Call plumber #context/home #task"), func(t *task.Task) { t.Tags = []string{"#context/home", "#task"} }),
			with(todo("Tags out of order #b #a"), func(t *task.Task) { t.Tags = []string{"#b", "#a"} }),
			with(todo("Tags in order #a #b"), func(t *task.Task) { t.Tags = []string{"#a", "#b"} }),
			with(todo("Repeated tag #x #x"), func(t *task.Task) { t.Tags = []string{"#x", "#x"} }),
			with(todo("Nested tag #context/work/meetings"), func(t *task.Task) { t.Tags = []string{"#context/work/meetings"} }),
			absent(),
		}},
		{Name: "file", Tasks: []*task.Task{
			with(todo("In a nested folder"), func(t *task.Task) { t.Path = "Work/Admin/bills.md" }),
			with(todo("In a journal"), func(t *task.Task) { t.Path = "Journal/2023-11-15.md" }),
			with(todo("At the top level"), func(t *task.Task) { t.Path = "inbox.md" }),
			with(todo("Deeply nested"), func(t *task.Task) { t.Path = "a/b/c/d.md" }),
			with(todo("Name with dots"), func(t *task.Task) { t.Path = "Projects/v1.2 release.notes.md" }),
			absent(),
		}},
		{Name: "status", Tasks: []*task.Task{
			todo("Not started"),
			with(todo("In progress"), func(t *task.Task) { t.Status = task.StatusForSymbol("/") }),
			with(todo("Done"), func(t *task.Task) { t.Status = task.StatusForSymbol("x") }),
			with(todo("Cancelled"), func(t *task.Task) { t.Status = task.StatusForSymbol("-") }),
			with(todo("Custom status"), func(t *task.Task) { t.Status = task.StatusForSymbol("?") }),
			with(todo("Not a task"), func(t *task.Task) {
				t.Status = task.Status{Symbol: "~", NextSymbol: "~", Name: "Note", Type: task.StatusNonTask}
			}),
			absent(),
		}},
		{Name: "priority", Tasks: []*task.Task{
			with(todo("Highest"), func(t *task.Task) { t.Priority = task.PriorityHighest }),
			with(todo("High"), func(t *task.Task) { t.Priority = task.PriorityHigh }),
			with(todo("Medium"), func(t *task.Task) { t.Priority = task.PriorityMedium }),
			with(todo("Low"), func(t *task.Task) { t.Priority = task.PriorityLow }),
			with(todo("Lowest"), func(t *task.Task) { t.Priority = task.PriorityLowest }),
			absent(),
		}},
		{Name: "recurrence", Tasks: []*task.Task{
			with(todo("Daily"), func(t *task.Task) { t.Recurrence = "every day"; t.Due = date(2023, time.November, 16) }),
			with(todo("Weekly when done"), func(t *task.Task) { t.Recurrence = "every week when done" }),
			with(todo("Monthly"), func(t *task.Task) { t.Recurrence = "every month on the 1st" }),
			absent(),
		}},
		{Name: "description", Tasks: []*task.Task{
			todo("Short"),
			todo("Write the quarterly report for the finance team before the board meeting next week"),
			with(todo("Review PR 1234 #review"), func(t *task.Task) { t.Tags = []string{"#review"} }),
			todo("  Leading and trailing spaces  "),
			todo("Café au lait ☕"),
			todo("JIRA-42 fix login"),
			absent(),
		}},
		{Name: "heading", Tasks: []*task.Task{
			with(todo("Under a heading"), func(t *task.Task) { t.Heading = "Shopping" }),
			with(todo("Under another heading"), func(t *task.Task) { t.Heading = "Work: Q4 planning" }),
			with(todo("Before any heading"), func(t *task.Task) { t.Path = "Tasks/notes.md" }),
			absent(),
		}},
		{Name: "urgency", Tasks: []*task.Task{
			with(todo("Very urgent"), func(t *task.Task) {
				t.Priority = task.PriorityHighest
				t.Due = date(2023, time.November, 1)
			}),
			with(todo("Due soon"), func(t *task.Task) { t.Due = date(2023, time.November, 17) }),
			with(todo("Scheduled today"), func(t *task.Task) { t.Scheduled = date(2023, time.November, 15) }),
			with(todo("Not started yet"), func(t *task.Task) {
				t.Start = date(2023, time.December, 1)
				t.Priority = task.PriorityLowest
			}),
			absent(),
		}},
		{Name: "blocklink", Tasks: []*task.Task{
			with(todo("Linked"), func(t *task.Task) { t.BlockLink = " ^abc123" }),
			with(todo("Also linked"), func(t *task.Task) { t.BlockLink = " ^def456" }),
			absent(),
		}},
	}

	var all []*task.Task
	for _, f := range fixtures {
		all = append(all, f.Tasks...)
	}
	for i, t := range all {
		if t.LineNumber == 0 {
			t.LineNumber = i
		}
	}
	return append(fixtures, Fixture{Name: FixtureAll, Tasks: all})
}

// FixtureByName looks a fixture up in fixtures.
func FixtureByName(fixtures []Fixture, name string) (Fixture, bool) {
	for _, f := range fixtures {
		if f.Name == name {
			return f, true
		}
	}
	return Fixture{}, false
}

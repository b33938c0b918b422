package facade

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/groupfn/internal/task"
)

var today = time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

func sampleTask() *task.Task {
	return &task.Task{
		Description: "Pay rent #home #money",
		Status:      task.StatusForSymbol("/"),
		Priority:    task.PriorityHigh,
		Tags:        []string{"#home", "#money"},
		Due:         task.DatePtr(2024, time.May, 1),
		Scheduled:   task.DatePtr(2024, time.May, 10),
		Start:       task.DatePtr(2024, time.April, 28),
		Recurrence:  "every month",
		Path:        "Work/Admin/bills.md",
		Heading:     "Bills",
		LineNumber:  7,
	}
}

func eval(t *testing.T, tk *task.Task, src string) any {
	t.Helper()
	p, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	v, err := p.Run(Scope(tk, today))
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return v
}

func TestFields(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{`task.description`, "Pay rent #home #money"},
		{`description`, "Pay rent #home #money"},
		{`task.descriptionWithoutTags`, "Pay rent"},
		{`task.tags.join(",")`, "#home,#money"},
		{`task.status.name`, "In Progress"},
		{`task.status.symbol`, "/"},
		{`task.status.nextSymbol`, "x"},
		{`task.status.type`, "IN_PROGRESS"},
		{`task.priorityName`, "High"},
		{`task.priorityNumber`, 1.0},
		{`task.isDone`, false},
		{`isDone`, false},
		{`task.isRecurring`, true},
		{`task.recurrenceRule`, "every month"},
		{`task.file.path`, "Work/Admin/bills.md"},
		{`task.file.root`, "Work/"},
		{`task.file.folder`, "Work/Admin/"},
		{`task.file.filename`, "bills.md"},
		{`task.file.filenameWithoutExtension`, "bills"},
		{`task.heading`, "Bills"},
		{`task.hasHeading`, true},
		{`task.lineNumber`, 7.0},
		{`task.blockLink`, ""},
		{`task.happens.format("YYYY-MM-DD")`, "2024-04-28"},
		{`task.due.asDateText()`, "2024-05-01"},
		{`task.due.formatAsDateAndTime()`, "2024-05-01 00:00"},
		{`task.due.toISOString()`, "2024-05-01T00:00:00.000Z"},
		{`task.due.moment.format("Do MMMM")`, "1st May"},
		{`task.due.moment.year()`, 2024.0},
		{`task.due.category.groupText`, "%%1%% Overdue"},
		{`task.scheduled.category.name`, "Today"},
		{`task.nonexistent`, nil},
		{"`${task.due}`", "2024-05-01"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got := eval(t, sampleTask(), tc.src)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAbsentFieldsAreSentinels(t *testing.T) {
	empty := &task.Task{Status: task.StatusForSymbol(" "), Priority: task.PriorityNone}
	tests := []struct {
		src  string
		want any
	}{
		{`task.due.format("YYYY-MM-DD")`, ""},
		{`task.due.format("YYYY-MM-DD", "no date")`, "no date"},
		{`task.done.asDateText("none")`, "none"},
		{`task.start.toISOString("-")`, "-"},
		{`task.due.moment`, nil},
		{`task.due.moment?.format("YYYY") ?? "none"`, "none"},
		{`task.due.category.name`, "Undated"},
		{`task.due.category.number`, 4.0},
		{`task.due.category.groupText`, ""},
		{`task.due.fromNow.name`, ""},
		{`task.heading`, nil},
		{`task.hasHeading`, false},
		{`task.tags.length`, 0.0},
		{`task.file.root`, "/"},
		{`task.file.folder`, "/"},
		{`task.file.filename`, ""},
		{`task.recurrenceRule`, ""},
		{`task.priorityName`, "Normal"},
		{`task.happens.format("YYYY")`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got := eval(t, empty, tc.src)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDateCategory(t *testing.T) {
	tests := []struct {
		due  *time.Time
		want string
	}{
		{task.DatePtr(2024, time.May, 9), "%%1%% Overdue"},
		{task.DatePtr(2024, time.May, 10), "%%2%% Today"},
		{task.DatePtr(2024, time.May, 11), "%%3%% Future"},
		{nil, ""},
	}
	for _, tc := range tests {
		d := Date{t: tc.due, today: today}
		got := d.category()["groupText"]
		if got != tc.want {
			t.Errorf("category(%v) = %v, want %q", tc.due, got, tc.want)
		}
	}
}

func TestFromNow(t *testing.T) {
	past := Date{t: task.DatePtr(2024, time.May, 7), today: today}.fromNow()
	if name := past["name"].(string); !strings.HasSuffix(name, "ago") {
		t.Errorf("past name = %q, want suffix ago", name)
	}
	if past["number"] != 20240507.0 {
		t.Errorf("past number = %v", past["number"])
	}
	future := Date{t: task.DatePtr(2024, time.June, 10), today: today}.fromNow()
	if name := future["name"].(string); !strings.HasSuffix(name, "from now") {
		t.Errorf("future name = %q, want suffix from now", name)
	}
	same := Date{t: task.DatePtr(2024, time.May, 10), today: today}.fromNow()
	if same["groupText"] != "%%20240510%% today" {
		t.Errorf("same-day groupText = %v", same["groupText"])
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2023, time.January, 2, 15, 4, 5, 0, time.UTC) // a Monday
	tests := []struct {
		pattern string
		want    string
	}{
		{"YYYY-MM-DD", "2023-01-02"},
		{"YY/M/D", "23/1/2"},
		{"dddd, MMMM Do", "Monday, January 2nd"},
		{"ddd MMM", "Mon Jan"},
		{"[Week] WW, E, d", "Week 01, 1, 1"},
		{"Q", "1"},
		{"HH:mm:ss", "15:04:05"},
		{"h A, hh a", "3 PM, 03 pm"},
		{"[YYYY] YYYY", "YYYY 2023"},
		{"YYYY-MM-DDTHH:mm:ssZ", "2023-01-02T15:04:05+00:00"},
	}
	for _, tc := range tests {
		if got := Format(ts, tc.pattern); got != tc.want {
			t.Errorf("Format(%q) = %q, want %q", tc.pattern, got, tc.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	for n, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 31: "31st"} {
		if got := ordinal(n); got != want {
			t.Errorf("ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestNamesCoverFields(t *testing.T) {
	names := Names()
	if names[0] != "task" {
		t.Fatalf("Names()[0] = %q, want task", names[0])
	}
	if len(names) != len(Fields)+1 {
		t.Fatalf("len(Names()) = %d, want %d", len(names), len(Fields)+1)
	}
	for _, f := range Fields {
		if f.Doc == "" || f.Kind == "" {
			t.Errorf("field %s lacks doc or kind", f.Name)
		}
	}
}

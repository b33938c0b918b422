package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wesm/groupfn/internal/store"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

func TestRecordTask(t *testing.T) {
	r := Record{
		Description: "  Pay rent  ",
		Status:      "/",
		Priority:    "High",
		Tags:        []string{"#home", "finance", " "},
		Due:         "2024-06-01",
		Done:        "",
		Recurrence:  "every month ",
		Path:        `notes\bills.md`,
		Heading:     "Bills",
		BlockLink:   " ^rent",
		LineNumber:  7,
	}
	got, err := r.Task()
	testutil.MustNoErr(t, err, "Task")

	want := testutil.NewTask("Pay rent").
		WithStatus("/").
		WithPriority(task.PriorityHigh).
		WithTags("#home", "#finance").
		Due(2024, time.June, 1).
		WithRecurrence("every month").
		WithPath("notes/bills.md").
		WithHeading("Bills").
		WithBlockLink(" ^rent").
		AtLine(7).
		Build()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Task() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordTaskDefaults(t *testing.T) {
	got, err := Record{Description: "Buy milk"}.Task()
	testutil.MustNoErr(t, err, "Task")
	if got.Status.Name != "Todo" || got.Priority != task.PriorityNone || got.Due != nil || got.Path != "" {
		t.Errorf("defaults = %+v", got)
	}
}

func TestRecordTaskCustomStatus(t *testing.T) {
	got, err := Record{Description: "Idea", Status: "i", StatusName: "Idea", StatusType: "NON_TASK", NextStatus: "i"}.Task()
	testutil.MustNoErr(t, err, "Task")
	want := task.Status{Symbol: "i", NextSymbol: "i", Name: "Idea", Type: task.StatusNonTask}
	if got.Status != want {
		t.Errorf("Status = %+v, want %+v", got.Status, want)
	}
}

func TestRecordTaskErrors(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"blank description", Record{Description: "  "}, "description is required"},
		{"bad priority", Record{Description: "x", Priority: "urgent"}, `unknown priority "urgent"`},
		{"bad date", Record{Description: "x", Due: "06/01/2024"}, "due date"},
		{"impossible date", Record{Description: "x", Start: "2024-02-30"}, "start date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.rec.Task()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestRecordFromTaskRoundTrip(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("Plain").Build(),
		testutil.NewTask("Rich").
			Done(2024, time.May, 1).
			Created(2024, time.April, 1).
			WithPriority(task.PriorityLowest).
			WithTags("#a").
			WithHeading("H").
			AtLine(3).
			Build(),
		{Description: "Custom", Status: task.Status{Symbol: "?", NextSymbol: "!", Name: "Question", Type: task.StatusInProgress}, Priority: task.PriorityNone},
	}
	for _, want := range tasks {
		got, err := RecordFromTask(want).Task()
		testutil.MustNoErr(t, err, "Task")
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("round trip of %q (-want +got):\n%s", want.Description, diff)
		}
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []string
	}{
		{"array", []byte(`[{"description":"a"},{"description":"b"}]`), []string{"a", "b"}},
		{"wrapped", []byte(`{"tasks":[{"description":"c"}]}`), []string{"c"}},
		{"empty", []byte("  \n"), nil},
		{"utf-16", testutil.UTF16LEWithBOM(`[{"description":"日本"}]`), []string{"日本"}},
		{"legacy bytes", []byte("[{\"description\":\"Rand\x92s Opponent\"}]"), []string{"Rand’s Opponent"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records, err := DecodeRecords(tc.in)
			testutil.MustNoErr(t, err, "DecodeRecords")
			var got []string
			for _, r := range records {
				got = append(got, r.Description)
			}
			testutil.AssertStrings(t, got, tc.want...)
		})
	}

	if _, err := DecodeRecords([]byte(`[{"description":`)); err == nil {
		t.Error("truncated JSON should fail")
	}
}

func TestToTasksCollectsErrors(t *testing.T) {
	tasks, errs := ToTasks([]Record{
		{Description: "ok"},
		{Description: ""},
		{Description: "also ok"},
		{Description: "bad", Due: "tomorrow"},
	})
	testutil.AssertStrings(t, testutil.Descriptions(tasks), "ok", "also ok")
	if len(errs) != 2 || errs[0].Index != 1 || errs[1].Index != 3 {
		t.Fatalf("errs = %v, want records 1 and 3", errs)
	}
}

const exportJSON = `[
  {"description": "Pay rent", "tags": ["#home"], "due": "2024-06-01"},
  {"description": "", "due": "2024-06-02"},
  {"description": "Ship release", "status": "x", "done": "2024-05-09", "path": "work/releases.md"}
]`

func TestImportFile(t *testing.T) {
	st := testutil.NewTestStore(t)
	path := testutil.WriteFile(t, t.TempDir(), "export.json", []byte(exportJSON))

	summary, err := ImportFile(context.Background(), st, path, Options{})
	testutil.MustNoErr(t, err, "ImportFile")
	if summary.Source != "export.json" || summary.RecordsRead != 3 || summary.TasksImported != 2 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}

	got, err := st.ListTasks(store.ListOptions{Source: "export.json"})
	testutil.MustNoErr(t, err, "ListTasks")
	testutil.AssertStrings(t, testutil.Descriptions(got), "Pay rent", "Ship release")

	// Re-importing replaces rather than duplicates.
	_, err = ImportFile(context.Background(), st, path, Options{})
	testutil.MustNoErr(t, err, "second ImportFile")
	got, err = st.ListTasks(store.ListOptions{})
	testutil.MustNoErr(t, err, "ListTasks")
	if len(got) != 2 {
		t.Errorf("got %d tasks after re-import, want 2", len(got))
	}
}

func TestImportFileStrict(t *testing.T) {
	st := testutil.NewTestStore(t)
	path := testutil.WriteFile(t, t.TempDir(), "export.json", []byte(exportJSON))

	_, err := ImportFile(context.Background(), st, path, Options{Source: "inbox", Strict: true})
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Index != 1 {
		t.Fatalf("err = %v, want RecordError for record 1", err)
	}
	stats, err := st.GetStats()
	testutil.MustNoErr(t, err, "GetStats")
	if stats.TaskCount != 0 {
		t.Errorf("strict failure stored %d tasks", stats.TaskCount)
	}
}

func TestImportFileCancelled(t *testing.T) {
	st := testutil.NewTestStore(t)
	path := testutil.WriteFile(t, t.TempDir(), "export.json", []byte(exportJSON))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ImportFile(ctx, st, path, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

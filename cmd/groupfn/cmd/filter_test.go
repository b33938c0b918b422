package cmd

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/testutil"
)

func TestTaskSelectionQuery(t *testing.T) {
	sel := taskSelection{
		filter: "source:home #a due-before:1d limit:5",
		source: "work",
		tag:    "#b",
		open:   true,
		limit:  50,
		today:  time.Date(2023, time.November, 15, 0, 0, 0, 0, time.UTC),
	}
	q := sel.query()

	if q.Source != "work" {
		t.Errorf("Source = %q, flag should win", q.Source)
	}
	if diff := cmp.Diff([]string{"#a", "#b"}, q.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if !q.OpenOnly {
		t.Error("OpenOnly not set from --open")
	}
	if q.Limit != 5 {
		t.Errorf("Limit = %d, want the filter's 5", q.Limit)
	}
	want := time.Date(2023, time.November, 16, 0, 0, 0, 0, time.UTC)
	if q.DueBefore == nil || !q.DueBefore.Equal(want) {
		t.Errorf("DueBefore = %v, want %v", q.DueBefore, want)
	}
}

func TestTaskSelectionLoadFromFile(t *testing.T) {
	prev := logger
	logger = slog.New(slog.DiscardHandler)
	t.Cleanup(func() { logger = prev })

	path := testutil.WriteFile(t, t.TempDir(), "tasks.json", []byte(`[
  {"description": "Pay rent #home", "tags": ["#home"]},
  {"description": "Ship release #work", "tags": ["#work"]},
  {"description": ""}
]`))
	sel := taskSelection{tasksIn: path, tag: "#work"}
	noStore := func() (query.Engine, func(), error) {
		return nil, nil, errors.New("store should not be opened")
	}

	tasks, err := sel.load(context.Background(), noStore)
	testutil.MustNoErr(t, err, "load")
	testutil.AssertStrings(t, testutil.Descriptions(tasks), "Ship release #work")

	sel.source = "inbox"
	if _, err := sel.load(context.Background(), noStore); err == nil {
		t.Error("--source with --tasks should be rejected")
	}
}

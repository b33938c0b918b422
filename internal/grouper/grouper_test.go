package grouper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

var today = time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

func newGrouper(t *testing.T, src string, opts ...Option) *Grouper {
	t.Helper()
	p, err := facade.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return New("function", p, append([]Option{WithToday(today)}, opts...)...)
}

// bucketsOf flattens single-level groups into heading -> descriptions.
func bucketsOf(t *testing.T, groups []Group) map[string][]string {
	t.Helper()
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		if len(g.Headings) != 1 {
			t.Fatalf("group has %d headings, want 1", len(g.Headings))
		}
		out[g.Headings[0]] = testutil.Descriptions(g.Tasks)
	}
	return out
}

func headingsOf(groups []Group) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.Headings
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"null", nil, []string{""}},
		{"empty string", "", []string{""}},
		{"string kept verbatim", "  Padded ", []string{"  Padded "}},
		{"integer", 3.0, []string{"3"}},
		{"fraction", 2.5, []string{"2.5"}},
		{"bool", true, []string{"true"}},
		{"empty array", []any{}, []string{""}},
		{"array", []any{"b", "a"}, []string{"b", "a"}},
		{"array duplicates", []any{"a", "a", "b"}, []string{"a", "b"}},
		{"array with empty string", []any{"", "a"}, []string{"", "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalize(tc.in)
			if err != nil {
				t.Fatalf("normalize(%v): %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeRejectsOtherShapes(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantMsg string
	}{
		{"object", expr.Fields{}, "an object"},
		{"function", expr.Func(nil), "a function"},
		{"number in array", []any{"a", 1.0}, "element 1 is a number"},
		{"null in array", []any{nil}, "element 0 is null"},
		{"nested array", []any{[]any{"a"}}, "element 0 is an array"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalize(tc.in)
			var re *expr.RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("err = %v, want *expr.RuntimeError", err)
			}
			testutil.AssertContainsAll(t, re.Msg, []string{tc.wantMsg})
		})
	}
}

func TestDeterminism(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("a #x #y").WithTags("#x", "#y").Due(2024, time.May, 1).Build(),
		testutil.NewTask("b").Build(),
		testutil.NewTask("c #y").WithTags("#y").Scheduled(2024, time.June, 1).Build(),
	}
	g := newGrouper(t, `task.tags.length ? task.tags : task.happens.category.groupText`)
	first, err := g.Assign(context.Background(), tasks)
	testutil.MustNoErr(t, err, "first pass")
	second, err := g.Assign(context.Background(), tasks)
	testutil.MustNoErr(t, err, "second pass")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("passes differ (-first +second):\n%s", diff)
	}
}

func TestPartitionCompleteness(t *testing.T) {
	var tasks []*task.Task
	for i := range 50 {
		b := testutil.NewTask(fmt.Sprintf("task %d", i))
		switch i % 3 {
		case 0:
			b.WithTags("#a", "#b")
		case 1:
			b.WithTags("#b")
		}
		tasks = append(tasks, b.Build())
	}
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			g := newGrouper(t, `task.tags`, WithParallelism(parallelism))
			groups, err := GroupTasks(context.Background(), tasks, g)
			testutil.MustNoErr(t, err, "Group")

			seen := make(map[*task.Task]int)
			for _, grp := range groups {
				inBucket := make(map[*task.Task]bool)
				for _, tk := range grp.Tasks {
					if inBucket[tk] {
						t.Errorf("task %q appears twice under %q", tk.Description, grp.Headings)
					}
					inBucket[tk] = true
					seen[tk]++
				}
			}
			for i, tk := range tasks {
				want := len(tk.Tags)
				if want == 0 {
					want = 1
				}
				if seen[tk] != want {
					t.Errorf("task %d in %d buckets, want %d", i, seen[tk], want)
				}
			}
		})
	}
}

func TestMultiplicityAndDuplicateCollapse(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("three").WithTags("#a", "#b", "#c").Build(),
		testutil.NewTask("dupes").WithTags("#a", "#a", "#b").Build(),
	}
	groups, err := GroupTasks(context.Background(), tasks, newGrouper(t, `task.tags`))
	testutil.MustNoErr(t, err, "Group")

	want := map[string][]string{
		"#a": {"three", "dupes"},
		"#b": {"three", "dupes"},
		"#c": {"three"},
	}
	if diff := cmp.Diff(want, bucketsOf(t, groups)); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestAbsenceCanonicalization(t *testing.T) {
	tk := testutil.NewTask("nothing").Build()
	for _, src := range []string{`null`, `undefined`, `""`, `[]`, `task.heading`, `task.tags`, `task.due.format("YYYY")`} {
		t.Run(src, func(t *testing.T) {
			groups, err := GroupTasks(context.Background(), []*task.Task{tk}, newGrouper(t, src))
			testutil.MustNoErr(t, err, "Group")
			want := map[string][]string{"": {"nothing"}}
			if diff := cmp.Diff(want, bucketsOf(t, groups)); diff != "" {
				t.Errorf("buckets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortedJoinIsOrderIndependent(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("first").WithTags("b", "a").Build(),
		testutil.NewTask("second").WithTags("a", "b").Build(),
	}
	groups, err := GroupTasks(context.Background(), tasks, newGrouper(t, `task.tags.sort().join(", ")`))
	testutil.MustNoErr(t, err, "Group")
	want := map[string][]string{"a, b": {"first", "second"}}
	if diff := cmp.Diff(want, bucketsOf(t, groups)); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
	// the records themselves are untouched
	testutil.AssertStrings(t, tasks[0].Tags, "b", "a")
}

func TestIsDoneScenario(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("finished").Done(2024, time.May, 1).Build(),
		testutil.NewTask("open").Build(),
	}
	groups, err := GroupTasks(context.Background(), tasks, newGrouper(t, `isDone ? "Action Required" : "Nothing To Do"`))
	testutil.MustNoErr(t, err, "Group")

	wantHeadings := [][]string{{"Action Required"}, {"Nothing To Do"}}
	if diff := cmp.Diff(wantHeadings, headingsOf(groups)); diff != "" {
		t.Errorf("headings mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertStrings(t, testutil.Descriptions(groups[0].Tasks), "finished")
	testutil.AssertStrings(t, testutil.Descriptions(groups[1].Tasks), "open")
}

func TestAbsentDueOptionalChain(t *testing.T) {
	tk := testutil.NewTask("no due date").Build()
	g := newGrouper(t, `task.due.moment?.format("YYYY-MM") ?? ""`)
	groups, err := GroupTasks(context.Background(), []*task.Task{tk}, g)
	testutil.MustNoErr(t, err, "Group")
	want := map[string][]string{"": {"no due date"}}
	if diff := cmp.Diff(want, bucketsOf(t, groups)); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestSyntaxRejectedBeforeEvaluation(t *testing.T) {
	_, err := facade.Compile(`task.due.format("YYYY"`)
	var se *expr.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *expr.SyntaxError", err)
	}
	testutil.AssertContainsAll(t, se.Msg, []string{"missing ')'"})
	if se.Source != `task.due.format("YYYY"` {
		t.Errorf("Source = %q, want the snippet", se.Source)
	}
}

func TestRuntimeErrorAbortsPass(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("fine").WithHeading("Inbox").Build(),
		testutil.NewTask("broken").Build(),
		testutil.NewTask("also broken").Build(),
	}
	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			g := newGrouper(t, `task.heading.toUpperCase()`, WithParallelism(parallelism))
			groups, err := GroupTasks(context.Background(), tasks, g)
			if groups != nil {
				t.Errorf("groups = %v, want nil", groups)
			}
			var ee *EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("err = %v, want *EvalError", err)
			}
			if ee.Index != 1 || ee.Task != tasks[1] {
				t.Errorf("error attributed to task %d, want 1", ee.Index)
			}
			if ee.Snippet != `task.heading.toUpperCase()` {
				t.Errorf("Snippet = %q", ee.Snippet)
			}
			var re *expr.RuntimeError
			if !errors.As(err, &re) {
				t.Errorf("err does not wrap *expr.RuntimeError: %v", err)
			}
		})
	}
}

func TestBadResultShapeIsRuntimeError(t *testing.T) {
	tk := testutil.NewTask("x").Build()
	_, err := newGrouper(t, `task.status`).Assign(context.Background(), []*task.Task{tk})
	var re *expr.RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *expr.RuntimeError", err)
	}
	if re.Source != `task.status` {
		t.Errorf("Source = %q, want snippet", re.Source)
	}
}

func TestOperationCeilingSurfacesAsEvalError(t *testing.T) {
	p, err := facade.Compile(`[1, 2, 3, 4, 5].map(x => task.tags.length + x).join()`, expr.WithMaxOperations(10))
	testutil.MustNoErr(t, err, "Compile")
	_, err = New("function", p).Assign(context.Background(), []*task.Task{testutil.NewTask("x").Build()})
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *EvalError", err)
	}
	testutil.AssertContainsAll(t, err.Error(), []string{"exceeded 10 operations"})
}

func TestEvalErrorTruncatesDescription(t *testing.T) {
	long := strings.Repeat("very long description ", 10)
	p, err := facade.Compile(`task.heading.length`)
	testutil.MustNoErr(t, err, "Compile")
	_, err = New("function", p).Assign(context.Background(), []*task.Task{testutil.NewTask(long).Build()})
	if err == nil {
		t.Fatal("expected an evaluation error")
	}
	msg := err.Error()
	if strings.Contains(msg, long) {
		t.Errorf("error quotes the whole description: %s", msg)
	}
	testutil.AssertContainsAll(t, msg, []string{"task 0", "very long description", "…"})
}

func TestAssignPreservesTaskOrder(t *testing.T) {
	var tasks []*task.Task
	for i := range 20 {
		tasks = append(tasks, testutil.NewTask(fmt.Sprintf("%02d", i)).Build())
	}
	g := newGrouper(t, `task.description.endsWith("0") ? ["zero", "any"] : "any"`, WithParallelism(8))
	ms, err := g.Assign(context.Background(), tasks)
	testutil.MustNoErr(t, err, "Assign")

	last := -1
	for _, m := range ms {
		if m.Index < last {
			t.Fatalf("membership for task %d after task %d", m.Index, last)
		}
		last = m.Index
	}
	if ms[0].Key != "zero" || ms[1].Key != "any" {
		t.Errorf("keys for task 0 = %q, %q; want zero, any", ms[0].Key, ms[1].Key)
	}
}

func TestAssignHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGrouper(t, `"x"`).Assign(ctx, []*task.Task{testutil.NewTask("x").Build()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReverseOrder(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("b").Build(),
		testutil.NewTask("a").Build(),
		testutil.NewTask("c").Build(),
	}
	groups, err := GroupTasks(context.Background(), tasks, newGrouper(t, `task.description`, WithReverse(true)))
	testutil.MustNoErr(t, err, "Group")
	want := [][]string{{"c"}, {"b"}, {"a"}}
	if diff := cmp.Diff(want, headingsOf(groups)); diff != "" {
		t.Errorf("headings mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedGrouping(t *testing.T) {
	tasks := []*task.Task{
		testutil.NewTask("w1").WithPath("Work/a.md").WithPriority(task.PriorityHigh).Build(),
		testutil.NewTask("h1").WithPath("Home/b.md").Build(),
		testutil.NewTask("w2").WithPath("Work/c.md").Build(),
		testutil.NewTask("w3").WithPath("Work/d.md").WithPriority(task.PriorityHigh).Build(),
	}
	groups, err := GroupTasks(context.Background(), tasks,
		newGrouper(t, `task.file.root`),
		newGrouper(t, `task.priorityName`),
	)
	testutil.MustNoErr(t, err, "Group")

	want := []Group{
		{Headings: []string{"Home/", "Normal"}, Tasks: []*task.Task{tasks[1]}},
		{Headings: []string{"Work/", "High"}, Tasks: []*task.Task{tasks[0], tasks[3]}},
		{Headings: []string{"Work/", "Normal"}, Tasks: []*task.Task{tasks[2]}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupWithoutGroupers(t *testing.T) {
	tasks := []*task.Task{testutil.NewTask("a").Build()}
	groups, err := GroupTasks(context.Background(), tasks)
	testutil.MustNoErr(t, err, "Group")
	want := []Group{{Tasks: tasks}}
	if diff := cmp.Diff(want, groups, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupNoTasks(t *testing.T) {
	groups, err := GroupTasks(context.Background(), nil, newGrouper(t, `"x"`))
	testutil.MustNoErr(t, err, "Group")
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}

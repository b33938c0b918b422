package docsample

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/grouper"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

func TestRegistrySamplesPass(t *testing.T) {
	report := Verify(context.Background(), Registry(), Fixtures(), Options{})
	for _, f := range report.Failures {
		t.Error(f)
	}
	if report.Samples == 0 {
		t.Fatal("registry is empty")
	}
}

func TestRegistryCategoriesNameKnownFixtures(t *testing.T) {
	fixtures := Fixtures()
	seen := make(map[string]string)
	for _, c := range Registry() {
		if _, ok := FixtureByName(fixtures, c.Fixture); !ok {
			t.Errorf("category %s: unknown fixture %q", c.Name, c.Fixture)
		}
		if len(c.Samples) == 0 {
			t.Errorf("category %s has no samples", c.Name)
		}
		for _, s := range c.Samples {
			if prev, dup := seen[s.Snippet]; dup {
				t.Errorf("snippet %q appears in both %s and %s", s.Snippet, prev, c.Name)
			}
			seen[s.Snippet] = c.Name
		}
	}
}

func TestEveryFixtureHasAnAbsentRecord(t *testing.T) {
	for _, f := range Fixtures() {
		found := false
		for _, tk := range f.Tasks {
			if tk.Path == "" && tk.Due == nil && tk.Scheduled == nil && tk.Start == nil &&
				tk.Created == nil && tk.Done == nil && tk.Cancelled == nil &&
				len(tk.Tags) == 0 && tk.Heading == "" && tk.BlockLink == "" &&
				tk.Recurrence == "" && tk.Priority == task.PriorityNone {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("fixture %s has no record with every optional field absent", f.Name)
		}
	}
}

func TestFixturesAreFreshCopies(t *testing.T) {
	first := Fixtures()
	first[0].Tasks[0].Description = "changed"
	second := Fixtures()
	if second[0].Tasks[0].Description == "changed" {
		t.Error("Fixtures shares records between calls")
	}
}

func TestFixtureAllIsUnion(t *testing.T) {
	fixtures := Fixtures()
	all, ok := FixtureByName(fixtures, FixtureAll)
	if !ok {
		t.Fatal("missing fixture all")
	}
	want := 0
	for _, f := range fixtures {
		if f.Name != FixtureAll {
			want += len(f.Tasks)
		}
	}
	if len(all.Tasks) != want {
		t.Errorf("all has %d tasks, want %d", len(all.Tasks), want)
	}
}

func TestCheckDocumentation(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   string // substring of the single expected failure, "" for none
	}{
		{"valid", Sample{"task.description", []string{"Group by the description."}}, ""},
		{"colon ending", Sample{"task.description", []string{"Group by the description, for example:"}}, ""},
		{"code span may hold markup", Sample{"task.tags", []string{"Group by tags such as `<a|b>`."}}, ""},
		{"lowercase summary", Sample{"task.description", []string{"group by the description."}}, "upper-case"},
		{"missing period", Sample{"task.description", []string{"Group by the description"}}, "does not end with"},
		{"pipe outside code", Sample{"task.description", []string{"Group by a | b."}}, `"|" outside a code span`},
		{"angle bracket outside code", Sample{"task.description", []string{"Group by <b>."}}, `"<" outside a code span`},
		{"sort marker outside code", Sample{"task.description", []string{"Hide with %% markers."}}, `"%%" outside a code span`},
		{"unbalanced backticks", Sample{"task.description", []string{"Group by `x."}}, "unbalanced backticks"},
		{"trailing whitespace", Sample{"task.description", []string{"Group by the description. "}}, "leading or trailing whitespace"},
		{"empty line", Sample{"task.description", []string{"Group by the description.", ""}}, "line 2 is empty"},
		{"no description", Sample{"task.description", nil}, "no description"},
		{"empty snippet", Sample{"", []string{"Group by nothing."}}, "snippet is empty"},
		{"multi-line snippet", Sample{"task.description\n+ task.heading", []string{"Group by two things."}}, "more than one line"},
		{"padded snippet", Sample{" task.description", []string{"Group by the description."}}, "snippet has leading or trailing whitespace"},
		{"unterminated quote", Sample{`task.description + "x`, []string{"Group by the description."}}, "unterminated"},
		{"triple backtick", Sample{"```", []string{"Group by nothing."}}, "triple backtick"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			failures := CheckDocumentation(tc.sample)
			if tc.want == "" {
				for _, f := range failures {
					t.Errorf("unexpected failure: %v", f)
				}
				return
			}
			if len(failures) == 0 {
				t.Fatalf("no failure, want one containing %q", tc.want)
			}
			for _, f := range failures {
				if f.Check != DocumentationCheck || f.RecordIndex != -1 {
					t.Errorf("failure = %+v, want documentation failure without record", f)
				}
			}
			testutil.AssertContainsAll(t, failures[0].Error(), []string{tc.want})
		})
	}
}

func TestUnbalancedQuote(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`"a" + 'b'`, false},
		{"`${x}`", false},
		{`"it's"`, false},
		{`"escaped \" quote"`, false},
		{`'open`, true},
		{"`open", true},
		{`"trailing \"`, true},
	}
	for _, tc := range tests {
		if _, got := unbalancedQuote(tc.src); got != tc.want {
			t.Errorf("unbalancedQuote(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func mustFixture(t *testing.T, name string) Fixture {
	t.Helper()
	f, ok := FixtureByName(Fixtures(), name)
	if !ok {
		t.Fatalf("missing fixture %s", name)
	}
	return f
}

func TestCheckBehavior(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		snippet   string
		fixture   string
		opts      Options
		wantIndex int
		syntax    bool
		wantMsg   string
	}{
		{name: "syntax error", snippet: "task.description +", fixture: "description", wantIndex: -1, syntax: true},
		{name: "unknown name", snippet: "nosuch", fixture: "description", wantIndex: -1, syntax: true},
		{name: "member of null heading", snippet: "task.heading.length", fixture: "heading", wantIndex: 2, wantMsg: "RuntimeError"},
		{name: "array of numbers", snippet: "[1, 2]", fixture: "priority", wantIndex: 0, wantMsg: "RuntimeError"},
		{
			name:      "operation ceiling",
			snippet:   `[1, 2, 3, 4, 5, 6, 7, 8, 9, 10].map(x => x * 2).join(",")`,
			fixture:   "priority",
			opts:      Options{MaxOperations: 5},
			wantIndex: 0,
			wantMsg:   "exceeded",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			failures := CheckBehavior(ctx, Sample{Snippet: tc.snippet}, mustFixture(t, tc.fixture), tc.opts)
			if len(failures) != 1 {
				t.Fatalf("got %d failures, want 1: %v", len(failures), failures)
			}
			f := failures[0]
			if f.Check != BehavioralCheck {
				t.Errorf("Check = %s, want %s", f.Check, BehavioralCheck)
			}
			if f.RecordIndex != tc.wantIndex {
				t.Errorf("RecordIndex = %d, want %d", f.RecordIndex, tc.wantIndex)
			}
			var se *expr.SyntaxError
			if got := errors.As(f, &se); got != tc.syntax {
				t.Errorf("syntax error = %v, want %v (err %v)", got, tc.syntax, f.Err)
			}
			if tc.wantMsg != "" {
				testutil.AssertContainsAll(t, f.Error(), []string{tc.wantMsg})
			}
		})
	}
}

func TestCheckBehaviorPasses(t *testing.T) {
	failures := CheckBehavior(context.Background(), Sample{Snippet: "task.tags"}, mustFixture(t, "tags"), Options{})
	for _, f := range failures {
		t.Error(f)
	}
}

func TestAbsentRecordUnderEmptyHeading(t *testing.T) {
	f := mustFixture(t, "heading")
	failures := CheckBehavior(context.Background(), Sample{Snippet: `task.heading ?? ""`}, f, Options{})
	for _, fl := range failures {
		t.Error(fl)
	}

	p, err := facade.Compile(`task.heading ?? ""`)
	if err != nil {
		t.Fatal(err)
	}
	g := grouper.New("function", p, grouper.WithToday(DefaultToday))
	groups, err := grouper.GroupTasks(context.Background(), f.Tasks, g)
	if err != nil {
		t.Fatal(err)
	}
	keys := make([][]string, len(f.Tasks))
	for i, tk := range f.Tasks {
		if keys[i], err = g.Keys(tk); err != nil {
			t.Fatal(err)
		}
	}
	if got := outsideEmptyBucket(f.Tasks, keys, groups); len(got) != 0 {
		t.Errorf("records %v are outside the empty heading", got)
	}

	// Move every record out of the empty bucket.
	for i := range groups {
		if slices.Equal(groups[i].Headings, []string{""}) {
			groups[i].Headings = []string{"misplaced"}
		}
	}
	var want []int
	for i, k := range keys {
		if slices.Equal(k, []string{""}) {
			want = append(want, i)
		}
	}
	if len(want) == 0 {
		t.Fatal("heading fixture has no record without a heading")
	}
	if diff := cmp.Diff(want, outsideEmptyBucket(f.Tasks, keys, groups)); diff != "" {
		t.Errorf("outsideEmptyBucket mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyReportsUnknownFixture(t *testing.T) {
	categories := []Category{
		{Name: "Good", Fixture: "status", Samples: []Sample{
			{"task.status.name", []string{"Group by status name."}},
		}},
		{Name: "Broken", Fixture: "nope", Samples: []Sample{
			{"task.status.name", []string{"Group by status name."}},
		}},
	}
	report := Verify(context.Background(), categories, Fixtures(), Options{Parallelism: 2})
	if report.Samples != 2 {
		t.Errorf("Samples = %d, want 2", report.Samples)
	}
	if report.OK() || len(report.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", report.Failures)
	}
	f := report.Failures[0]
	if f.Category != "Broken" {
		t.Errorf("Category = %q, want Broken", f.Category)
	}
	testutil.AssertContainsAll(t, f.Error(), []string{`unknown fixture "nope"`, "Broken: behavioral"})
}

func TestVerifyOrdersFailures(t *testing.T) {
	categories := []Category{
		{Name: "A", Fixture: "status", Samples: []Sample{
			{"task.status.name", []string{"lowercase summary."}},
			{"task.heading.length", []string{"Fails on records without a heading."}},
		}},
		{Name: "B", Fixture: "status", Samples: []Sample{
			{"task.status.name +", []string{"Broken."}},
		}},
	}
	report := Verify(context.Background(), categories, Fixtures(), Options{})
	var got []string
	for _, f := range report.Failures {
		got = append(got, f.Category+" "+string(f.Check)+" "+f.Snippet)
	}
	want := []string{
		"A documentation task.status.name",
		"A behavioral task.heading.length",
		"B behavioral task.status.name +",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMarkdown(t *testing.T) {
	categories := []Category{
		{Name: "Status", Samples: []Sample{
			{"task.status.name", []string{"Group by status name.", "Names come from the status registry."}},
		}},
		{Name: "Tags", Samples: []Sample{
			{"task.tags", []string{"Group by each tag."}},
		}},
	}
	var buf bytes.Buffer
	testutil.MustNoErr(t, RenderMarkdown(&buf, categories), "RenderMarkdown")
	want := "## Status\n\n" +
		"- ```group by function task.status.name```\n" +
		"    - Group by status name.\n" +
		"    - Names come from the status registry.\n" +
		"\n## Tags\n\n" +
		"- ```group by function task.tags```\n" +
		"    - Group by each tag.\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMarkdownRegistry(t *testing.T) {
	var buf bytes.Buffer
	testutil.MustNoErr(t, RenderMarkdown(&buf, Registry()), "RenderMarkdown")
	testutil.AssertContainsAll(t, buf.String(), []string{
		"## Dates\n",
		"## Combined\n",
		"- ```group by function task.tags```\n",
	})
}

func TestRenderReport(t *testing.T) {
	long := strings.Repeat("word ", 20)
	fixtures := []Fixture{{Name: "mini", Tasks: []*task.Task{
		testutil.NewTask("Under a heading").WithHeading("Errands").Build(),
		testutil.NewTask(long).Build(),
	}}}
	categories := []Category{{Name: "Mini", Fixture: "mini", Samples: []Sample{
		{"task.heading", []string{"Group by heading."}},
		{`task.hasHeading ? "%%1%% With" : "%%2%% Without"`, []string{"Group by heading presence."}},
		{"task.heading.length", []string{"Fails."}},
	}}}

	var buf bytes.Buffer
	testutil.MustNoErr(t, RenderReport(context.Background(), &buf, categories, fixtures, Options{}), "RenderReport")
	out := buf.String()
	testutil.AssertContainsAll(t, out, []string{
		"# Mini (fixture mini, 2 tasks)\n",
		"group by function task.heading\n  (no heading)\n    - word word",
		"  Errands\n    - Under a heading\n",
		"  With\n    - Under a heading\n  Without\n",
		"  error: ",
		"RuntimeError",
		"...",
	})
	if strings.Contains(out, long) {
		t.Error("long description was not truncated")
	}
	if strings.Contains(out, "\n  %%") {
		t.Error("hidden sort markers leaked into the report")
	}
}

func TestRenderReportUnknownFixture(t *testing.T) {
	categories := []Category{{Name: "X", Fixture: "nope"}}
	err := RenderReport(context.Background(), &bytes.Buffer{}, categories, Fixtures(), Options{})
	if err == nil || !strings.Contains(err.Error(), `unknown fixture "nope"`) {
		t.Errorf("err = %v, want unknown fixture", err)
	}
}

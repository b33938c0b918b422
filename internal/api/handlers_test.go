package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/groupfn/internal/config"
	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/query/querytest"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

func newTestServerWithMockEngine(t *testing.T) (*Server, *querytest.MockEngine) {
	t.Helper()

	eng := &querytest.MockEngine{
		Tasks: []*task.Task{
			testutil.NewTask("Buy milk #home").WithTags("#home").WithPath("Home/shopping.md").Build(),
			testutil.NewTask("Write report #work").WithTags("#work").WithPath("Work/report.md").Build(),
			testutil.NewTask("Plan trip #home").WithTags("#home").WithPath("Home/travel.md").Build(),
		},
		Sources: []query.SourceInfo{{Name: "vault", TaskCount: 3}},
		Stats:   &query.TotalStats{TaskCount: 3, OpenCount: 3, TagCount: 2, SourceCount: 1, DatabaseSize: 4096},
	}
	cfg := &config.Config{
		Server:   config.ServerConfig{APIPort: 8080},
		Grouping: config.GroupingConfig{Parallelism: 1},
	}
	srv := NewServer(cfg, eng, testLogger())
	srv.now = func() time.Time { return time.Date(2023, time.November, 15, 9, 0, 0, 0, time.UTC) }
	return srv, eng
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

// headingsOf returns "heading/heading: desc, desc" per group.
func headingsOf(res query.GroupResult) []string {
	var out []string
	for _, g := range res.Groups {
		descs := make([]string, len(g.Tasks))
		for i, r := range g.Tasks {
			descs[i] = r.Description
		}
		out = append(out, strings.Join(g.Headings, "/")+": "+strings.Join(descs, ", "))
	}
	return out
}

func TestHandleStats(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	stats := decode[query.TotalStats](t, w)
	if stats.TaskCount != 3 || stats.DatabaseSize != 4096 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHandleStatsError(t *testing.T) {
	srv, eng := newTestServerWithMockEngine(t)
	eng.GetTotalStatsFunc = func(context.Context) (*query.TotalStats, error) {
		return nil, errors.New("disk on fire")
	}

	w := doRequest(t, srv, "GET", "/api/v1/stats", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "disk on fire") {
		t.Error("internal error details leaked to client")
	}
}

func TestHandleListSources(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/sources", "")
	resp := decode[struct {
		Sources []query.SourceInfo `json:"sources"`
	}](t, w)
	if len(resp.Sources) != 1 || resp.Sources[0].Name != "vault" {
		t.Errorf("unexpected sources: %+v", resp.Sources)
	}
}

func TestHandleListTasks(t *testing.T) {
	srv, eng := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/tasks?tag=%23home&source=vault&open=true&limit=5000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := query.TaskFilter{Source: "vault", Tag: "#home", OpenOnly: true, Limit: maxTaskLimit}
	if diff := cmp.Diff(want, eng.LastFilter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	resp := decode[struct {
		Tasks []struct {
			Description string `json:"description"`
		} `json:"tasks"`
	}](t, w)
	if len(resp.Tasks) != 2 {
		t.Errorf("got %d tasks, want 2", len(resp.Tasks))
	}
}

func TestHandleListTasksInvalidLimit(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	for _, limit := range []string{"0", "-1", "abc"} {
		w := doRequest(t, srv, "GET", "/api/v1/tasks?limit="+limit, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want %d", limit, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleFields(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/fields", "")
	resp := decode[struct {
		Fields []FieldInfo `json:"fields"`
	}](t, w)
	names := make(map[string]string)
	for _, f := range resp.Fields {
		names[f.Name] = f.Kind
	}
	if names["due"] != "Date" || names["tags"] != "string[]" {
		t.Errorf("unexpected fields: %v", names)
	}
}

func TestHandleSamples(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/samples", "")
	resp := decode[struct {
		Categories []CategoryInfo `json:"categories"`
	}](t, w)
	if len(resp.Categories) == 0 {
		t.Fatal("no categories returned")
	}
	first := resp.Categories[0].Samples[0]
	if first.Instruction != "group by function "+first.Snippet {
		t.Errorf("Instruction = %q, snippet %q", first.Instruction, first.Snippet)
	}
	if len(first.Lines) == 0 {
		t.Error("sample has no description lines")
	}
}

func TestHandleGroupStoredTasks(t *testing.T) {
	srv, eng := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "POST", "/api/v1/group",
		`{"instructions":["group by function task.file.root"],"filter":{"tag":"#home","open_only":true}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	res := decode[query.GroupResult](t, w)
	testutil.AssertStrings(t, headingsOf(res), "Home/: Buy milk #home, Plan trip #home")
	if !eng.LastFilter.OpenOnly || eng.LastFilter.Tag != "#home" {
		t.Errorf("filter not passed through: %+v", eng.LastFilter)
	}
}

func TestHandleGroupInlineTasks(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	body := `{
		"query": "group by function task.priorityName\ngroup by function reverse task.tags",
		"tasks": [
			{"description": "A", "priority": "high", "tags": ["#x", "#y"]},
			{"description": "B"},
			{"description": "C", "priority": "high", "tags": ["#y"]}
		]
	}`
	w := doRequest(t, srv, "POST", "/api/v1/group", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	res := decode[query.GroupResult](t, w)
	want := []string{
		"High/#y: A, C",
		"High/#x: A",
		"Normal/: B",
	}
	if diff := cmp.Diff(want, headingsOf(res)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if res.TaskCount != 3 || len(res.Instructions) != 2 {
		t.Errorf("TaskCount = %d, Instructions = %v", res.TaskCount, res.Instructions)
	}
}

func TestHandleGroupToday(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	tests := []struct {
		today string
		want  string
	}{
		{"", "Today: Report"},
		{"2023-11-20", "Overdue: Report"},
		{"2023-11-01", "Future: Report"},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			body := `{"instructions":["group by function task.due.category.name"],` +
				`"tasks":[{"description":"Report","due":"2023-11-15"}],"today":"` + tt.today + `"}`
			w := doRequest(t, srv, "POST", "/api/v1/group", body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			testutil.AssertStrings(t, headingsOf(decode[query.GroupResult](t, w)), tt.want)
		})
	}
}

func TestHandleGroupBadRequests(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed json", `{"instructions":`, "invalid_request"},
		{"unknown field", `{"instructionz":["group by function task.tags"]}`, "invalid_request"},
		{"both forms", `{"instructions":["group by function 1"],"query":"group by function 2"}`, "invalid_request"},
		{"no instructions", `{"instructions":[]}`, "invalid_query"},
		{"not a grouping line", `{"query":"sort by due"}`, "invalid_query"},
		{"syntax error", `{"query":"group by function task.tags.("}`, "invalid_query"},
		{"unknown name", `{"query":"group by function window"}`, "invalid_query"},
		{"evaluation error", `{"query":"group by function task.heading.length"}`, "invalid_query"},
		{"bad today", `{"query":"group by function 1","today":"15/11/2023"}`, "invalid_today"},
		{"bad task", `{"query":"group by function 1","tasks":[{"description":""}]}`, "invalid_tasks"},
		{"filter with tasks", `{"query":"group by function 1","tasks":[],"filter":{"tag":"#a"}}`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, "POST", "/api/v1/group", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q (message %q)", resp.Error, tt.wantError, resp.Message)
			}
			if resp.Message == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestHandleGroupEmptyInlineTasks(t *testing.T) {
	srv, eng := newTestServerWithMockEngine(t)
	eng.ListTasksFunc = func(context.Context, query.TaskFilter) ([]*task.Task, error) {
		t.Fatal("store should not be read when tasks are given")
		return nil, nil
	}

	w := doRequest(t, srv, "POST", "/api/v1/group", `{"query":"group by function task.tags","tasks":[]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	res := decode[query.GroupResult](t, w)
	if res.TaskCount != 0 || len(res.Groups) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestHandleVerify(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "POST", "/api/v1/verify", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[VerifyResponse](t, w)
	if !resp.OK || resp.Samples == 0 || len(resp.Failures) != 0 {
		t.Errorf("unexpected verify response: %+v", resp)
	}
}

func TestErrorResponseShape(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "invalid_query", "bad line")

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["error"] != "invalid_query" || raw["message"] != "bad line" {
		t.Errorf("unexpected body: %v", raw)
	}
}

func TestHandleListTasksSearch(t *testing.T) {
	srv, eng := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "GET", "/api/v1/tasks?q=%23home+trip&limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	resp := decode[struct {
		Tasks []struct {
			Description string `json:"description"`
		} `json:"tasks"`
	}](t, w)
	if len(resp.Tasks) != 1 || resp.Tasks[0].Description != "Plan trip #home" {
		t.Errorf("unexpected tasks: %+v", resp.Tasks)
	}
	if eng.LastFilter.Tag != "#home" || eng.LastFilter.Limit != 0 {
		t.Errorf("LastFilter = %+v, want tag pushed down and limit applied after filtering", eng.LastFilter)
	}
}

func TestHandleGroupSearchFilter(t *testing.T) {
	srv, _ := newTestServerWithMockEngine(t)

	w := doRequest(t, srv, "POST", "/api/v1/group",
		`{"instructions":["group by function task.file.root"],"filter":{"search":"path:Work/ report"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	res := decode[query.GroupResult](t, w)
	testutil.AssertStrings(t, headingsOf(res), "Work/: Write report #work")
}

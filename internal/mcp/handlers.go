package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wesm/groupfn/internal/docsample"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/search"
)

type handlers struct {
	engine   query.Engine
	settings query.Settings
}

// getDateArg extracts an optional date (YYYY-MM-DD) from the arguments map.
func getDateArg(args map[string]any, key string) (*time.Time, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", key, v)
	}
	return &t, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func (h *handlers) groupTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	text := stringArg(args, "instructions")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("instructions parameter is required"), nil
	}

	settings := h.settings
	today, err := getDateArg(args, "today")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if today != nil {
		settings.Today = *today
	}

	// Compile before touching the store so bad expressions fail fast.
	if _, _, err := query.Compile(text, settings); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	parser := search.NewParser()
	if !settings.Today.IsZero() {
		parser.Now = func() time.Time { return settings.Today }
	}
	q := parser.Parse(stringArg(args, "filter"))
	if v := stringArg(args, "source"); v != "" {
		q.Source = v
	}
	if v := stringArg(args, "path_prefix"); v != "" {
		q.PathPrefix = v
	}
	if v := stringArg(args, "tag"); v != "" {
		q.Tags = append(q.Tags, v)
	}
	if v, ok := args["open_only"].(bool); ok && v {
		q.OpenOnly = true
	}

	tasks, err := query.SelectTasks(ctx, h.engine, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list tasks failed: %v", err)), nil
	}

	res, err := query.Group(ctx, text, tasks, settings)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) listFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type field struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		Doc  string `json:"doc"`
	}
	fields := make([]field, 0, len(facade.Fields))
	for _, f := range facade.Fields {
		fields = append(fields, field{Name: f.Name, Kind: f.Kind, Doc: f.Doc})
	}
	return jsonResult(fields)
}

func (h *handlers) listSamples(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	want := stringArg(req.GetArguments(), "category")

	type sample struct {
		Instruction string   `json:"instruction"`
		Description []string `json:"description"`
	}
	type category struct {
		Name    string   `json:"name"`
		Samples []sample `json:"samples"`
	}
	var out []category
	for _, c := range docsample.Registry() {
		if want != "" && !strings.EqualFold(c.Name, want) {
			continue
		}
		cat := category{Name: c.Name}
		for _, s := range c.Samples {
			cat.Samples = append(cat.Samples, sample{
				Instruction: "group by function " + s.Snippet,
				Description: s.Lines,
			})
		}
		out = append(out, cat)
	}
	if want != "" && len(out) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", want)), nil
	}
	return jsonResult(out)
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.GetTotalStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	sources, err := h.engine.ListSources(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sources failed: %v", err)), nil
	}

	resp := struct {
		Stats   *query.TotalStats  `json:"stats"`
		Sources []query.SourceInfo `json:"sources"`
	}{
		Stats:   stats,
		Sources: sources,
	}

	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

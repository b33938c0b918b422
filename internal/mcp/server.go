// Package mcp exposes task grouping to MCP clients over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wesm/groupfn/internal/query"
)

// Tool name constants.
const (
	ToolGroupTasks  = "group_tasks"
	ToolListFields  = "list_fields"
	ToolListSamples = "list_samples"
	ToolGetStats    = "get_stats"
)

// Serve creates an MCP server with the grouping tools and serves over stdio.
// It blocks until stdin is closed or the context is cancelled.
func Serve(ctx context.Context, engine query.Engine, settings query.Settings, version string) error {
	s := newServer(engine, settings, version)
	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func newServer(engine query.Engine, settings query.Settings, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"groupfn",
		version,
		server.WithToolCapabilities(false),
	)

	h := &handlers{engine: engine, settings: settings}

	s.AddTool(groupTasksTool(), h.groupTasks)
	s.AddTool(listFieldsTool(), h.listFields)
	s.AddTool(listSamplesTool(), h.listSamples)
	s.AddTool(getStatsTool(), h.getStats)
	return s
}

func groupTasksTool() mcp.Tool {
	return mcp.NewTool(ToolGroupTasks,
		mcp.WithDescription("Group stored tasks with one or more 'group by function <expression>' lines. "+
			"Expressions are JavaScript-like and read the task through 'task', e.g. task.tags or task.due.format(\"YYYY-MM\"). "+
			"Use list_fields for the available properties and list_samples for worked examples."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("instructions",
			mcp.Required(),
			mcp.Description("Grouping lines, one per line. Later lines nest under earlier ones."),
		),
		mcp.WithString("filter",
			mcp.Description("Filter such as 'source:work #urgent is:open due-before:7d \"report\"'. Operators: source:, path:, tag:, status:, is:open, has:due, no:due, due-before:, due-after:, limit:; bare words match the description."),
		),
		mcp.WithString("source",
			mcp.Description("Only tasks imported as this source"),
		),
		mcp.WithString("path_prefix",
			mcp.Description("Only tasks whose file path starts with this prefix"),
		),
		mcp.WithString("tag",
			mcp.Description("Only tasks with this tag, including the leading #"),
		),
		mcp.WithBoolean("open_only",
			mcp.Description("Only tasks that are not done or cancelled"),
		),
		mcp.WithString("today",
			mcp.Description("Date relative fields are computed against (YYYY-MM-DD, default today)"),
		),
	)
}

func listFieldsTool() mcp.Tool {
	return mcp.NewTool(ToolListFields,
		mcp.WithDescription("List the task properties a grouping expression can read, with their types."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listSamplesTool() mcp.Tool {
	return mcp.NewTool(ToolListSamples,
		mcp.WithDescription("List documented grouping examples by category."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("category",
			mcp.Description("Only this category, e.g. Dates or Tags (case-insensitive)"),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get store overview: task, open task, tag and source counts, and the imported sources."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

package tui

import (
	"regexp"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/query/querytest"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// testTasks spans two folders and two tags.
func testTasks() []*task.Task {
	return []*task.Task{
		testutil.NewTask("Buy milk #home").WithTags("#home").WithPath("Home/shopping.md").Due(2023, 11, 20).Build(),
		testutil.NewTask("Write report #work").WithTags("#work").WithPath("Work/report.md").WithPriority(task.PriorityHigh).Build(),
		testutil.NewTask("Plan trip #home").WithTags("#home").WithPath("Home/travel.md").WithStatus("x").Build(),
	}
}

// newLoadedModel builds a model over tasks and runs its first load.
func newLoadedModel(t *testing.T, tasks []*task.Task, instructions ...string) (Model, *querytest.MockEngine) {
	t.Helper()
	eng := &querytest.MockEngine{Tasks: tasks}
	m := New(eng, Options{
		Instructions: instructions,
		Settings:     query.Settings{Parallelism: 1},
		Version:      "test123",
	})
	return load(t, m), eng
}

// load runs the pending grouping pass synchronously.
func load(t *testing.T, m Model) Model {
	t.Helper()
	out, _ := m.Update(m.loadGroups()())
	return out.(Model)
}

// key builds the KeyMsg bubbletea would send for s.
func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends keys in order and returns the model and the last command.
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var out tea.Model
		out, cmd = m.Update(key(k))
		m = out.(Model)
	}
	return m, cmd
}

// groupPaths returns each group's heading path.
func groupPaths(m Model) []string {
	var out []string
	for _, g := range m.groups() {
		out = append(out, headingPath(g))
	}
	return out
}

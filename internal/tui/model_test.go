package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/task"
	"github.com/wesm/groupfn/internal/testutil"
)

const byFolder = "group by function task.file.folder"

func TestInitialLoad(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	if m.loading {
		t.Error("loading = true after load")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	testutil.AssertStrings(t, groupPaths(m), "Home/", "Work/")
	if m.result.TaskCount != 3 {
		t.Errorf("TaskCount = %d, want 3", m.result.TaskCount)
	}
}

func TestDrillIntoGroupAndBack(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "down", "enter")
	if m.level != levelTasks {
		t.Fatalf("level = %v, want levelTasks", m.level)
	}
	g, _ := m.currentGroup()
	if got := headingPath(g); got != "Work/" {
		t.Errorf("open group = %q, want Work/", got)
	}

	m, _ = press(m, "enter")
	if m.level != levelTaskDetail {
		t.Fatalf("level = %v, want levelTaskDetail", m.level)
	}
	view := stripANSI(m.View())
	testutil.AssertContainsAll(t, view, []string{"Write report #work", "Path:", "Work/report.md", "Priority:", "high"})

	m, _ = press(m, "esc")
	if m.level != levelTasks {
		t.Errorf("after esc level = %v, want levelTasks", m.level)
	}
	m, _ = press(m, "esc")
	if m.level != levelGroups {
		t.Errorf("after second esc level = %v, want levelGroups", m.level)
	}
	if m.groupCursor != 1 {
		t.Errorf("groupCursor = %d, want 1 to be kept", m.groupCursor)
	}
}

func TestStepGroupInTaskList(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "enter", "j")
	if m.taskCursor != 1 {
		t.Fatalf("taskCursor = %d, want 1", m.taskCursor)
	}
	m, _ = press(m, "n")
	if m.groupCursor != 1 || m.taskCursor != 0 {
		t.Errorf("after n: group %d task %d, want 1 0", m.groupCursor, m.taskCursor)
	}
	m, _ = press(m, "n")
	if m.groupCursor != 1 {
		t.Errorf("n past the last group moved to %d", m.groupCursor)
	}
	m, _ = press(m, "p")
	if m.groupCursor != 0 {
		t.Errorf("after p: group %d, want 0", m.groupCursor)
	}
}

func TestEnterIgnoresEmptyResult(t *testing.T) {
	m, _ := newLoadedModel(t, nil, byFolder)

	m, _ = press(m, "enter")
	if m.level != levelGroups {
		t.Errorf("level = %v, want levelGroups", m.level)
	}
	if !strings.Contains(stripANSI(m.View()), "No tasks match.") {
		t.Error("empty result not reported")
	}
}

func TestFilterInput(t *testing.T) {
	m, eng := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "/")
	if m.inputMode != inputFilter {
		t.Fatalf("inputMode = %v, want inputFilter", m.inputMode)
	}
	m, _ = press(m, "#home is:open")
	m, cmd := press(m, "enter")
	if cmd == nil {
		t.Fatal("committing the filter did not start a reload")
	}
	if !m.loading {
		t.Error("loading = false after committing the filter")
	}
	m = load(t, m)

	if m.filter != "#home is:open" {
		t.Errorf("filter = %q", m.filter)
	}
	if eng.LastFilter.Tag != "#home" || !eng.LastFilter.OpenOnly {
		t.Errorf("store filter = %+v, want tag #home and open only", eng.LastFilter)
	}
	if m.result.TaskCount != 1 {
		t.Errorf("TaskCount = %d, want 1", m.result.TaskCount)
	}
	testutil.AssertStrings(t, groupPaths(m), "Home/")

	// Esc on the group list clears the filter.
	m, _ = press(m, "esc")
	m = load(t, m)
	if m.filter != "" || m.result.TaskCount != 3 {
		t.Errorf("after esc filter = %q with %d tasks", m.filter, m.result.TaskCount)
	}
}

func TestFilterInputCancel(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "/", "#work", "esc")
	if m.inputMode != inputNone {
		t.Errorf("inputMode = %v after esc", m.inputMode)
	}
	if m.filter != "" {
		t.Errorf("filter = %q, want unchanged", m.filter)
	}
}

func TestTypingDoesNotTriggerKeys(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "/", "q")
	if m.quitting {
		t.Error("typing q in the filter quit the program")
	}
	if m.input.Value() != "q" {
		t.Errorf("input = %q, want q", m.input.Value())
	}
}

func TestAddInstruction(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "a", "task.status.name", "enter")
	if m.inputMode != inputNone {
		t.Fatalf("input still open, err = %v", m.err)
	}
	testutil.AssertStrings(t, m.instructions, byFolder, "group by function task.status.name")

	m = load(t, m)
	testutil.AssertStrings(t, groupPaths(m), "Home/ › Done", "Home/ › Todo", "Work/ › Todo")
}

func TestEditInstruction(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "e")
	if got := m.input.Value(); got != byFolder {
		t.Fatalf("input prefilled with %q, want %q", got, byFolder)
	}
	m.input.SetValue("group by function task.tags")
	m, _ = press(m, "enter")
	m = load(t, m)

	testutil.AssertStrings(t, m.instructions, "group by function task.tags")
	testutil.AssertStrings(t, groupPaths(m), "#home", "#work")
}

func TestEditInstructionError(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, _ = press(m, "a", "task.file.folder +", "enter")
	if m.err == nil {
		t.Fatal("expected a syntax error")
	}
	if m.inputMode != inputInstruction {
		t.Errorf("inputMode = %v, want the input left open", m.inputMode)
	}
	testutil.AssertStrings(t, m.instructions, byFolder)
	if !strings.Contains(stripANSI(m.View()), "Group by:") {
		t.Error("input not shown after error")
	}

	m, _ = press(m, "esc")
	if m.inputMode != inputNone {
		t.Error("esc did not close the input")
	}
}

func TestRemoveInstruction(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder, "group by function task.tags")

	m, cmd := press(m, "x")
	if cmd == nil {
		t.Fatal("remove did not reload")
	}
	testutil.AssertStrings(t, m.instructions, byFolder)

	m, _ = press(m, "x")
	testutil.AssertStrings(t, m.instructions, byFolder)
	if m.flashMessage == "" {
		t.Error("removing the only instruction gave no message")
	}
}

func TestEmptyEditRemovesInstruction(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder, "group by function task.tags")

	m, _ = press(m, "e")
	m.input.SetValue("")
	m, _ = press(m, "enter")
	testutil.AssertStrings(t, m.instructions, byFolder)
}

func TestStaleResultIgnored(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)
	stale := m.loadGroups()

	m, _ = press(m, "r")
	out, _ := m.Update(stale())
	m = out.(Model)
	if !m.loading {
		t.Error("stale result ended the current load")
	}

	m = load(t, m)
	if m.loading {
		t.Error("current result did not end the load")
	}
}

func TestLoadErrorKeepsResult(t *testing.T) {
	m, eng := newLoadedModel(t, testTasks(), byFolder)
	eng.ListTasksFunc = func(context.Context, query.TaskFilter) ([]*task.Task, error) {
		return nil, errors.New("database is locked")
	}

	m, _ = press(m, "r")
	m = load(t, m)

	if m.err == nil || !strings.Contains(m.err.Error(), "database is locked") {
		t.Fatalf("err = %v", m.err)
	}
	testutil.AssertStrings(t, groupPaths(m), "Home/", "Work/")
	if !strings.Contains(stripANSI(m.View()), "Error: load tasks: database is locked") {
		t.Error("error not shown in footer")
	}
}

func TestReloadClampsCursor(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)
	m, _ = press(m, "down", "enter")

	m.filter = "#home"
	m, _ = press(m, "r")
	m = load(t, m)

	if m.groupCursor != 0 {
		t.Errorf("groupCursor = %d, want 0", m.groupCursor)
	}
	if m.level != levelGroups {
		t.Errorf("level = %v, want levelGroups once the open group is gone", m.level)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	m, cmd := press(m, "q")
	if !m.quitting {
		t.Error("quitting = false")
	}
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not tea.Quit")
	}
	if m.View() != "" {
		t.Error("view not empty after quit")
	}
}

func TestWindowResize(t *testing.T) {
	m, _ := newLoadedModel(t, testTasks(), byFolder)

	out, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 8})
	m = out.(Model)
	if m.width != 40 || m.height != 8 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	if got := m.pageSize(); got != 3 {
		t.Errorf("pageSize = %d, want 3", got)
	}
}

func TestNormalizeInstruction(t *testing.T) {
	tests := map[string]string{
		"task.tags":                           "group by function task.tags",
		"  task.tags  ":                       "group by function task.tags",
		"group by function task.due.category": "group by function task.due.category",
		"Group By Function reverse task.tags": "Group By Function reverse task.tags",
		"":                                    "",
	}
	for in, want := range tests {
		if got := normalizeInstruction(in); got != want {
			t.Errorf("normalizeInstruction(%q) = %q, want %q", in, got, want)
		}
	}
}

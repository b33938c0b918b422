package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/groupfn/internal/query"
)

// handleKeyPress routes a key to the help overlay, the footer input or
// the current view.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.inputMode != inputNone {
		return m.handleInputKeys(msg)
	}
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	switch m.level {
	case levelTasks:
		return m.handleTaskListKeys(msg)
	case levelTaskDetail:
		return m.handleDetailKeys(msg)
	default:
		return m.handleGroupKeys(msg)
	}
}

// handleGlobalKeys handles keys common to all views.
// Returns (model, cmd, true) if the key was handled, or (model, nil, false) otherwise.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit, true
	case "?":
		m.showHelp = true
		return m, nil, true
	case "/":
		cmd := m.openInput(inputFilter, m.filter, "is:open path:Work/ #tag")
		return m, cmd, true
	case "r":
		cmd := m.reload()
		return m, cmd, true
	}
	return m, nil, false
}

// handleGroupKeys handles keys in the group list.
func (m Model) handleGroupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if navigateList(msg.String(), &m.groupCursor, &m.groupOffset, len(m.groups()), m.pageSize()) {
		return m, nil
	}

	switch msg.String() {
	case "enter", "right", "l":
		if g, ok := m.currentGroup(); ok && len(g.Tasks) > 0 {
			m.level = levelTasks
			m.taskCursor, m.taskOffset = 0, 0
		}
	case "esc":
		if m.filter != "" {
			m.filter = ""
			cmd := tea.Batch(m.reload(), m.flash("Filter cleared"))
			return m, cmd
		}
	case "e":
		var cmd tea.Cmd
		if i := len(m.instructions) - 1; i < 0 {
			cmd = m.openInstructionInput(0, "")
		} else {
			cmd = m.openInstructionInput(i, m.instructions[i])
		}
		return m, cmd
	case "a":
		cmd := m.openInstructionInput(len(m.instructions), "")
		return m, cmd
	case "x":
		if len(m.instructions) <= 1 {
			cmd := m.flash("Cannot remove the only instruction")
			return m, cmd
		}
		m.instructions = m.instructions[:len(m.instructions)-1]
		cmd := tea.Batch(m.reload(), m.flash("Removed innermost instruction"))
		return m, cmd
	}
	return m, nil
}

// handleTaskListKeys handles keys in the task list of one group.
func (m Model) handleTaskListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g, _ := m.currentGroup()
	if navigateList(msg.String(), &m.taskCursor, &m.taskOffset, len(g.Tasks), m.pageSize()) {
		return m, nil
	}

	switch msg.String() {
	case "enter", "right", "l":
		if m.taskCursor < len(g.Tasks) {
			m.level = levelTaskDetail
		}
	case "esc", "backspace", "left", "h":
		m.level = levelGroups
	case "n":
		m.stepGroup(1)
	case "p":
		m.stepGroup(-1)
	}
	return m, nil
}

// stepGroup moves to the next or previous group without leaving the task list.
func (m *Model) stepGroup(delta int) {
	next := m.groupCursor + delta
	if next < 0 || next >= len(m.groups()) {
		return
	}
	m.groupCursor = next
	m.groupOffset = calculateScrollOffset(m.groupCursor, m.groupOffset, m.pageSize())
	m.taskCursor, m.taskOffset = 0, 0
}

// handleDetailKeys handles keys in the task detail view.
func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g, _ := m.currentGroup()
	switch msg.String() {
	case "esc", "backspace", "left", "h", "enter":
		m.level = levelTasks
	case "up", "k":
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	case "down", "j":
		if m.taskCursor < len(g.Tasks)-1 {
			m.taskCursor++
		}
	}
	m.taskOffset = calculateScrollOffset(m.taskCursor, m.taskOffset, m.pageSize())
	return m, nil
}

func (m *Model) openInput(mode inputMode, value, placeholder string) tea.Cmd {
	m.inputMode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) openInstructionInput(index int, value string) tea.Cmd {
	m.editIndex = index
	return m.openInput(inputInstruction, value, "task.status.name")
}

// handleInputKeys handles keys when the footer input is active.
func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		return m.commitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// commitInput applies the footer input. A bad instruction leaves the
// input open with the error shown so it can be fixed.
func (m Model) commitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.inputMode {
	case inputFilter:
		m.filter = value
		m.closeInput()
		cmd := m.reload()
		return m, cmd

	case inputInstruction:
		line := normalizeInstruction(value)
		candidate := append([]string(nil), m.instructions...)
		switch {
		case line == "" && m.editIndex < len(candidate) && len(candidate) > 1:
			candidate = append(candidate[:m.editIndex], candidate[m.editIndex+1:]...)
		case line == "":
			m.closeInput()
			return m, nil
		case m.editIndex < len(candidate):
			candidate[m.editIndex] = line
		default:
			candidate = append(candidate, line)
		}
		if _, _, err := query.Compile(query.JoinInstructions(candidate), m.settings); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.instructions = candidate
		m.closeInput()
		m.level = levelGroups
		cmd := m.reload()
		return m, cmd
	}
	m.closeInput()
	return m, nil
}

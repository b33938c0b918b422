package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/query"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	instructionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
				Padding(0, 1)

	breadcrumbStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	separatorStyle = lipgloss.NewStyle().
			Faint(true)

	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	countStyle = lipgloss.NewStyle().
			Faint(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#aa0000", Dark: "#ff5f5f"}).
			Padding(0, 1)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)
)

// noHeading labels a group whose key is empty.
const noHeading = "(no heading)"

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(m.titleView())
	b.WriteByte('\n')
	for _, line := range m.instructions {
		b.WriteString(instructionStyle.Render(truncateToWidth(line, m.width-2)))
		b.WriteByte('\n')
	}
	b.WriteString(breadcrumbStyle.Render(truncateToWidth(m.breadcrumb(), m.width-2)))
	b.WriteByte('\n')
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteByte('\n')

	var rows []string
	switch m.level {
	case levelTasks:
		rows = m.taskRows()
	case levelTaskDetail:
		rows = m.detailRows()
	default:
		rows = m.groupRows()
	}
	page := m.pageSize()
	for i := 0; i < page; i++ {
		if i < len(rows) {
			b.WriteString(rows[i])
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) titleView() string {
	title := "groupfn"
	if m.version != "" {
		title += " " + m.version
	}
	if m.filter != "" {
		title += " · " + m.filter
	}
	var stats string
	switch {
	case m.loading:
		stats = spinnerFrames[m.spinnerFrame] + " grouping"
	case m.result != nil:
		stats = fmt.Sprintf("%s tasks in %s groups", formatCount(m.result.TaskCount), formatCount(len(m.result.Groups)))
	}
	gap := m.width - 2 - displayWidth(title) - displayWidth(stats)
	if gap < 1 {
		return titleBarStyle.Render(truncateToWidth(title+" "+stats, max(m.width-2, 0)))
	}
	return titleBarStyle.Render(title + strings.Repeat(" ", gap) + stats)
}

func (m Model) breadcrumb() string {
	switch m.level {
	case levelTasks, levelTaskDetail:
		g, ok := m.currentGroup()
		if !ok {
			return ""
		}
		crumb := headingPath(g)
		if m.level == levelTaskDetail && m.taskCursor < len(g.Tasks) {
			crumb += " › " + g.Tasks[m.taskCursor].Description
		}
		return crumb
	}
	return "Groups"
}

// headingPath joins a group's headings outermost first.
func headingPath(g query.GroupView) string {
	parts := make([]string, len(g.Headings))
	for i, h := range g.Headings {
		if h == "" {
			h = noHeading
		}
		parts[i] = h
	}
	return strings.Join(parts, " › ")
}

// renderRow pads a row to the full width and highlights the cursor row.
func (m Model) renderRow(text string, selected bool) string {
	line := padRight(" "+text, m.width)
	if selected {
		return cursorRowStyle.Render(line)
	}
	return normalRowStyle.Render(line)
}

func (m Model) groupRows() []string {
	groups := m.groups()
	if len(groups) == 0 {
		if m.loading || m.result == nil {
			return nil
		}
		return []string{m.renderRow("No tasks match.", false)}
	}
	countWidth := 8
	labelWidth := max(m.width-countWidth-2, 1)
	var rows []string
	end := min(m.groupOffset+m.pageSize(), len(groups))
	for i := m.groupOffset; i < end; i++ {
		g := groups[i]
		label := padRight(headingPath(g), labelWidth)
		count := countStyle.Render(fmt.Sprintf("%*s", countWidth, formatCount(len(g.Tasks))))
		rows = append(rows, m.renderRow(label+count, i == m.groupCursor))
	}
	return rows
}

func (m Model) taskRows() []string {
	g, ok := m.currentGroup()
	if !ok {
		return nil
	}
	const dueWidth = 12
	descWidth := max(m.width-dueWidth-8, 1)
	var rows []string
	end := min(m.taskOffset+m.pageSize(), len(g.Tasks))
	for i := m.taskOffset; i < end; i++ {
		t := g.Tasks[i]
		status := t.Status
		if status == "" {
			status = " "
		}
		line := fmt.Sprintf("[%s] %s %s", status, padRight(sanitize(t.Description), descWidth), padRight(t.Due, dueWidth))
		rows = append(rows, m.renderRow(line, i == m.taskCursor))
	}
	return rows
}

func (m Model) detailRows() []string {
	g, ok := m.currentGroup()
	if !ok || m.taskCursor >= len(g.Tasks) {
		return nil
	}
	var rows []string
	for _, f := range recordFields(g.Tasks[m.taskCursor]) {
		rows = append(rows, m.renderRow(fmt.Sprintf("%-12s %s", f.name+":", sanitize(f.value)), false))
	}
	return rows
}

type recordField struct{ name, value string }

// recordFields lists the non-empty fields of r in display order.
func recordFields(r importer.Record) []recordField {
	all := []recordField{
		{"Description", r.Description},
		{"Status", strings.TrimSpace(strings.Join([]string{"[" + r.Status + "]", r.StatusName, r.StatusType}, " "))},
		{"Priority", r.Priority},
		{"Tags", strings.Join(r.Tags, " ")},
		{"Created", r.Created},
		{"Start", r.Start},
		{"Scheduled", r.Scheduled},
		{"Due", r.Due},
		{"Done", r.Done},
		{"Cancelled", r.Cancelled},
		{"Recurrence", r.Recurrence},
		{"Path", r.Path},
		{"Heading", r.Heading},
		{"Block link", r.BlockLink},
	}
	var out []recordField
	for _, f := range all {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}

func (m Model) footerView() string {
	if m.inputMode != inputNone {
		label := "Filter: "
		if m.inputMode == inputInstruction {
			label = "Group by: "
		}
		line := footerStyle.Render(label + m.input.View())
		if m.err != nil {
			line = errorStyle.Render(truncateToWidth(m.err.Error(), max(m.width-2, 0))) + "\n" + line
		}
		return line
	}
	if m.err != nil {
		return errorStyle.Render(truncateToWidth("Error: "+m.err.Error(), max(m.width-2, 0)))
	}
	if m.flashMessage != "" {
		return flashStyle.Render(m.flashMessage)
	}

	var hints string
	switch m.level {
	case levelTasks:
		hints = "↑/↓ move · Enter details · n/p next/prev group · Esc back · ? help"
	case levelTaskDetail:
		hints = "↑/↓ prev/next task · Esc back · ? help"
	default:
		hints = "↑/↓ move · Enter open · / filter · e edit · a add · x remove · r reload · q quit · ? help"
	}
	return footerStyle.Render(truncateToWidth(hints, max(m.width-2, 0)))
}

func (m Model) helpView() string {
	lines := []string{
		modalTitleStyle.Render("Keys"),
		"",
		"↑/k ↓/j     Move up/down",
		"PgUp/PgDn   Page up/down",
		"g/G         First/last row",
		"Enter       Open group or task",
		"Esc         Go back, or clear the filter",
		"n/p         Next/previous group (task list)",
		"/           Edit the task filter",
		"e           Edit the innermost instruction",
		"a           Add an instruction",
		"x           Remove the innermost instruction",
		"r           Re-run the grouping",
		"q           Quit",
		"",
		"Instructions may be typed without the",
		"\"group by function\" prefix.",
		"",
		"Press any key to close.",
	}
	box := modalStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(max(m.width, 1), max(m.height, 1), lipgloss.Center, lipgloss.Center, box)
}

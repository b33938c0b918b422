// Package tui provides an interactive terminal browser for grouped tasks.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/search"
)

// viewLevel represents the current navigation depth.
type viewLevel int

const (
	levelGroups     viewLevel = iota
	levelTasks                // Tasks of one group
	levelTaskDetail           // Every field of one task
)

// inputMode says what the footer text input is editing.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputInstruction
)

// Options configuration for TUI.
type Options struct {
	// Instructions are the initial group by lines, outermost first.
	Instructions []string
	// Filter is the initial search filter, e.g. "is:open path:Work/".
	Filter   string
	Settings query.Settings
	Version  string
}

// Model is the main TUI model following the Elm architecture.
type Model struct {
	engine   query.Engine
	settings query.Settings
	version  string

	instructions []string
	filter       string
	result       *query.GroupResult

	// Navigation
	level       viewLevel
	groupCursor int
	groupOffset int
	taskCursor  int
	taskOffset  int

	// Footer input
	input     textinput.Model
	inputMode inputMode
	editIndex int // instruction being edited; len(instructions) appends

	// Terminal dimensions
	width  int
	height int

	// Loading state
	loading       bool
	err           error
	requestID     uint64 // ignore stale async results
	spinnerFrame  int
	spinnerActive bool

	flashMessage   string
	flashExpiresAt time.Time

	showHelp bool
	quitting bool
}

// New creates a new TUI model with the given options.
func New(engine query.Engine, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 60

	return Model{
		engine:        engine,
		settings:      opts.Settings,
		version:       opts.Version,
		instructions:  append([]string(nil), opts.Instructions...),
		filter:        opts.Filter,
		input:         ti,
		width:         100,
		height:        24,
		loading:       true,
		spinnerActive: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadGroups(), spinnerTick())
}

// groupsLoadedMsg is sent when a grouping pass finishes.
type groupsLoadedMsg struct {
	result    *query.GroupResult
	err       error
	requestID uint64
}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// loadGroups selects tasks with the current filter and groups them.
func (m Model) loadGroups() tea.Cmd {
	requestID := m.requestID
	engine, settings, filter := m.engine, m.settings, m.filter
	text := query.JoinInstructions(m.instructions)
	return func() (msg tea.Msg) {
		// Recover from panics to prevent TUI from becoming unresponsive
		defer func() {
			if r := recover(); r != nil {
				msg = groupsLoadedMsg{err: fmt.Errorf("query panic: %v", r), requestID: requestID}
			}
		}()

		ctx := context.Background()
		p := search.NewParser()
		if today := settings.Today; !today.IsZero() {
			p.Now = func() time.Time { return today }
		}
		tasks, err := query.SelectTasks(ctx, engine, p.Parse(filter))
		if err != nil {
			return groupsLoadedMsg{err: fmt.Errorf("load tasks: %w", err), requestID: requestID}
		}
		res, err := query.Group(ctx, text, tasks, settings)
		return groupsLoadedMsg{result: res, err: err, requestID: requestID}
	}
}

// reload starts a new grouping pass; older results in flight are dropped.
func (m *Model) reload() tea.Cmd {
	m.requestID++
	m.loading = true
	return tea.Batch(m.loadGroups(), m.startSpinner())
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner returns a spinnerTick command if the spinner isn't already active,
// and marks it as active. Call this when loading begins.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	return spinnerTick()
}

func (m *Model) flash(text string) tea.Cmd {
	m.flashMessage = text
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(t time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.input.Width = max(m.width-16, 10)
		m.clampCursors()
		return m, nil

	case groupsLoadedMsg:
		if msg.requestID != m.requestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			// Keep showing the last good result under the error.
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.clampCursors()
		return m, nil

	case spinnerTickMsg:
		if m.loading {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil

	case flashClearMsg:
		if !m.flashExpiresAt.IsZero() && !time.Now().Before(m.flashExpiresAt) {
			m.flashMessage = ""
		}
		return m, nil
	}

	if m.inputMode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// groups returns the current groups, empty before the first load.
func (m Model) groups() []query.GroupView {
	if m.result == nil {
		return nil
	}
	return m.result.Groups
}

// currentGroup returns the group under the cursor.
func (m Model) currentGroup() (query.GroupView, bool) {
	groups := m.groups()
	if m.groupCursor < 0 || m.groupCursor >= len(groups) {
		return query.GroupView{}, false
	}
	return groups[m.groupCursor], true
}

// clampCursors keeps cursors inside the loaded data after a reload or
// resize, returning to the group list when the open group disappeared.
func (m *Model) clampCursors() {
	groups := m.groups()
	if m.groupCursor >= len(groups) {
		m.groupCursor = max(len(groups)-1, 0)
		if m.level != levelGroups {
			m.level = levelGroups
		}
	}
	m.groupOffset = calculateScrollOffset(m.groupCursor, m.groupOffset, m.pageSize())

	g, ok := m.currentGroup()
	if !ok {
		m.taskCursor, m.taskOffset = 0, 0
		return
	}
	if m.taskCursor >= len(g.Tasks) {
		m.taskCursor = max(len(g.Tasks)-1, 0)
		if m.level == levelTaskDetail {
			m.level = levelTasks
		}
	}
	m.taskOffset = calculateScrollOffset(m.taskCursor, m.taskOffset, m.pageSize())
}

// normalizeInstruction lets the user type a bare expression.
func normalizeInstruction(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(strings.ToLower(s), "group by") {
		return s
	}
	return "group by function " + s
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"yolla/pkg/eventlog"
	"yolla/pkg/protocol"
)

// eventTail is how many recent events the dashboard keeps on screen.
const eventTail = 8

// tickMsg is sent by Bubble Tea on every tick interval.
// Used to trigger periodic data refresh from the state database.
type tickMsg time.Time

// stateMsg carries a fetched snapshot of the task table and event tail.
// err is set when the database is missing or unreadable.
type stateMsg struct {
	tasks  []protocol.TaskRow
	events []eventlog.Event
	err    error
}

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchStateCmd returns a tea.Cmd that reads the state database.
func fetchStateCmd() tea.Cmd {
	return func() tea.Msg {
		tasks, events, err := fetchState(context.Background())
		return stateMsg{tasks: tasks, events: events, err: err}
	}
}

// Model is the Bubble Tea model for the yolla dashboard.
type Model struct {
	table  table.Model
	styles Styles
	theme  Theme

	tasks  []protocol.TaskRow
	events []eventlog.Event
	err    error

	showAll bool
	width   int
	height  int
}

// newModel creates a new Model with an empty task table.
func newModel() Model {
	theme := DefaultTheme()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Task", Width: 20},
			{Title: "Agent", Width: 14},
			{Title: "State", Width: 10},
			{Title: "Progress", Width: 8},
			{Title: "Reason", Width: 28},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return Model{
		table:  t,
		theme:  theme,
		styles: NewStyles(theme),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{fetchStateCmd(), tickCmd()}
	if watch := watchStateDir(statePath()); watch != nil {
		cmds = append(cmds, watch)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, fetchStateCmd()
		case "a":
			m.showAll = !m.showAll
			m.table.SetRows(taskRows(m.tasks, m.showAll))
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case stateMsg:
		m.err = msg.err
		if msg.err == nil {
			m.tasks = msg.tasks
			m.events = msg.events
			m.table.SetRows(taskRows(m.tasks, m.showAll))
		}

	case tickMsg:
		return m, tea.Batch(fetchStateCmd(), tickCmd())

	case fsChangeMsg:
		// Re-arm the watcher alongside the refresh; each watch command
		// delivers a single change notification.
		cmds := []tea.Cmd{fetchStateCmd()}
		if watch := watchStateDir(statePath()); watch != nil {
			cmds = append(cmds, watch)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("yolla tasks"))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(m.styles.Muted.Render("no state database yet — run `yolla run` to create one"))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.table.View())
		sb.WriteString("\n\n")
		sb.WriteString(m.renderEvents())
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.StatusBar.Render(m.statusLine()))
	return sb.String()
}

// renderEvents shows the most recent lifecycle events, newest first.
func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return m.styles.Muted.Render("no events")
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("recent events"))
	sb.WriteString("\n")
	for _, e := range m.events {
		line := fmt.Sprintf("%s  %-20s %s", e.CreatedAt.Format("15:04:05"), e.Type, e.TaskID)
		sb.WriteString(m.styles.EventLine.Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// statusLine summarizes counts and key bindings.
func (m Model) statusLine() string {
	counts := countStates(m.tasks)
	scope := "active"
	if m.showAll {
		scope = "all"
	}
	return fmt.Sprintf("%d running · %d pending · %d done · %d failed · showing %s · q quit · a toggle · r refresh",
		counts[protocol.TaskRunning], counts[protocol.TaskPending],
		counts[protocol.TaskDone], counts[protocol.TaskFailed], scope)
}

// taskRows converts task rows for the table, hiding terminal tasks unless
// showAll is set.
func taskRows(tasks []protocol.TaskRow, showAll bool) []table.Row {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		terminal := t.State == string(protocol.TaskDone) || t.State == string(protocol.TaskFailed)
		if terminal && !showAll {
			continue
		}
		rows = append(rows, table.Row{
			t.TaskID,
			t.AgentID,
			t.State,
			fmt.Sprintf("%d%%", t.Progress),
			t.FailureReason,
		})
	}
	return rows
}

// countStates tallies tasks per lifecycle state.
func countStates(tasks []protocol.TaskRow) map[protocol.TaskState]int {
	counts := make(map[protocol.TaskState]int, 4)
	for _, t := range tasks {
		counts[protocol.TaskState(t.State)]++
	}
	return counts
}

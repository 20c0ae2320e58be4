// Package tui provides a Bubble Tea view of a running pomodoro interval.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/fakeyudi/pomo/internal/timer"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	breakTitleStyle = titleStyle.
			Background(lipgloss.Color("29"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(1, 2)

	overtimeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Key bindings ─────────────────

type keyMap struct {
	Toggle key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause/resume")),
	Cancel: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Controller is the part of timer.Service the view drives.
type Controller interface {
	Pause() (timer.Status, error)
	Resume() (timer.Status, error)
	Cancel(ctx context.Context) (timer.Status, error)
	Status() timer.Status
	Subscribe(buffer int) timer.Subscription
	Unsubscribe(id uuid.UUID)
}

// Outcome reports how the view ended.
type Outcome int

const (
	// Completed means the interval ran to its deadline, without overtime.
	Completed Outcome = iota
	// Cancelled means the user cancelled or quit before the deadline.
	Cancelled
	// OvertimeEnded means a break finished and the user then ended overtime.
	OvertimeEnded
)

// ── Messages ────────────────────

type eventMsg timer.Event

type closedMsg struct{}

// ── Model ────────────────────

// Model is the root Bubble Tea model for a running interval.
type Model struct {
	ctrl    Controller
	sub     timer.Subscription
	status  timer.Status
	bar     progress.Model
	help    help.Model
	width   int
	err     error
	outcome Outcome
	done    bool
}

// New subscribes to ctrl and returns a model showing its current interval.
func New(ctrl Controller) Model {
	return Model{
		ctrl:   ctrl,
		sub:    ctrl.Subscribe(64),
		status: ctrl.Status(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:   help.New(),
		width:  60,
	}
}

// Outcome returns how the view ended. It is meaningful once Done is true.
func (m Model) Outcome() Outcome { return m.outcome }

// Done reports whether the view has finished.
func (m Model) Done() bool { return m.done }

// Err returns the last error reported by the timer, if any.
func (m Model) Err() error { return m.err }

func waitForEvent(sub timer.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.C
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return waitForEvent(m.sub) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Toggle):
			return m.toggle()
		case key.Matches(msg, keys.Cancel), key.Matches(msg, keys.Quit):
			return m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = max(10, msg.Width-8)
		return m, nil

	case eventMsg:
		ev := timer.Event(msg)
		m.status = m.ctrl.Status()
		if ev.Type == timer.EventComplete && !ev.Overtime {
			return m.finish(Completed)
		}
		return m, waitForEvent(m.sub)

	case closedMsg:
		return m.finish(m.outcome)
	}
	return m, nil
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	var (
		st  timer.Status
		err error
	)
	switch m.ctrl.Status().State {
	case timer.StateRunning:
		st, err = m.ctrl.Pause()
	case timer.StatePaused:
		st, err = m.ctrl.Resume()
	default:
		return m, nil
	}
	if err != nil {
		// Pausing overtime is not allowed; show why instead of failing.
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = st
	return m, nil
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	st := m.ctrl.Status()
	if st.State == timer.StateIdle {
		return m.finish(m.outcome)
	}
	outcome := Cancelled
	if st.Overtime {
		outcome = OvertimeEnded
	}
	after, err := m.ctrl.Cancel(context.Background())
	m.status = after
	if err != nil {
		m.err = err
	}
	return m.finish(outcome)
}

func (m Model) finish(outcome Outcome) (tea.Model, tea.Cmd) {
	m.outcome = outcome
	m.done = true
	m.ctrl.Unsubscribe(m.sub.ID)
	return m, tea.Quit
}

func (m Model) View() string {
	st := m.status

	style := titleStyle
	if st.Kind.IsBreak() {
		style = breakTitleStyle
	}
	title := style.Width(m.width).Render("  pomo  " + st.Kind.Label())

	var body strings.Builder
	switch {
	case st.Overtime:
		body.WriteString(overtimeStyle.Render("+" + FormatClock(st.OvertimeElapsed())))
		body.WriteString("\n")
		body.WriteString(dimStyle.Render("  Break finished. Overtime is counting; press c to end it."))
	default:
		body.WriteString(clockStyle.Render(FormatClock(st.Remaining())))
		body.WriteString("\n  ")
		body.WriteString(m.bar.ViewAs(progressFraction(st)))
		if st.State == timer.StatePaused {
			body.WriteString("\n\n" + labelStyle.Render("  Paused"))
		}
	}
	body.WriteString("\n\n")
	body.WriteString(labelStyle.Render(fmt.Sprintf("  %-18s", "Focus completed:")) + fmt.Sprintf("  %d", st.CompletedWorkCount))
	body.WriteString("\n")
	if m.err != nil {
		body.WriteString("\n" + errorStyle.Render("  "+m.err.Error()) + "\n")
	}

	statusBar := statusBarStyle.Width(m.width).Render(m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, title, body.String(), statusBar)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// progressFraction is the elapsed share of the planned duration.
func progressFraction(st timer.Status) float64 {
	if st.PlannedDurationSeconds == 0 {
		return 0
	}
	total := float64(st.PlannedDurationSeconds) * 1000
	f := 1 - float64(st.RemainingMs)/total
	return min(1, max(0, f))
}

// FormatClock renders d as mm:ss, or h:mm:ss from one hour up. Partial
// seconds round up so the display reaches 00:00 only at the deadline.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Run shows the view until the interval ends and returns how it ended.
func Run(ctrl Controller) (Outcome, error) {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Cancelled, err
	}
	m := final.(Model)
	return m.Outcome(), m.Err()
}

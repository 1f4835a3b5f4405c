// Package dashboard is the terminal view of the alert mesh. Events from the
// stream are folded with the reducer inside the bubbletea loop, so no two
// events are ever applied concurrently.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/reducer"
)

const (
	// TriggerCooldown is how long the trigger key stays disabled after a press
	TriggerCooldown = time.Second

	actionTimeout = 10 * time.Second
)

// Actions are the outbound calls the dashboard can make
type Actions interface {
	Trigger(ctx context.Context) (string, error)
	SimulateFailure(ctx context.Context, agent string) error
	Reset(ctx context.Context) error
}

type action string

const (
	actionTrigger action = "trigger"
	actionFail    action = "simulate failure"
	actionReset   action = "reset"
)

type eventMsg struct {
	event model.Event
}

type streamClosedMsg struct{}

type actionDoneMsg struct {
	action  action
	agent   string
	alertID string
	err     error
}

type triggerReadyMsg struct{}

// Model is the bubbletea model of the dashboard
type Model struct {
	actions Actions
	events  <-chan model.Event
	logger  *zap.Logger
	now     func() time.Time

	state    reducer.State
	expanded map[string]bool
	cursor   int

	simulating  bool
	failPending bool
	streamDone  bool
	statusLine  string
	statusErr   bool

	width  int
	height int

	timeline viewport.Model
	spinner  spinner.Model
	help     help.Model
	theme    theme
}

// New creates the dashboard model reading events from the given channel
func New(actions Actions, events <-chan model.Event, logger *zap.Logger) Model {
	th := newTheme()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.status

	timeline := viewport.New(80, 10)
	timeline.MouseWheelEnabled = true

	m := Model{
		actions:    actions,
		events:     events,
		logger:     logger.Named("dashboard"),
		now:        time.Now,
		state:      reducer.NewState(),
		expanded:   make(map[string]bool),
		statusLine: "waiting for events...",
		timeline:   timeline,
		spinner:    sp,
		help:       help.New(),
		theme:      th,
	}
	m.renderTimeline()
	return m
}

// State returns the current reducer state
func (m Model) State() reducer.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func waitForEvent(ch <-chan model.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.applyEvent(msg.event)
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.streamDone = true
		m.setStatus("event stream closed", true)
		return m, nil

	case actionDoneMsg:
		m.finishAction(msg)
		return m, nil

	case triggerReadyMsg:
		m.simulating = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.renderTimeline()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.failPending {
		m.failPending = false
		if agent, ok := agentForDigit(msg.String(), model.AgentNames); ok {
			m.setStatus(fmt.Sprintf("Simulating failure of %s...", agent), false)
			return m, m.actionCmd(actionFail, agent)
		}
		m.setStatus("failure cancelled", false)
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Trigger):
		if m.simulating {
			return m, nil
		}
		m.simulating = true
		m.setStatus("Simulating...", false)
		return m, tea.Batch(
			m.actionCmd(actionTrigger, ""),
			tea.Tick(TriggerCooldown, func(time.Time) tea.Msg { return triggerReadyMsg{} }),
		)
	case key.Matches(msg, keys.Reset):
		m.setStatus("Resetting...", false)
		return m, m.actionCmd(actionReset, "")
	case key.Matches(msg, keys.Fail):
		m.failPending = true
		m.setStatus(failPrompt(), false)
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.renderTimeline()
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Events)-1 {
			m.cursor++
			m.renderTimeline()
		}
	case key.Matches(msg, keys.Expand):
		if m.cursor < len(m.state.Events) {
			id := m.state.Events[m.cursor].ID
			m.expanded[id] = !m.expanded[id]
			m.renderTimeline()
		}
	}
	return m, nil
}

func failPrompt() string {
	prompt := "fail which agent?"
	for i, name := range model.AgentNames {
		prompt += fmt.Sprintf(" %d=%s", i+1, name)
	}
	return prompt
}

func (m Model) actionCmd(a action, agent string) tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		done := actionDoneMsg{action: a, agent: agent}
		switch a {
		case actionTrigger:
			done.alertID, done.err = actions.Trigger(ctx)
		case actionFail:
			done.err = actions.SimulateFailure(ctx, agent)
		case actionReset:
			done.err = actions.Reset(ctx)
		}
		return done
	}
}

// finishAction reports the outcome of an action call. Only a successful
// reset touches the reducer state; everything else arrives as events.
func (m *Model) finishAction(msg actionDoneMsg) {
	if msg.err != nil {
		m.logger.Error("Action failed",
			zap.String("action", string(msg.action)),
			zap.String("agent", msg.agent),
			zap.Error(msg.err))
		m.setStatus(fmt.Sprintf("%s failed: %v", msg.action, msg.err), true)
		return
	}

	switch msg.action {
	case actionTrigger:
		m.setStatus(fmt.Sprintf("Alert %s triggered", msg.alertID), false)
	case actionFail:
		m.setStatus(fmt.Sprintf("%s failure simulated", msg.agent), false)
	case actionReset:
		m.state = reducer.Reset(m.state)
		m.cursor = 0
		m.expanded = make(map[string]bool)
		m.setStatus("Reset complete", false)
		m.renderTimeline()
	}
}

func (m *Model) applyEvent(ev model.Event) {
	m.state = reducer.Apply(m.state, ev, m.now())
	// a cursor on the newest item follows new events, any other stays put
	if m.cursor > 0 {
		m.cursor++
	}
	if m.cursor >= len(m.state.Events) {
		m.cursor = len(m.state.Events) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.renderTimeline()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusLine = text
	m.statusErr = isErr
}

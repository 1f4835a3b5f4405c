// Package reducer folds the event stream into per-agent status and a bounded
// event history. Everything here is pure: inputs are never mutated and the
// current time is passed in by the caller.
package reducer

import (
	"strings"
	"time"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// MaxEvents is the number of events kept, most recent first
const MaxEvents = 100

// ResolvedLabel is recorded as lastEvent on every agent when an alert resolves
const ResolvedLabel = "Alert Resolved"

// ReceivedPrefix is prepended to the event type for the receiving agent
const ReceivedPrefix = "Received: "

// State is the reducer input and output
type State struct {
	Agents map[string]model.AgentStatus `json:"agents"`
	Events []model.Event                `json:"events"`
}

// NewState returns the initial state: six idle agents and no events
func NewState() State {
	return State{
		Agents: model.NewAgentStatuses(),
		Events: []model.Event{},
	}
}

type rule struct {
	keywords []string
	status   model.Status
}

// classification is checked in order; the first rule with a matching keyword wins
var classification = []rule{
	{keywords: []string{"error", "failed"}, status: model.StatusError},
	{keywords: []string{"success", "completed", "initiated", "created", "assessed", "received", "resolved"}, status: model.StatusSuccess},
}

// Classify maps an event type to the status of the agent that emitted it.
// Types matching no keyword are processing.
func Classify(eventType string) model.Status {
	for _, r := range classification {
		for _, kw := range r.keywords {
			if strings.Contains(eventType, kw) {
				return r.status
			}
		}
	}
	return model.StatusProcessing
}

// Apply folds ev into s and returns the new state
func Apply(s State, ev model.Event, now time.Time) State {
	return State{
		Agents: applyAgents(s.Agents, ev, now),
		Events: prepend(s.Events, ev),
	}
}

// Reset returns every agent of s to idle and drops the event history
func Reset(s State) State {
	agents := make(map[string]model.AgentStatus, len(s.Agents))
	for name, agent := range s.Agents {
		agents[name] = model.AgentStatus{Name: agent.Name, Status: model.StatusIdle, LastUpdate: agent.LastUpdate}
	}
	return State{Agents: agents, Events: []model.Event{}}
}

// ApplyToInstance folds ev into an alert instance. The first alert_resolved
// event stamps ResolvedAt.
func ApplyToInstance(inst *model.AlertInstance, ev model.Event, now time.Time) *model.AlertInstance {
	next := Apply(State{Agents: inst.Agents, Events: inst.Events}, ev, now)
	out := &model.AlertInstance{
		AlertID:    inst.AlertID,
		Agents:     next.Agents,
		Events:     next.Events,
		CreatedAt:  inst.CreatedAt,
		ResolvedAt: inst.ResolvedAt,
	}
	if ev.Type == model.EventAlertResolved && out.ResolvedAt == nil {
		t := now
		out.ResolvedAt = &t
	}
	return out
}

func applyAgents(prev map[string]model.AgentStatus, ev model.Event, now time.Time) map[string]model.AgentStatus {
	agents := make(map[string]model.AgentStatus, len(prev))
	for name, agent := range prev {
		agents[name] = agent
	}

	if agent, ok := agents[ev.From]; ok && ev.From != "" {
		agent.Status = Classify(ev.Type)
		agent.LastEvent = ev.Type
		agent.LastUpdate = now
		agents[ev.From] = agent
	}

	if ev.Type == model.EventAlertResolved {
		for name, agent := range agents {
			agent.Status = model.StatusSuccess
			agent.LastEvent = ResolvedLabel
			agent.LastUpdate = now
			agents[name] = agent
		}
	}

	// Runs last so a receiver update wins over a sender update when from == to.
	if agent, ok := agents[ev.To]; ok && ev.To != "" {
		agent.Status = model.StatusProcessing
		agent.LastEvent = ReceivedPrefix + ev.Type
		agent.LastUpdate = now
		agents[ev.To] = agent
	}

	return agents
}

func prepend(events []model.Event, ev model.Event) []model.Event {
	n := len(events) + 1
	if n > MaxEvents {
		n = MaxEvents
	}
	out := make([]model.Event, n)
	out[0] = ev
	copy(out[1:], events)
	return out
}

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertIDPrefix starts every generated alert id
const AlertIDPrefix = "AMBER-"

// NewAlertID returns a fresh uuid based alert id
func NewAlertID() string {
	return AlertIDPrefix + strings.ToUpper(uuid.New().String()[:8])
}

// AlertInstance is one run of the simulated workflow with its own agent
// states and event history
type AlertInstance struct {
	AlertID    string                 `json:"alertId"`
	Agents     map[string]AgentStatus `json:"agents"`
	Events     []Event                `json:"events"`
	CreatedAt  time.Time              `json:"createdAt"`
	ResolvedAt *time.Time             `json:"resolvedAt,omitempty"`
}

// NewAlertInstance creates an instance with every agent idle
func NewAlertInstance(alertID string, createdAt time.Time) *AlertInstance {
	return &AlertInstance{
		AlertID:   alertID,
		Agents:    NewAgentStatuses(),
		Events:    []Event{},
		CreatedAt: createdAt,
	}
}

// Resolved reports whether an alert_resolved event has been seen
func (a *AlertInstance) Resolved() bool {
	return a.ResolvedAt != nil
}

// Clone returns a deep copy safe to hand out to readers
func (a *AlertInstance) Clone() *AlertInstance {
	out := &AlertInstance{
		AlertID:   a.AlertID,
		Agents:    make(map[string]AgentStatus, len(a.Agents)),
		Events:    make([]Event, len(a.Events)),
		CreatedAt: a.CreatedAt,
	}
	for k, v := range a.Agents {
		out.Agents[k] = v
	}
	copy(out.Events, a.Events)
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		out.ResolvedAt = &t
	}
	return out
}

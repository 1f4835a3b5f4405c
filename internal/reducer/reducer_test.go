package reducer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

var now = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func event(id, eventType, from, to string) model.Event {
	return model.Event{ID: id, Type: eventType, From: from, To: to, Timestamp: now.UnixMilli()}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		eventType string
		want      model.Status
	}{
		{"agent_failed", model.StatusError},
		{"connection_error", model.StatusError},
		{"broadcast_initiated", model.StatusSuccess},
		{"geofence_created", model.StatusSuccess},
		{"alert_assessed", model.StatusSuccess},
		{"tip_received", model.StatusSuccess},
		{"alert_resolved", model.StatusSuccess},
		{"scan_completed", model.StatusSuccess},
		{"upload_success", model.StatusSuccess},
		{"camera_scanning", model.StatusProcessing},
		{"alert_reported", model.StatusProcessing},
		{"camera_scan_complete", model.StatusProcessing},
		{"", model.StatusProcessing},
		// error keywords take precedence over success keywords
		{"received_error", model.StatusError},
		{"failed_but_resolved", model.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.eventType))
		})
	}
}

func TestApplyFromStatus(t *testing.T) {
	t.Run("agent failed", func(t *testing.T) {
		s := Apply(NewState(), event("1", "agent_failed", "Camera Agent", ""), now)
		assert.Equal(t, model.StatusError, s.Agents["Camera Agent"].Status)
		assert.Equal(t, "agent_failed", s.Agents["Camera Agent"].LastEvent)
		assert.Equal(t, now, s.Agents["Camera Agent"].LastUpdate)
	})

	t.Run("broadcast initiated", func(t *testing.T) {
		s := Apply(NewState(), event("1", "broadcast_initiated", "Broadcast Agent", ""), now)
		assert.Equal(t, model.StatusSuccess, s.Agents["Broadcast Agent"].Status)
	})

	t.Run("camera scanning", func(t *testing.T) {
		s := Apply(NewState(), event("1", "camera_scanning", "Camera Agent", ""), now)
		assert.Equal(t, model.StatusProcessing, s.Agents["Camera Agent"].Status)
	})
}

func TestApplyToStatus(t *testing.T) {
	s := Apply(NewState(), event("1", "alert_assessed", "AI Analyzer", "Broadcast Agent"), now)

	assert.Equal(t, model.StatusSuccess, s.Agents["AI Analyzer"].Status)
	assert.Equal(t, model.StatusProcessing, s.Agents["Broadcast Agent"].Status)
	assert.Equal(t, "Received: alert_assessed", s.Agents["Broadcast Agent"].LastEvent)
}

func TestApplyToOverridesFromForSameAgent(t *testing.T) {
	s := Apply(NewState(), event("1", "tip_received", "Tip Processor", "Tip Processor"), now)

	assert.Equal(t, model.StatusProcessing, s.Agents["Tip Processor"].Status)
	assert.Equal(t, "Received: tip_received", s.Agents["Tip Processor"].LastEvent)
}

func TestApplyAlertResolved(t *testing.T) {
	s := NewState()
	s = Apply(s, event("1", "agent_failed", "Camera Agent", ""), now)
	s = Apply(s, event("2", "camera_scanning", "Geo Intelligence", ""), now)

	later := now.Add(time.Minute)
	s = Apply(s, event("3", "alert_resolved", "Alert Receiver", ""), later)

	require.Len(t, s.Agents, len(model.AgentNames))
	for name, agent := range s.Agents {
		assert.Equal(t, model.StatusSuccess, agent.Status, name)
		assert.Equal(t, ResolvedLabel, agent.LastEvent, name)
		assert.Equal(t, later, agent.LastUpdate, name)
	}
}

func TestApplyAlertResolvedThenTo(t *testing.T) {
	s := Apply(NewState(), event("1", "alert_resolved", "Alert Receiver", "AI Analyzer"), now)

	assert.Equal(t, model.StatusProcessing, s.Agents["AI Analyzer"].Status)
	assert.Equal(t, "Received: alert_resolved", s.Agents["AI Analyzer"].LastEvent)
	assert.Equal(t, model.StatusSuccess, s.Agents["Alert Receiver"].Status)
}

func TestApplyUnknownAgents(t *testing.T) {
	initial := NewState()
	s := Apply(initial, event("1", "agent_failed", "Ghost Agent", "Other Ghost"), now)

	assert.Equal(t, initial.Agents, s.Agents)
	assert.Len(t, s.Agents, len(model.AgentNames))
	assert.NotContains(t, s.Agents, "Ghost Agent")
	assert.NotContains(t, s.Agents, "Other Ghost")
	require.Len(t, s.Events, 1)
}

func TestApplyEventsBoundedMostRecentFirst(t *testing.T) {
	s := NewState()
	for i := 0; i < 250; i++ {
		s = Apply(s, event(fmt.Sprintf("%d", i), "camera_scanning", "Camera Agent", ""), now)
		require.LessOrEqual(t, len(s.Events), MaxEvents)
	}

	require.Len(t, s.Events, MaxEvents)
	for i, ev := range s.Events {
		assert.Equal(t, fmt.Sprintf("%d", 249-i), ev.ID)
	}
}

func TestApplyIsPure(t *testing.T) {
	s := Apply(NewState(), event("1", "alert_reported", "Alert Receiver", "AI Analyzer"), now)
	snapshotAgents := make(map[string]model.AgentStatus)
	for k, v := range s.Agents {
		snapshotAgents[k] = v
	}
	snapshotEvents := append([]model.Event(nil), s.Events...)

	ev := event("2", "agent_failed", "AI Analyzer", "Camera Agent")
	a := Apply(s, ev, now)
	b := Apply(s, ev, now)

	assert.Equal(t, a, b)
	assert.Equal(t, snapshotAgents, s.Agents)
	assert.Equal(t, snapshotEvents, s.Events)
}

func TestReset(t *testing.T) {
	s := Apply(NewState(), event("1", "agent_failed", "Camera Agent", "AI Analyzer"), now)
	r := Reset(s)

	assert.Empty(t, r.Events)
	require.Len(t, r.Agents, len(model.AgentNames))
	for _, agent := range r.Agents {
		assert.Equal(t, model.StatusIdle, agent.Status)
		assert.Empty(t, agent.LastEvent)
	}
	assert.Equal(t, model.StatusError, s.Agents["Camera Agent"].Status)
}

func TestApplyToInstance(t *testing.T) {
	inst := model.NewAlertInstance("AMBER-1", now)

	inst = ApplyToInstance(inst, event("1", "alert_reported", "Alert Receiver", "AI Analyzer"), now)
	assert.Nil(t, inst.ResolvedAt)
	assert.Len(t, inst.Events, 1)

	resolvedAt := now.Add(time.Minute)
	inst = ApplyToInstance(inst, event("2", "alert_resolved", "Alert Receiver", ""), resolvedAt)
	require.NotNil(t, inst.ResolvedAt)
	assert.Equal(t, resolvedAt, *inst.ResolvedAt)

	inst = ApplyToInstance(inst, event("3", "alert_resolved", "Alert Receiver", ""), resolvedAt.Add(time.Minute))
	assert.Equal(t, resolvedAt, *inst.ResolvedAt)
	assert.Equal(t, "AMBER-1", inst.AlertID)
	assert.Len(t, inst.Events, 3)
}

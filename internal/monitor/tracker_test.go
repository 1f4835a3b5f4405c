package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/mesh"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/testutil"
)

func newClockedTracker() *Tracker {
	tr := NewTracker(nil, zap.NewNop())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	tr.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return tr
}

func event(eventType, from, to string) model.Event {
	return model.Event{ID: eventType, Type: eventType, From: from, To: to}
}

func TestTrackerIgnoresEventsWithoutActiveAlert(t *testing.T) {
	tr := newClockedTracker()
	tr.Apply(event(model.EventAlertReported, model.AgentAlertReceiver, model.AgentAIAnalyzer))

	_, ok := tr.Active()
	assert.False(t, ok)
	assert.Empty(t, tr.List())
}

func TestTrackerInstanceIsolation(t *testing.T) {
	tr := newClockedTracker()

	tr.Create("AMBER-1")
	tr.Apply(event(model.EventAlertReported, model.AgentAlertReceiver, model.AgentAIAnalyzer))

	tr.Create("AMBER-2")
	tr.Apply(event(model.EventAgentFailed, model.AgentCamera, ""))

	first, err := tr.Get("AMBER-1")
	require.NoError(t, err)
	second, err := tr.Get("AMBER-2")
	require.NoError(t, err)

	assert.Len(t, first.Events, 1)
	assert.Equal(t, model.StatusProcessing, first.Agents[model.AgentAIAnalyzer].Status)
	assert.Equal(t, model.StatusIdle, first.Agents[model.AgentCamera].Status)

	assert.Len(t, second.Events, 1)
	assert.Equal(t, model.StatusError, second.Agents[model.AgentCamera].Status)
	assert.Equal(t, model.StatusIdle, second.Agents[model.AgentAIAnalyzer].Status)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, "AMBER-2", active.AlertID)

	list := tr.List()
	require.Len(t, list, 2)
	assert.Equal(t, "AMBER-1", list[0].AlertID)
	assert.Equal(t, "AMBER-2", list[1].AlertID)
}

func TestTrackerResolve(t *testing.T) {
	tr := newClockedTracker()
	tr.Create("AMBER-1")
	tr.Apply(event(model.EventAlertResolved, model.AgentAlertReceiver, ""))

	inst, ok := tr.Active()
	require.True(t, ok)
	require.True(t, inst.Resolved())
	for _, name := range model.AgentNames {
		assert.Equal(t, model.StatusSuccess, inst.Agents[name].Status, name)
	}
}

func TestTrackerIgnoresOtherAlertResolution(t *testing.T) {
	tr := newClockedTracker()
	tr.Create("AMBER-1")
	tr.Create("AMBER-2")

	late, err := model.NewEvent(model.EventAlertResolved, model.AgentAlertReceiver, "",
		model.AlertResolved{AlertID: "AMBER-1"})
	require.NoError(t, err)
	tr.Apply(late)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.False(t, active.Resolved())
	assert.Empty(t, active.Events)

	own, err := model.NewEvent(model.EventAlertResolved, model.AgentAlertReceiver, "",
		model.AlertResolved{AlertID: "AMBER-2"})
	require.NoError(t, err)
	tr.Apply(own)

	active, ok = tr.Active()
	require.True(t, ok)
	assert.True(t, active.Resolved())
}

func TestTrackerCopiesAreDetached(t *testing.T) {
	tr := newClockedTracker()
	tr.Create("AMBER-1")

	inst, _ := tr.Active()
	inst.Agents[model.AgentCamera] = model.AgentStatus{Name: model.AgentCamera, Status: model.StatusFailed}

	again, _ := tr.Active()
	assert.Equal(t, model.StatusIdle, again.Agents[model.AgentCamera].Status)
}

func TestTrackerReset(t *testing.T) {
	tr := newClockedTracker()
	tr.Create("AMBER-1")
	tr.Reset()

	_, ok := tr.Active()
	assert.False(t, ok)
	_, err := tr.Get("AMBER-1")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestTrackerFollowsMesh(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	logger := zaptest.NewLogger(t)
	m, err := mesh.New(js, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewTracker(m, logger)
	require.NoError(t, tr.Start(ctx))
	tr.Create("AMBER-MESH")

	ev, err := model.NewEvent(model.EventBroadcastInitiated, model.AgentBroadcast, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.PublishEvent(ctx, ev))

	require.Eventually(t, func() bool {
		inst, ok := tr.Active()
		return ok && inst.Agents[model.AgentBroadcast].Status == model.StatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
}

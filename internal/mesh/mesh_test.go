package mesh_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/mesh"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/testutil"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "amber.event.alert_reported", mesh.EventSubject(model.EventAlertReported))
	assert.Equal(t, "amber.event.a_b_c_d", mesh.EventSubject("a.b*c>d"))
	assert.Equal(t, "amber.event.two_words", mesh.EventSubject("two words"))
	assert.Equal(t, "amber.cmd.fail", mesh.CommandSubject(model.CommandFail))
}

func TestNewReusesStream(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	logger := zaptest.NewLogger(t)
	_, err := mesh.New(js, logger)
	require.NoError(t, err)

	_, err = mesh.New(js, logger)
	require.NoError(t, err)

	info, err := js.StreamInfo(mesh.StreamName)
	require.NoError(t, err)
	assert.Equal(t, []string{"amber.>"}, info.Config.Subjects)
}

func TestEventRoundTrip(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	m, err := mesh.New(js, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testutil.NewEventRecorder(10)
	require.NoError(t, m.SubscribeEvents(ctx, rec.Record))

	ev, err := model.NewEvent(model.EventAlertReported, model.AgentAlertReceiver, model.AgentAIAnalyzer,
		map[string]string{"alert_id": "AMBER-1", "child_name": "Emma"})
	require.NoError(t, err)
	require.NoError(t, m.PublishEvent(ctx, ev))

	seen := rec.WaitFor(t, model.EventAlertReported, 5*time.Second)
	require.Len(t, seen, 1)
	got := seen[0]
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.From, got.From)
	assert.Equal(t, ev.To, got.To)
	assert.Equal(t, ev.Color, got.Color)
	assert.JSONEq(t, string(ev.Data), string(got.Data))
}

func TestPublishEventRequiresType(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	m, err := mesh.New(js, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = m.PublishEvent(context.Background(), model.Event{From: model.AgentCamera})
	assert.ErrorIs(t, err, mesh.ErrEmptyType)
}

func TestMalformedEventIsDropped(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	m, err := mesh.New(js, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testutil.NewEventRecorder(10)
	require.NoError(t, m.SubscribeEvents(ctx, rec.Record))

	_, err = js.Publish(mesh.EventSubject("garbage"), []byte("{not json"))
	require.NoError(t, err)

	ev, err := model.NewEvent(model.EventCameraScanning, model.AgentCamera, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.PublishEvent(ctx, ev))

	seen := rec.WaitFor(t, model.EventCameraScanning, 5*time.Second)
	require.Len(t, seen, 1)
}

func TestCommandValidation(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	m, err := mesh.New(js, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()

	err = m.PublishCommand(ctx, model.Command{Action: "explode"})
	assert.ErrorIs(t, err, mesh.ErrUnknownAction)

	err = m.PublishCommand(ctx, model.Command{Action: model.CommandFail, Agent: "Weather Agent"})
	assert.ErrorIs(t, err, mesh.ErrUnknownAgent)

	err = m.PublishCommand(ctx, model.Command{Action: model.CommandFail, Agent: model.AgentCamera})
	assert.NoError(t, err)
}

func TestCommandRoundTrip(t *testing.T) {
	js, cleanup := testutil.SetupJetStream(t)
	defer cleanup()

	m, err := mesh.New(js, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan model.Command, 1)
	require.NoError(t, m.SubscribeCommands(ctx, "test", func(cmd model.Command) {
		got <- cmd
	}))

	require.NoError(t, m.PublishCommand(ctx, model.Command{
		Action:   model.CommandTrigger,
		AlertID:  "AMBER-42",
		IssuedAt: time.Now(),
	}))

	select {
	case cmd := <-got:
		assert.Equal(t, model.CommandTrigger, cmd.Action)
		assert.Equal(t, "AMBER-42", cmd.AlertID)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for command")
	}
}

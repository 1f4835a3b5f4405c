package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

type fakeBus struct {
	commands []model.Command
	err      error
}

func (b *fakeBus) PublishCommand(_ context.Context, cmd model.Command) error {
	if b.err != nil {
		return b.err
	}
	b.commands = append(b.commands, cmd)
	return nil
}

type fakeTracker struct {
	created []string
	resets  int
}

func (t *fakeTracker) Create(alertID string) *model.AlertInstance {
	t.created = append(t.created, alertID)
	return nil
}

func (t *fakeTracker) Reset() { t.resets++ }

type fakeHistory struct {
	cleared int
	err     error
}

func (h *fakeHistory) DeleteAll(context.Context) error {
	h.cleared++
	return h.err
}

func TestTriggerAlert(t *testing.T) {
	bus, tracker := &fakeBus{}, &fakeTracker{}
	s := NewAlertService(bus, tracker, nil, zap.NewNop())

	id, err := s.TriggerAlert(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, model.AlertIDPrefix))
	assert.Equal(t, []string{id}, tracker.created)
	require.Len(t, bus.commands, 1)
	assert.Equal(t, model.CommandTrigger, bus.commands[0].Action)
	assert.Equal(t, id, bus.commands[0].AlertID)

	other, err := s.TriggerAlert(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestTriggerAlertPublishError(t *testing.T) {
	s := NewAlertService(&fakeBus{err: errors.New("nats down")}, &fakeTracker{}, nil, zap.NewNop())
	_, err := s.TriggerAlert(context.Background())
	assert.ErrorContains(t, err, "nats down")
}

func TestSimulateFailure(t *testing.T) {
	bus := &fakeBus{}
	s := NewAlertService(bus, &fakeTracker{}, nil, zap.NewNop())

	err := s.SimulateFailure(context.Background(), "Weather Agent")
	assert.ErrorIs(t, err, ErrUnknownAgent)
	assert.Empty(t, bus.commands)

	require.NoError(t, s.SimulateFailure(context.Background(), model.AgentCamera))
	require.Len(t, bus.commands, 1)
	assert.Equal(t, model.CommandFail, bus.commands[0].Action)
	assert.Equal(t, model.AgentCamera, bus.commands[0].Agent)
}

func TestReset(t *testing.T) {
	bus, tracker, history := &fakeBus{}, &fakeTracker{}, &fakeHistory{}
	s := NewAlertService(bus, tracker, history, zap.NewNop())

	require.NoError(t, s.Reset(context.Background()))
	assert.Equal(t, 1, tracker.resets)
	assert.Equal(t, 1, history.cleared)
	require.Len(t, bus.commands, 1)
	assert.Equal(t, model.CommandReset, bus.commands[0].Action)

	history.err = errors.New("disk full")
	err := s.Reset(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

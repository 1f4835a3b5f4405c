package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

type countingTrigger struct {
	calls atomic.Int32
}

func (c *countingTrigger) TriggerAlert(context.Context) (string, error) {
	c.calls.Add(1)
	return model.NewAlertID(), nil
}

type countingPruner struct {
	calls  atomic.Int32
	before atomic.Value
}

func (p *countingPruner) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	p.calls.Add(1)
	p.before.Store(before)
	return 0, nil
}

func TestCronScheduler(t *testing.T) {
	trigger := &countingTrigger{}
	s := NewCronScheduler(trigger, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	t.Run("Add Schedule", func(t *testing.T) {
		schedule := &model.Schedule{Name: "every-second", Expression: "* * * * * *"}
		require.NoError(t, s.AddSchedule(schedule))
		assert.NotEmpty(t, schedule.ID)
		require.NotNil(t, schedule.NextRunTime)
		assert.True(t, schedule.NextRunTime.After(schedule.CreatedAt))

		require.Eventually(t, func() bool {
			return trigger.calls.Load() >= 1
		}, 3*time.Second, 50*time.Millisecond)

		got, err := s.GetSchedule(schedule.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.RunCount, 1)
		assert.NotNil(t, got.LastRunTime)
	})

	t.Run("Invalid Expression", func(t *testing.T) {
		err := s.AddSchedule(&model.Schedule{Name: "bad", Expression: "*/5 * * * *"})
		assert.ErrorIs(t, err, ErrInvalidExpression)

		err = s.AddSchedule(&model.Schedule{Name: "worse", Expression: "not cron"})
		assert.ErrorIs(t, err, ErrInvalidExpression)
	})

	t.Run("Duplicate ID", func(t *testing.T) {
		require.NoError(t, s.AddSchedule(&model.Schedule{ID: "fixed", Name: "hourly", Expression: "0 0 * * * *"}))
		err := s.AddSchedule(&model.Schedule{ID: "fixed", Name: "hourly", Expression: "0 0 * * * *"})
		assert.ErrorIs(t, err, ErrDuplicateSchedule)
	})

	t.Run("List And Remove", func(t *testing.T) {
		list := s.ListSchedules()
		require.Len(t, list, 2)
		assert.Equal(t, "every-second", list[0].Name)
		assert.Equal(t, "hourly", list[1].Name)

		require.NoError(t, s.RemoveSchedule(list[0].ID))
		_, err := s.GetSchedule(list[0].ID)
		assert.ErrorIs(t, err, ErrScheduleNotFound)
		assert.ErrorIs(t, s.RemoveSchedule(list[0].ID), ErrScheduleNotFound)

		// removed schedules stop firing
		time.Sleep(1200 * time.Millisecond)
		calls := trigger.calls.Load()
		time.Sleep(1200 * time.Millisecond)
		assert.Equal(t, calls, trigger.calls.Load())
	})
}

func TestCronSchedulerRetention(t *testing.T) {
	s := NewCronScheduler(&countingTrigger{}, zaptest.NewLogger(t))
	pruner := &countingPruner{}

	assert.ErrorIs(t, s.AddRetention("nope", time.Hour, pruner), ErrInvalidExpression)
	require.NoError(t, s.AddRetention("* * * * * *", time.Hour, pruner))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return pruner.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	before := pruner.before.Load().(time.Time)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), before, 5*time.Second)
}

package scheduler

import (
	"context"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// Scheduler defines the interface for alert schedulers
type Scheduler interface {
	// Start starts the scheduler
	Start(ctx context.Context) error

	// Stop stops the scheduler
	Stop()

	// AddSchedule adds a new cron schedule
	AddSchedule(schedule *model.Schedule) error

	// RemoveSchedule removes a cron schedule
	RemoveSchedule(id string) error

	// GetSchedule gets a cron schedule by ID
	GetSchedule(id string) (*model.Schedule, error)

	// ListSchedules lists all cron schedules
	ListSchedules() []*model.Schedule
}

var _ Scheduler = (*CronScheduler)(nil)

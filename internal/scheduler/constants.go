package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// cronFields accepts 6-field expressions with a leading seconds field
	cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow

	jobTimeout = 30 * time.Second
)

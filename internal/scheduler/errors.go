package scheduler

import "errors"

var (
	// ErrScheduleNotFound is returned when a schedule is not found
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrInvalidExpression is returned for a cron expression that does not parse
	ErrInvalidExpression = errors.New("invalid cron expression")

	// ErrDuplicateSchedule is returned when a schedule id is already in use
	ErrDuplicateSchedule = errors.New("duplicate schedule")
)

package mesh

import "time"

const (
	StreamName = "AMBER"

	streamSubjects       = "amber.>"
	eventSubjectPrefix   = "amber.event."
	commandSubjectPrefix = "amber.cmd."

	// EventSubjects matches every agent event
	EventSubjects = eventSubjectPrefix + "*"
	// CommandSubjects matches every operator command
	CommandSubjects = commandSubjectPrefix + "*"
	// MetricsSubject carries metrics snapshots
	MetricsSubject = "amber.metrics.system"

	streamMaxAge     = 24 * time.Hour // Keep messages for 24 hours
	streamMaxMsgs    = -1             // Unlimited messages
	operationTimeout = 30 * time.Second
)

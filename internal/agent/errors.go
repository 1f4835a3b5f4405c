package agent

import "errors"

var (
	ErrAlreadyStarted = errors.New("agent runner already started")
	ErrNoHandler      = errors.New("no handler registered for agent")
	ErrNoAlert        = errors.New("no alert id in context")
)

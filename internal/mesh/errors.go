package mesh

import "errors"

var (
	// ErrEmptyType is returned when publishing an event without a type
	ErrEmptyType = errors.New("event type is empty")

	// ErrUnknownAction is returned when publishing an unsupported command
	ErrUnknownAction = errors.New("unknown command action")

	// ErrUnknownAgent is returned when a command targets an agent that does not exist
	ErrUnknownAgent = errors.New("unknown agent")
)

package stream

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("event source already started")

	// ErrClosed is returned when starting a source that was closed
	ErrClosed = errors.New("event source closed")

	// ErrStreamEnded is returned when the server closes the stream
	ErrStreamEnded = errors.New("event stream ended")
)

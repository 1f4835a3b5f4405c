package service

import "errors"

// ErrUnknownAgent is returned when an action names an agent outside the mesh
var ErrUnknownAgent = errors.New("unknown agent")

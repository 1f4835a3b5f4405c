package model

import "time"

// CommandAction is an operator action sent to the agents over the mesh
type CommandAction string

const (
	CommandTrigger CommandAction = "trigger"
	CommandFail    CommandAction = "fail"
	CommandReset   CommandAction = "reset"
)

// Valid reports whether the action is one the agents understand
func (a CommandAction) Valid() bool {
	switch a {
	case CommandTrigger, CommandFail, CommandReset:
		return true
	}
	return false
}

// Command is published by the API server and consumed by the agent runtime
type Command struct {
	Action   CommandAction `json:"action"`
	AlertID  string        `json:"alert_id,omitempty"`
	Agent    string        `json:"agent,omitempty"`
	IssuedAt time.Time     `json:"issued_at"`
}

package model

import "time"

// Status represents the state of an agent as seen by the dashboard
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
	StatusFailed     Status = "failed"
)

// Label returns the human readable status name
func (s Status) Label() string {
	switch s {
	case StatusProcessing:
		return "Processing"
	case StatusSuccess:
		return "Success"
	case StatusError:
		return "Error"
	case StatusFailed:
		return "Failed"
	default:
		return "Idle"
	}
}

// Color returns the display color for the status
func (s Status) Color() string {
	switch s {
	case StatusProcessing:
		return "#ffa500"
	case StatusSuccess:
		return "#00ff88"
	case StatusError:
		return "#ff4444"
	case StatusFailed:
		return "#cc0000"
	default:
		return "#666666"
	}
}

// Known agent names, in display order
const (
	AgentAlertReceiver   = "Alert Receiver"
	AgentAIAnalyzer      = "AI Analyzer"
	AgentBroadcast       = "Broadcast Agent"
	AgentCamera          = "Camera Agent"
	AgentTipProcessor    = "Tip Processor"
	AgentGeoIntelligence = "Geo Intelligence"
)

// AgentNames lists the six agents of the pipeline. The set is fixed.
var AgentNames = []string{
	AgentAlertReceiver,
	AgentAIAnalyzer,
	AgentBroadcast,
	AgentCamera,
	AgentTipProcessor,
	AgentGeoIntelligence,
}

var agentColors = map[string]string{
	AgentAlertReceiver:   "#ff4444",
	AgentAIAnalyzer:      "#a371f7",
	AgentBroadcast:       "#00aaff",
	AgentCamera:          "#ffa500",
	AgentTipProcessor:    "#3fb950",
	AgentGeoIntelligence: "#f778ba",
}

// IsKnownAgent reports whether name is one of AgentNames
func IsKnownAgent(name string) bool {
	_, ok := agentColors[name]
	return ok
}

// AgentColor returns the color used for events emitted by an agent
func AgentColor(name string) string {
	if c, ok := agentColors[name]; ok {
		return c
	}
	return "#666666"
}

// AgentStatus is the dashboard view of a single agent
type AgentStatus struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	LastEvent  string    `json:"lastEvent,omitempty"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// NewAgentStatuses returns all known agents in the idle state
func NewAgentStatuses() map[string]AgentStatus {
	agents := make(map[string]AgentStatus, len(AgentNames))
	for _, name := range AgentNames {
		agents[name] = AgentStatus{Name: name, Status: StatusIdle}
	}
	return agents
}

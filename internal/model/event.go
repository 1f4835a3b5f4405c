package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types produced by the simulated agents
const (
	EventAlertReported      = "alert_reported"
	EventAlertAssessed      = "alert_assessed"
	EventBroadcastInitiated = "broadcast_initiated"
	EventGeofenceCreated    = "geofence_created"
	EventCameraScanning     = "camera_scanning"
	EventTipReceived        = "tip_received"
	EventTipProcessed       = "tip_processed"
	EventSuspectDetected    = "suspect_detected"
	EventCameraScanComplete = "camera_scan_complete"
	EventAlertResolved      = "alert_resolved"
	EventAgentFailed        = "agent_failed"
	EventAgentRecovered     = "agent_recovered"
)

// Event is one agent-to-agent interaction or status change as it travels on
// the wire. Data is kept raw so unknown payloads survive a round trip.
type Event struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Type      string          `json:"type"`
	From      string          `json:"from"`
	To        string          `json:"to,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Color     string          `json:"color"`
}

// NewEvent builds an event emitted by an agent, colored after its sender.
// A nil data value produces an event without payload.
func NewEvent(eventType, from, to string, data interface{}) (Event, error) {
	ev := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Type:      eventType,
		From:      from,
		To:        to,
		Color:     AgentColor(from),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// Time returns the event timestamp
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// HasData reports whether the event carries a non-null payload
func (e Event) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// Payload decodes Data into the typed variant matching Type
func (e Event) Payload() EventData {
	return DecodeData(e.Type, e.Data)
}

// AlertID returns the alert_id carried in the payload, if any
func (e Event) AlertID() string {
	if !e.HasData() {
		return ""
	}
	var v struct {
		AlertID Text `json:"alert_id"`
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return ""
	}
	return v.AlertID.String()
}

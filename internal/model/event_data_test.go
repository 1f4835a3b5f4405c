package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventAlertReported, AgentAlertReceiver, AgentAIAnalyzer, AlertReported{AlertID: "AMBER-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.NotZero(t, ev.Timestamp)
	assert.Equal(t, AgentColor(AgentAlertReceiver), ev.Color)
	assert.JSONEq(t, `{"alert_id":"AMBER-1"}`, string(ev.Data))

	bare, err := NewEvent("heartbeat", "Unknown Agent", "", nil)
	require.NoError(t, err)
	assert.False(t, bare.HasData())
	assert.Equal(t, "#666666", bare.Color)
}

func TestEventAlertID(t *testing.T) {
	ev, err := NewEvent(EventAlertResolved, AgentAlertReceiver, "", AlertResolved{AlertID: "AMBER-7"})
	require.NoError(t, err)
	assert.Equal(t, "AMBER-7", ev.AlertID())

	assert.Empty(t, Event{Type: EventTipReceived, Data: json.RawMessage(`{"tip_id":"T-1"}`)}.AlertID())
	assert.Empty(t, Event{Type: "custom", Data: json.RawMessage(`"text"`)}.AlertID())
	assert.Empty(t, Event{Type: EventAlertResolved}.AlertID())
}

func TestEventWireFormat(t *testing.T) {
	raw := `{"id":"e1","timestamp":1700000000000,"type":"tip_received","from":"Tip Processor","data":{"tip_id":"T-9","confidence":87},"color":"#3fb950"}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.Equal(t, "Tip Processor", ev.From)
	assert.Empty(t, ev.To)
	assert.Equal(t, int64(1700000000000), ev.Time().UnixMilli())

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		data      string
		want      string
	}{
		{"no data", EventAlertReported, ``, ""},
		{"null data", EventAlertReported, `null`, ""},
		{"alert reported", EventAlertReported, `{"alert_id":"AMBER-CA-2026-001"}`, "Alert ID: AMBER-CA-2026-001"},
		{"alert reported original id", EventAlertReported, `{"original_alert_id":"X-1"}`, "Alert ID: X-1"},
		{"alert reported unknown id", EventAlertReported, `{}`, "Alert ID: Unknown"},
		{"assessment", EventAlertAssessed, `{"priority":"CRITICAL","urgency":"immediate","child_name":"Emma"}`, "Priority: CRITICAL • Urgency: immediate • Child: Emma"},
		{"assessment empty", EventAlertAssessed, `{}`, "Assessment completed"},
		{"broadcast list", EventBroadcastInitiated, `{"channels":["EAS","WEA"],"child_name":"Emma"}`, "Broadcasting to: EAS, WEA for Emma"},
		{"broadcast scalar", EventBroadcastInitiated, `{"channels":"radio"}`, "Broadcasting to: radio"},
		{"broadcast missing", EventBroadcastInitiated, `{}`, "Broadcasting to: Unknown channels"},
		{"geofence center", EventGeofenceCreated, `{"zones":["Z1","Z2"],"center_location":"Sacramento"}`, "Created zones: Z1, Z2 around Sacramento"},
		{"geofence coordinates", EventGeofenceCreated, `{"zones":"Z1","coordinates":{"lat":38.58,"lon":-121.49}}`, "Created zones: Z1 around 38.58, -121.49"},
		{"geofence bare", EventGeofenceCreated, `{}`, "Created zones: Unknown zones"},
		{"camera scanning", EventCameraScanning, `{"status":"active","cameras":42,"target_vehicle":"Silver Honda","search_area":"I-5"}`, "Active with 42 cameras for Silver Honda in I-5"},
		{"camera scanning default", EventCameraScanning, `{}`, "Scanning"},
		{"tip received", EventTipReceived, `{"tip_id":"T-1","confidence":"high","vehicle_match":"yes"}`, "Tip ID: T-1 • Confidence: high • Vehicle: yes"},
		{"tip received empty", EventTipReceived, `{}`, "Tip received"},
		{"tip processed zero confidence", EventTipProcessed, `{"tip_id":"T-1","confidence":0}`, "Tip ID: T-1 • Confidence: 0%"},
		{"tip processed empty", EventTipProcessed, `{}`, "Tip processed"},
		{"tip processed null confidence", EventTipProcessed, `{"tip_id":"T-1","confidence":null}`, "Tip ID: T-1 • Confidence: null%"},
		{"suspect null confidence", EventSuspectDetected, `{"zone":"Z2","confidence":null}`, "Zone: Z2 • Confidence: null%"},
		{"scan complete", EventCameraScanComplete, `{"zones_scanned":3,"cameras_active":40,"detection":false}`, "Zones: 3 • Cameras: 40 • Detection: No"},
		{"scan complete empty", EventCameraScanComplete, `{}`, "Scan complete"},
		{"resolved", EventAlertResolved, `{"resolution_type":"child_recovered_safe","suspect_status":"in custody","total_duration":"4h 12m"}`, "Resolution: Child Recovered Safe • Suspect: in custody • Duration: 4h 12m"},
		{"resolved long child status", EventAlertResolved, `{"child_status":"Found safe at a rest stop near Redding and reunited with family later"}`, "Child: Found safe at a rest stop near Redding and reunited with fam..."},
		{"resolved empty", EventAlertResolved, `{}`, "Alert resolved"},
		{"agent failed", EventAgentFailed, `{"reason":"Simulated failure","agent":"Camera Agent"}`, "Simulated failure • Agent: Camera Agent"},
		{"agent failed empty", EventAgentFailed, `{}`, "Agent failure detected"},
		{"agent recovered", EventAgentRecovered, `{"agent":"Camera Agent","recovery_time":"5s"}`, "Agent: Camera Agent • Recovery time: 5s"},
		{"unknown common fields", "custom", `{"status":"ok","message":"hello","error":"boom"}`, "Status: ok • hello • Error: boom"},
		{"unknown first three", "custom", `{"b":1,"a":"this string is definitely longer than thirty","c":true,"d":4}`, "b: 1 • a: this string is definitely long... • c: true"},
		{"unknown scalar", "custom", `"just text"`, ""},
		{"known type wrong shape", EventBroadcastInitiated, `{"channels":{"x":1},"message":"fallback"}`, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Type: tt.eventType}
			if tt.data != "" {
				ev.Data = json.RawMessage(tt.data)
			}
			assert.Equal(t, tt.want, Summary(ev))
		})
	}
}

func TestDecodeDataVariants(t *testing.T) {
	data := DecodeData(EventAgentFailed, json.RawMessage(`{"agent":"AI Analyzer"}`))
	failed, ok := data.(AgentFailed)
	require.True(t, ok)
	assert.Equal(t, Text("AI Analyzer"), failed.Agent)

	data = DecodeData("mystery", json.RawMessage(`{"k":"v"}`))
	unknown, ok := data.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "mystery", unknown.EventType())
	v, ok := unknown.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

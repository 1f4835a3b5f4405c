package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const summarySeparator = " • "

// EventData is the typed payload of an event. Each variant knows how to
// summarize itself for the timeline.
type EventData interface {
	EventType() string
	Summary() string
}

// Text is a JSON scalar carried as text. Numbers and booleans keep their
// literal form so "87" and 87 render the same way.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	*t = Text(strings.TrimSpace(string(b)))
	return nil
}

// Present follows the loose truthiness producers rely on: empty, zero and
// false values count as absent.
func (t Text) Present() bool {
	return t != "" && t != "0" && t != "false"
}

func (t Text) String() string { return string(t) }

// List accepts either a JSON array or a single scalar
type List []string

// UnmarshalJSON implements json.Unmarshaler
func (l *List) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return fmt.Errorf("list: unexpected object")
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Text
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		out := make(List, 0, len(items))
		for _, item := range items {
			out = append(out, string(item))
		}
		*l = out
		return nil
	}
	var single Text
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*l = List{string(single)}
	return nil
}

func (l List) join(fallback string) string {
	if l == nil {
		return fallback
	}
	return strings.Join(l, ", ")
}

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat Text `json:"lat,omitempty"`
	Lon Text `json:"lon,omitempty"`
}

type parts []string

func (p *parts) add(cond bool, format string, args ...interface{}) {
	if cond {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func (p parts) or(fallback string) string {
	if len(p) == 0 {
		return fallback
	}
	return strings.Join(p, summarySeparator)
}

// AlertReported is emitted by the Alert Receiver when an alert enters the mesh
type AlertReported struct {
	AlertID         Text   `json:"alert_id,omitempty"`
	OriginalAlertID Text   `json:"original_alert_id,omitempty"`
	ChildName       Text   `json:"child_name,omitempty"`
	Message         string `json:"message,omitempty"`
}

func (AlertReported) EventType() string { return EventAlertReported }

func (d AlertReported) Summary() string {
	id := "Unknown"
	if d.AlertID.Present() {
		id = d.AlertID.String()
	} else if d.OriginalAlertID.Present() {
		id = d.OriginalAlertID.String()
	}
	return "Alert ID: " + id
}

// AlertAssessed is the AI Analyzer's assessment of an alert
type AlertAssessed struct {
	AlertID   Text `json:"alert_id,omitempty"`
	Priority  Text `json:"priority,omitempty"`
	Urgency   Text `json:"urgency,omitempty"`
	ChildName Text `json:"child_name,omitempty"`
	Location  Text `json:"location,omitempty"`
	Vehicle   Text `json:"vehicle,omitempty"`
}

func (AlertAssessed) EventType() string { return EventAlertAssessed }

func (d AlertAssessed) Summary() string {
	var p parts
	p.add(d.Priority.Present(), "Priority: %s", d.Priority)
	p.add(d.Urgency.Present(), "Urgency: %s", d.Urgency)
	p.add(d.ChildName.Present(), "Child: %s", d.ChildName)
	p.add(d.Location.Present(), "Location: %s", d.Location)
	p.add(d.Vehicle.Present(), "Vehicle: %s", d.Vehicle)
	return p.or("Assessment completed")
}

// BroadcastInitiated lists the channels an alert is pushed to
type BroadcastInitiated struct {
	Channels  List `json:"channels,omitempty"`
	ChildName Text `json:"child_name,omitempty"`
}

func (BroadcastInitiated) EventType() string { return EventBroadcastInitiated }

func (d BroadcastInitiated) Summary() string {
	child := ""
	if d.ChildName.Present() {
		child = " for " + d.ChildName.String()
	}
	return "Broadcasting to: " + d.Channels.join("Unknown channels") + child
}

// GeofenceCreated describes the search zones set up by Geo Intelligence
type GeofenceCreated struct {
	Zones          List         `json:"zones,omitempty"`
	CenterLocation Text         `json:"center_location,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
}

func (GeofenceCreated) EventType() string { return EventGeofenceCreated }

func (d GeofenceCreated) Summary() string {
	center := ""
	switch {
	case d.CenterLocation.Present():
		center = " around " + d.CenterLocation.String()
	case d.Coordinates != nil && d.Coordinates.Lat.Present():
		center = fmt.Sprintf(" around %s, %s", d.Coordinates.Lat, d.Coordinates.Lon)
	}
	return "Created zones: " + d.Zones.join("Unknown zones") + center
}

// CameraScanning reports an ongoing camera sweep
type CameraScanning struct {
	Status        Text `json:"status,omitempty"`
	Cameras       Text `json:"cameras,omitempty"`
	TargetVehicle Text `json:"target_vehicle,omitempty"`
	SearchArea    Text `json:"search_area,omitempty"`
}

func (CameraScanning) EventType() string { return EventCameraScanning }

func (d CameraScanning) Summary() string {
	status := "scanning"
	if d.Status.Present() {
		status = d.Status.String()
	}
	var b strings.Builder
	b.WriteString(capitalize(status))
	if d.Cameras.Present() {
		fmt.Fprintf(&b, " with %s cameras", d.Cameras)
	}
	if d.TargetVehicle.Present() {
		fmt.Fprintf(&b, " for %s", d.TargetVehicle)
	}
	if d.SearchArea.Present() {
		fmt.Fprintf(&b, " in %s", d.SearchArea)
	}
	return b.String()
}

// TipReceived is a public tip entering the Tip Processor
type TipReceived struct {
	TipID        Text `json:"tip_id,omitempty"`
	Confidence   Text `json:"confidence,omitempty"`
	ChildName    Text `json:"child_name,omitempty"`
	Location     Text `json:"location,omitempty"`
	VehicleMatch Text `json:"vehicle_match,omitempty"`
}

func (TipReceived) EventType() string { return EventTipReceived }

func (d TipReceived) Summary() string {
	var p parts
	p.add(d.TipID.Present(), "Tip ID: %s", d.TipID)
	p.add(d.Confidence.Present(), "Confidence: %s", d.Confidence)
	p.add(d.ChildName.Present(), "Child: %s", d.ChildName)
	p.add(d.Location.Present(), "Location: %s", d.Location)
	p.add(d.VehicleMatch.Present(), "Vehicle: %s", d.VehicleMatch)
	return p.or("Tip received")
}

// TipProcessed is the scored result of a tip
type TipProcessed struct {
	TipID      Text  `json:"tip_id,omitempty"`
	Confidence *Text `json:"confidence,omitempty"`
}

func (TipProcessed) EventType() string { return EventTipProcessed }

// UnmarshalJSON implements json.Unmarshaler. An explicit null confidence
// still renders.
func (d *TipProcessed) UnmarshalJSON(b []byte) error {
	type plain TipProcessed
	if err := json.Unmarshal(b, (*plain)(d)); err != nil {
		return err
	}
	d.Confidence = keepNull(b, "confidence", d.Confidence)
	return nil
}

func (d TipProcessed) Summary() string {
	var p parts
	p.add(d.TipID.Present(), "Tip ID: %s", d.TipID)
	p.add(d.Confidence != nil, "Confidence: %s%%", textOf(d.Confidence))
	return p.or("Tip processed")
}

// SuspectDetected is a camera hit inside a geofence zone
type SuspectDetected struct {
	Zone       Text  `json:"zone,omitempty"`
	Confidence *Text `json:"confidence,omitempty"`
	Timestamp  Text  `json:"timestamp,omitempty"`
}

func (SuspectDetected) EventType() string { return EventSuspectDetected }

// UnmarshalJSON implements json.Unmarshaler
func (d *SuspectDetected) UnmarshalJSON(b []byte) error {
	type plain SuspectDetected
	if err := json.Unmarshal(b, (*plain)(d)); err != nil {
		return err
	}
	d.Confidence = keepNull(b, "confidence", d.Confidence)
	return nil
}

func (d SuspectDetected) Summary() string {
	var p parts
	p.add(d.Zone.Present(), "Zone: %s", d.Zone)
	p.add(d.Confidence != nil, "Confidence: %s%%", textOf(d.Confidence))
	if d.Timestamp.Present() {
		if t, ok := parseTimestamp(d.Timestamp.String()); ok {
			p.add(true, "Time: %s", t.Local().Format("15:04:05"))
		} else {
			p.add(true, "Time: Invalid Date")
		}
	}
	return p.or("Suspect detected")
}

// CameraScanComplete closes a camera sweep
type CameraScanComplete struct {
	ZonesScanned  Text  `json:"zones_scanned,omitempty"`
	CamerasActive Text  `json:"cameras_active,omitempty"`
	Detection     *bool `json:"detection,omitempty"`
}

func (CameraScanComplete) EventType() string { return EventCameraScanComplete }

func (d CameraScanComplete) Summary() string {
	var p parts
	p.add(d.ZonesScanned.Present(), "Zones: %s", d.ZonesScanned)
	p.add(d.CamerasActive.Present(), "Cameras: %s", d.CamerasActive)
	if d.Detection != nil {
		answer := "No"
		if *d.Detection {
			answer = "Yes"
		}
		p.add(true, "Detection: %s", answer)
	}
	return p.or("Scan complete")
}

// AlertResolved closes an alert
type AlertResolved struct {
	AlertID        Text `json:"alert_id,omitempty"`
	ResolutionType Text `json:"resolution_type,omitempty"`
	ChildStatus    Text `json:"child_status,omitempty"`
	SuspectStatus  Text `json:"suspect_status,omitempty"`
	TotalDuration  Text `json:"total_duration,omitempty"`
	Location       Text `json:"location,omitempty"`
}

func (AlertResolved) EventType() string { return EventAlertResolved }

func (d AlertResolved) Summary() string {
	var p parts
	p.add(d.ResolutionType.Present(), "Resolution: %s", titleWords(strings.ReplaceAll(d.ResolutionType.String(), "_", " ")))
	p.add(d.ChildStatus.Present(), "Child: %s", truncate(d.ChildStatus.String(), 60))
	p.add(d.SuspectStatus.Present(), "Suspect: %s", d.SuspectStatus)
	p.add(d.TotalDuration.Present(), "Duration: %s", d.TotalDuration)
	p.add(d.Location.Present(), "Location: %s", d.Location)
	return p.or("Alert resolved")
}

// AgentFailed is published by an agent that went down
type AgentFailed struct {
	Reason Text `json:"reason,omitempty"`
	Agent  Text `json:"agent,omitempty"`
}

func (AgentFailed) EventType() string { return EventAgentFailed }

func (d AgentFailed) Summary() string {
	var p parts
	p.add(d.Reason.Present(), "%s", d.Reason)
	p.add(d.Agent.Present(), "Agent: %s", d.Agent)
	return p.or("Agent failure detected")
}

// AgentRecovered is published by an agent coming back after a failure
type AgentRecovered struct {
	Agent        Text `json:"agent,omitempty"`
	RecoveryTime Text `json:"recovery_time,omitempty"`
}

func (AgentRecovered) EventType() string { return EventAgentRecovered }

func (d AgentRecovered) Summary() string {
	var p parts
	p.add(d.Agent.Present(), "Agent: %s", d.Agent)
	p.add(d.RecoveryTime.Present(), "Recovery time: %s", d.RecoveryTime)
	return p.or("Agent recovered")
}

// Field is one key of an untyped payload, in document order
type Field struct {
	Key   string
	Value interface{}
}

// Unknown holds payloads of types this build does not know about
type Unknown struct {
	Type   string
	Fields []Field
	// Object is false when the payload was not a JSON object
	Object bool
}

func (d Unknown) EventType() string { return d.Type }

// Get returns the value for key, if present
func (d Unknown) Get(key string) (interface{}, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (d Unknown) Summary() string {
	var p parts
	for _, key := range []string{"status", "message", "error"} {
		v, ok := d.Get(key)
		if !ok || !truthy(v) {
			continue
		}
		switch key {
		case "status":
			p.add(true, "Status: %s", valueString(v))
		case "message":
			p.add(true, "%s", valueString(v))
		case "error":
			p.add(true, "Error: %s", valueString(v))
		}
	}
	if len(p) == 0 && d.Object {
		n := len(d.Fields)
		if n > 3 {
			n = 3
		}
		for _, f := range d.Fields[:n] {
			val := valueString(f.Value)
			if s, ok := f.Value.(string); ok {
				val = truncate(s, 30)
			}
			p = append(p, f.Key+": "+val)
		}
	}
	return p.or("")
}

// DecodeData maps a raw payload onto the variant for eventType. Payloads that
// do not fit the expected shape fall back to Unknown.
func DecodeData(eventType string, raw json.RawMessage) EventData {
	var target EventData
	switch eventType {
	case EventAlertReported:
		target = &AlertReported{}
	case EventAlertAssessed:
		target = &AlertAssessed{}
	case EventBroadcastInitiated:
		target = &BroadcastInitiated{}
	case EventGeofenceCreated:
		target = &GeofenceCreated{}
	case EventCameraScanning:
		target = &CameraScanning{}
	case EventTipReceived:
		target = &TipReceived{}
	case EventTipProcessed:
		target = &TipProcessed{}
	case EventSuspectDetected:
		target = &SuspectDetected{}
	case EventCameraScanComplete:
		target = &CameraScanComplete{}
	case EventAlertResolved:
		target = &AlertResolved{}
	case EventAgentFailed:
		target = &AgentFailed{}
	case EventAgentRecovered:
		target = &AgentRecovered{}
	}
	if target != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err == nil {
			return deref(target)
		}
	}
	return decodeUnknown(eventType, raw)
}

// Summary renders the timeline text for an event. Events without payload
// render as the empty string.
func Summary(e Event) string {
	if !e.HasData() {
		return ""
	}
	return e.Payload().Summary()
}

func deref(d EventData) EventData {
	switch v := d.(type) {
	case *AlertReported:
		return *v
	case *AlertAssessed:
		return *v
	case *BroadcastInitiated:
		return *v
	case *GeofenceCreated:
		return *v
	case *CameraScanning:
		return *v
	case *TipReceived:
		return *v
	case *TipProcessed:
		return *v
	case *SuspectDetected:
		return *v
	case *CameraScanComplete:
		return *v
	case *AlertResolved:
		return *v
	case *AgentFailed:
		return *v
	case *AgentRecovered:
		return *v
	}
	return d
}

func decodeUnknown(eventType string, raw json.RawMessage) Unknown {
	u := Unknown{Type: eventType}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return u
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return u
	}
	u.Object = true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return u
		}
		key, _ := keyTok.(string)
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return u
		}
		u.Fields = append(u.Fields, Field{Key: key, Value: value})
	}
	return u
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	return true
}

func valueString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		items := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				items = append(items, "")
				continue
			}
			items = append(items, valueString(item))
		}
		return strings.Join(items, ",")
	case map[string]interface{}:
		return "[object Object]"
	}
	return fmt.Sprint(v)
}

// keepNull turns a key present as JSON null into the literal text "null"
func keepNull(raw []byte, key string, t *Text) *Text {
	if t != nil {
		return t
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	v, ok := fields[key]
	if !ok || !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	null := Text("null")
	return &null
}

func textOf(t *Text) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// titleWords upper-cases the first letter of every word
func titleWords(s string) string {
	r := []rune(s)
	prevWord := false
	for i, c := range r {
		isWord := unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
		if isWord && !prevWord {
			r[i] = unicode.ToUpper(c)
		}
		prevWord = isWord
	}
	return string(r)
}

func parseTimestamp(s string) (time.Time, bool) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

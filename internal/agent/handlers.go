package agent

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/scenario"
)

// DefaultHandlers returns the six mesh agents wired to the given scenario
func DefaultHandlers(sc *scenario.Scenario) map[string]Handler {
	return map[string]Handler{
		model.AgentAlertReceiver:   NewAlertReceiver(sc),
		model.AgentAIAnalyzer:      &AIAnalyzer{sc: sc},
		model.AgentBroadcast:       &BroadcastAgent{sc: sc},
		model.AgentGeoIntelligence: &GeoIntelligence{sc: sc},
		model.AgentCamera:          &CameraAgent{sc: sc},
		model.AgentTipProcessor:    &TipProcessor{sc: sc},
	}
}

func emit(out []model.Event, eventType, from, to string, data interface{}) ([]model.Event, error) {
	ev, err := model.NewEvent(eventType, from, to, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return append(out, ev), nil
}

func percent(v float64) *model.Text {
	t := model.Text(strconv.Itoa(int(v*100 + 0.5)))
	return &t
}

// AlertReceiver opens alerts on trigger and closes them once the camera
// sweep reports back
type AlertReceiver struct {
	sc      *scenario.Scenario
	started sync.Map // alert id -> time.Time
}

func NewAlertReceiver(sc *scenario.Scenario) *AlertReceiver {
	return &AlertReceiver{sc: sc}
}

func (h *AlertReceiver) Handle(ctx context.Context, ev model.Event) ([]model.Event, error) {
	alertID, err := AlertIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	switch ev.Type {
	case TriggerType:
		h.started.Store(alertID, time.Now())
		return emit(nil, model.EventAlertReported, model.AgentAlertReceiver, model.AgentAIAnalyzer, model.AlertReported{
			AlertID:   model.Text(alertID),
			ChildName: model.Text(h.sc.Child.Name),
			Message:   fmt.Sprintf("AMBER Alert issued for %s in %s", h.sc.Child.Name, h.sc.Location.Name),
		})
	case model.EventCameraScanComplete:
		duration := "unknown"
		if v, ok := h.started.LoadAndDelete(alertID); ok {
			duration = time.Since(v.(time.Time)).Round(time.Second).String()
		}
		return emit(nil, model.EventAlertResolved, model.AgentAlertReceiver, "", model.AlertResolved{
			AlertID:        model.Text(alertID),
			ResolutionType: model.Text(h.sc.Resolution.Type),
			ChildStatus:    model.Text(h.sc.Resolution.ChildStatus),
			SuspectStatus:  model.Text(h.sc.Resolution.SuspectStatus),
			TotalDuration:  model.Text(duration),
			Location:       model.Text(h.sc.Resolution.Location),
		})
	}
	return nil, nil
}

// AIAnalyzer scores incoming alerts. Tips forwarded to it are only
// acknowledged.
type AIAnalyzer struct {
	sc *scenario.Scenario
}

func (h *AIAnalyzer) Handle(ctx context.Context, ev model.Event) ([]model.Event, error) {
	if ev.Type != model.EventAlertReported {
		return nil, nil
	}
	alertID, err := AlertIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return emit(nil, model.EventAlertAssessed, model.AgentAIAnalyzer, model.AgentBroadcast, model.AlertAssessed{
		AlertID:   model.Text(alertID),
		Priority:  model.Text(h.sc.Assessment.Priority),
		Urgency:   model.Text(h.sc.Assessment.Urgency),
		ChildName: model.Text(h.sc.Child.Name),
		Location:  model.Text(h.sc.Location.Name),
		Vehicle:   model.Text(h.sc.Vehicle.Describe()),
	})
}

// BroadcastAgent pushes the alert out on every configured channel
type BroadcastAgent struct {
	sc *scenario.Scenario
}

func (h *BroadcastAgent) Handle(_ context.Context, ev model.Event) ([]model.Event, error) {
	if ev.Type != model.EventAlertAssessed {
		return nil, nil
	}
	return emit(nil, model.EventBroadcastInitiated, model.AgentBroadcast, model.AgentGeoIntelligence, model.BroadcastInitiated{
		Channels:  model.List(h.sc.Channels),
		ChildName: model.Text(h.sc.Child.Name),
	})
}

// GeoIntelligence draws the search zones around the last known location
type GeoIntelligence struct {
	sc *scenario.Scenario
}

func (h *GeoIntelligence) Handle(_ context.Context, ev model.Event) ([]model.Event, error) {
	if ev.Type != model.EventBroadcastInitiated {
		return nil, nil
	}
	return emit(nil, model.EventGeofenceCreated, model.AgentGeoIntelligence, model.AgentCamera, model.GeofenceCreated{
		Zones:          model.List(h.sc.Zones),
		CenterLocation: model.Text(h.sc.Location.Name),
		Coordinates: &model.Coordinates{
			Lat: model.Text(strconv.FormatFloat(h.sc.Location.Lat, 'f', 4, 64)),
			Lon: model.Text(strconv.FormatFloat(h.sc.Location.Lon, 'f', 4, 64)),
		},
	})
}

// CameraAgent sweeps the geofence and confirms processed tips
type CameraAgent struct {
	sc *scenario.Scenario
}

func (h *CameraAgent) Handle(_ context.Context, ev model.Event) ([]model.Event, error) {
	switch ev.Type {
	case model.EventGeofenceCreated:
		return emit(nil, model.EventCameraScanning, model.AgentCamera, model.AgentTipProcessor, model.CameraScanning{
			Status:        "scanning",
			Cameras:       model.Text(strconv.Itoa(h.sc.Cameras)),
			TargetVehicle: model.Text(h.sc.Vehicle.Describe()),
			SearchArea:    model.Text(h.sc.Location.Name),
		})
	case model.EventTipProcessed:
		out, err := emit(nil, model.EventSuspectDetected, model.AgentCamera, "", model.SuspectDetected{
			Zone:       model.Text(h.sc.Detection.Zone),
			Confidence: percent(h.sc.Detection.Confidence),
			Timestamp:  model.Text(time.Now().UTC().Format(time.RFC3339)),
		})
		if err != nil {
			return nil, err
		}
		detected := true
		return emit(out, model.EventCameraScanComplete, model.AgentCamera, model.AgentAlertReceiver, model.CameraScanComplete{
			ZonesScanned:  model.Text(strconv.Itoa(len(h.sc.Zones))),
			CamerasActive: model.Text(strconv.Itoa(h.sc.Cameras)),
			Detection:     &detected,
		})
	}
	return nil, nil
}

// TipProcessor takes in a public tip while cameras are sweeping and scores
// it for the Camera Agent
type TipProcessor struct {
	sc *scenario.Scenario
}

func (h *TipProcessor) Handle(_ context.Context, ev model.Event) ([]model.Event, error) {
	if ev.Type != model.EventCameraScanning {
		return nil, nil
	}
	tipID := "TIP-" + uuid.New().String()[:8]
	out, err := emit(nil, model.EventTipReceived, model.AgentTipProcessor, model.AgentAIAnalyzer, model.TipReceived{
		TipID:        model.Text(tipID),
		Confidence:   model.Text(strconv.FormatFloat(h.sc.Tip.Confidence, 'f', 2, 64)),
		ChildName:    model.Text(h.sc.Child.Name),
		Location:     model.Text(h.sc.Tip.Location),
		VehicleMatch: model.Text(h.sc.Vehicle.Describe()),
	})
	if err != nil {
		return nil, err
	}
	return emit(out, model.EventTipProcessed, model.AgentTipProcessor, model.AgentCamera, model.TipProcessed{
		TipID:      model.Text(tipID),
		Confidence: percent(h.sc.Tip.Confidence),
	})
}

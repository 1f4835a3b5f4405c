package agent

import (
	"context"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// TriggerType is the type of the in-process event that hands a freshly
// triggered alert to the Alert Receiver. It never travels on the mesh.
const TriggerType = "alert_trigger"

// Handler defines the interface for agent handlers. Handle receives an
// event addressed to the agent and returns the events it emits in order.
type Handler interface {
	Handle(ctx context.Context, ev model.Event) ([]model.Event, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, ev model.Event) ([]model.Event, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, ev model.Event) ([]model.Event, error) {
	return f(ctx, ev)
}

type alertIDKey struct{}

// WithAlertID returns a context carrying the alert the event belongs to
func WithAlertID(ctx context.Context, alertID string) context.Context {
	return context.WithValue(ctx, alertIDKey{}, alertID)
}

// AlertIDFrom returns the alert id stored by WithAlertID
func AlertIDFrom(ctx context.Context) (string, error) {
	id, _ := ctx.Value(alertIDKey{}).(string)
	if id == "" {
		return "", ErrNoAlert
	}
	return id, nil
}

package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// EventSubscriber delivers mesh events
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, handler func(model.Event)) error
}

// Recorder writes every mesh event to the history, tagged with the alert
// that was active when it arrived
type Recorder struct {
	logger  *zap.Logger
	history EventHistoryStorage
	alertID func() string
}

// NewRecorder creates a recorder. alertID may be nil.
func NewRecorder(history EventHistoryStorage, alertID func() string, logger *zap.Logger) *Recorder {
	if alertID == nil {
		alertID = func() string { return "" }
	}
	return &Recorder{
		logger:  logger.Named("recorder"),
		history: history,
		alertID: alertID,
	}
}

// Start subscribes the recorder to mesh events
func (r *Recorder) Start(ctx context.Context, bus EventSubscriber) error {
	err := bus.SubscribeEvents(ctx, func(ev model.Event) {
		storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Record(storeCtx, ev); err != nil {
			r.logger.Error("Failed to record event",
				zap.String("event_id", ev.ID),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe recorder: %w", err)
	}
	return nil
}

// Record stores one event under the alert its payload names, or the active
// alert when it names none
func (r *Recorder) Record(ctx context.Context, ev model.Event) error {
	alertID := ev.AlertID()
	if alertID == "" {
		alertID = r.alertID()
	}
	return r.history.Store(ctx, NewEventRecord(ev, alertID))
}

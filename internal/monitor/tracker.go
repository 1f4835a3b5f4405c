package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/reducer"
)

// EventSubscriber delivers mesh events
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, handler func(model.Event)) error
}

// Tracker keeps one AlertInstance per triggered alert and folds mesh events
// into the active one
type Tracker struct {
	logger *zap.Logger
	bus    EventSubscriber

	mu        sync.RWMutex
	instances map[string]*model.AlertInstance
	active    string
	now       func() time.Time
}

// NewTracker creates a new alert tracker
func NewTracker(bus EventSubscriber, logger *zap.Logger) *Tracker {
	return &Tracker{
		logger:    logger.Named("tracker"),
		bus:       bus,
		instances: make(map[string]*model.AlertInstance),
		now:       time.Now,
	}
}

// Start subscribes the tracker to mesh events
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.bus.SubscribeEvents(ctx, t.Apply); err != nil {
		return fmt.Errorf("failed to subscribe tracker: %w", err)
	}
	t.logger.Info("Alert tracker started")
	return nil
}

// Create starts a new active alert instance with every agent idle
func (t *Tracker) Create(alertID string) *model.AlertInstance {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst := model.NewAlertInstance(alertID, t.now())
	t.instances[alertID] = inst
	t.active = alertID

	t.logger.Info("Alert instance created", zap.String("alert_id", alertID))
	return inst.Clone()
}

// Apply folds an event into the active instance. Events arriving while no
// alert is active, or naming another alert in their payload, are ignored.
func (t *Tracker) Apply(ev model.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[t.active]
	if !ok {
		return
	}
	if id := ev.AlertID(); id != "" && id != t.active {
		t.logger.Debug("Event for inactive alert ignored",
			zap.String("alert_id", id),
			zap.String("type", ev.Type))
		return
	}
	next := reducer.ApplyToInstance(inst, ev, t.now())
	t.instances[t.active] = next

	if next.Resolved() && !inst.Resolved() {
		t.logger.Info("Alert resolved",
			zap.String("alert_id", next.AlertID),
			zap.Duration("duration", next.ResolvedAt.Sub(next.CreatedAt)))
	}
}

// Reset drops every instance
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.instances = make(map[string]*model.AlertInstance)
	t.active = ""
	t.logger.Info("Alert tracker reset")
}

// Active returns a copy of the active instance
func (t *Tracker) Active() (*model.AlertInstance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	inst, ok := t.instances[t.active]
	if !ok {
		return nil, false
	}
	return inst.Clone(), true
}

// Get returns a copy of the instance with the given alert id
func (t *Tracker) Get(alertID string) (*model.AlertInstance, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	inst, ok := t.instances[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, alertID)
	}
	return inst.Clone(), nil
}

// List returns copies of every instance, oldest first
func (t *Tracker) List() []*model.AlertInstance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*model.AlertInstance, 0, len(t.instances))
	for _, inst := range t.instances {
		out = append(out, inst.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

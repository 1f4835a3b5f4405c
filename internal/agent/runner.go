package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

const (
	DefaultStepDelay     = 1500 * time.Millisecond
	DefaultRecoveryDelay = 5 * time.Second
	DefaultQueue         = "amber-agents"
)

// Bus is the part of the event mesh the runner needs
type Bus interface {
	PublishEvent(ctx context.Context, ev model.Event) error
	SubscribeEvents(ctx context.Context, handler func(model.Event)) error
	SubscribeCommands(ctx context.Context, queue string, handler func(model.Command)) error
}

// Config defines configuration for the runner
type Config struct {
	StepDelay     time.Duration
	RecoveryDelay time.Duration
	Queue         string
	FailureReason string
}

// Runner hosts the simulated agents. It routes mesh events to the handler
// of the addressed agent, publishes what the handler emits one step at a
// time and plays out failures and recoveries.
type Runner struct {
	bus    Bus
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	failed   map[string]time.Time
	parked   map[string][]model.Event
	held     map[string][]pending
	// alert id of each event published toward a handler, by event id
	alerts  map[string]string
	alertID string
	gen     uint64
	resetAt int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// pending is handler output not yet published when its agent failed
type pending struct {
	alertID string
	events  []model.Event
}

// NewRunner creates a runner with no handlers registered
func NewRunner(bus Bus, config Config, logger *zap.Logger) *Runner {
	if config.StepDelay < 0 {
		config.StepDelay = 0
	}
	if config.RecoveryDelay <= 0 {
		config.RecoveryDelay = DefaultRecoveryDelay
	}
	if config.Queue == "" {
		config.Queue = DefaultQueue
	}
	if config.FailureReason == "" {
		config.FailureReason = "Simulated failure"
	}
	return &Runner{
		bus:      bus,
		config:   config,
		logger:   logger.Named("agents"),
		handlers: make(map[string]Handler),
		failed:   make(map[string]time.Time),
		parked:   make(map[string][]model.Event),
		held:     make(map[string][]pending),
		alerts:   make(map[string]string),
	}
}

// RegisterHandler registers the handler for an agent
func (r *Runner) RegisterHandler(agent string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[agent] = h
}

// Start subscribes to commands and events
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	if err := r.bus.SubscribeCommands(r.ctx, r.config.Queue, r.handleCommand); err != nil {
		r.cancel()
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}
	if err := r.bus.SubscribeEvents(r.ctx, r.dispatch); err != nil {
		r.cancel()
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	r.logger.Info("Agent runner started",
		zap.Int("agents", len(r.handlers)),
		zap.Duration("step_delay", r.config.StepDelay),
		zap.Duration("recovery_delay", r.config.RecoveryDelay))
	return nil
}

// Stop cancels pending work and waits for it to finish
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	// under mu so no dispatch can pass its ctx check and Add after Wait
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Info("Agent runner stopped")
}

// Failed reports whether an agent is currently failed
func (r *Runner) Failed(agent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.failed[agent]
	return ok
}

func (r *Runner) handleCommand(cmd model.Command) {
	var err error
	switch cmd.Action {
	case model.CommandTrigger:
		err = r.Trigger(cmd.AlertID)
	case model.CommandFail:
		err = r.Fail(cmd.Agent)
	case model.CommandReset:
		r.Reset()
	default:
		err = fmt.Errorf("unknown command action %q", cmd.Action)
	}
	if err != nil {
		r.logger.Error("Failed to handle command",
			zap.String("action", string(cmd.Action)),
			zap.Error(err))
	}
}

// Trigger starts the workflow for a new alert at the Alert Receiver
func (r *Runner) Trigger(alertID string) error {
	if alertID == "" {
		alertID = model.NewAlertID()
	}
	ev := model.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Type:      TriggerType,
		To:        model.AgentAlertReceiver,
	}
	r.mu.Lock()
	r.alertID = alertID
	r.alerts[ev.ID] = alertID
	r.mu.Unlock()

	r.logger.Info("Alert triggered", zap.String("alert_id", alertID))
	r.dispatch(ev)
	return nil
}

// dispatch hands an event to the agent it is addressed to. Events for a
// failed agent are parked until it recovers. The handler runs under the
// alert the event was published for, falling back to the latest trigger for
// events this runner did not publish.
func (r *Runner) dispatch(ev model.Event) {
	r.mu.Lock()
	if r.ctx == nil || r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	if ev.Timestamp < r.resetAt {
		delete(r.alerts, ev.ID)
		r.mu.Unlock()
		return
	}
	h, ok := r.handlers[ev.To]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, down := r.failed[ev.To]; down {
		r.parked[ev.To] = append(r.parked[ev.To], ev)
		r.mu.Unlock()
		r.logger.Debug("Event parked for failed agent",
			zap.String("agent", ev.To),
			zap.String("type", ev.Type))
		return
	}
	alertID, ok := r.alerts[ev.ID]
	if !ok {
		alertID = r.alertID
	}
	delete(r.alerts, ev.ID)
	gen := r.gen
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.process(gen, alertID, ev.To, h, ev)
	}()
}

func (r *Runner) process(gen uint64, alertID, agent string, h Handler, ev model.Event) {
	ctx := WithAlertID(r.ctx, alertID)
	out, err := h.Handle(ctx, ev)
	if err != nil {
		r.logger.Error("Agent failed to handle event",
			zap.String("agent", agent),
			zap.String("type", ev.Type),
			zap.Error(err))
		return
	}

	r.publishSteps(gen, alertID, agent, out)
}

// publishSteps publishes handler output one step at a time. Whatever is
// left when the agent goes down is held until it recovers.
func (r *Runner) publishSteps(gen uint64, alertID, agent string, out []model.Event) {
	for i, next := range out {
		if !r.sleep(r.config.StepDelay) {
			return
		}
		r.mu.Lock()
		if r.gen != gen {
			r.mu.Unlock()
			return
		}
		if _, down := r.failed[agent]; down {
			r.held[agent] = append(r.held[agent], pending{alertID: alertID, events: out[i:]})
			r.mu.Unlock()
			r.logger.Debug("Output held for failed agent",
				zap.String("agent", agent),
				zap.Int("events", len(out)-i))
			return
		}
		if _, ok := r.handlers[next.To]; ok {
			r.alerts[next.ID] = alertID
		}
		r.mu.Unlock()

		next.Timestamp = time.Now().UnixMilli()
		if err := r.publish(next); err != nil {
			r.mu.Lock()
			delete(r.alerts, next.ID)
			r.mu.Unlock()
		}
	}
}

// Fail takes an agent down until the recovery delay has passed. Failing an
// agent that is already down does nothing.
func (r *Runner) Fail(agent string) error {
	r.mu.Lock()
	if _, ok := r.handlers[agent]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNoHandler, agent)
	}
	if _, down := r.failed[agent]; down || r.ctx == nil || r.ctx.Err() != nil {
		r.mu.Unlock()
		return nil
	}
	failedAt := time.Now()
	r.failed[agent] = failedAt
	gen := r.gen
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Warn("Agent failed", zap.String("agent", agent))
	r.emit(model.EventAgentFailed, agent, model.AgentFailed{
		Agent:  model.Text(agent),
		Reason: model.Text(r.config.FailureReason),
	})

	go func() {
		defer r.wg.Done()
		if !r.sleep(r.config.RecoveryDelay) {
			return
		}
		r.recover(gen, agent, failedAt)
	}()
	return nil
}

func (r *Runner) recover(gen uint64, agent string, failedAt time.Time) {
	r.mu.Lock()
	if r.gen != gen || r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	delete(r.failed, agent)
	parked := r.parked[agent]
	delete(r.parked, agent)
	held := r.held[agent]
	delete(r.held, agent)
	r.wg.Add(len(held))
	r.mu.Unlock()

	r.logger.Info("Agent recovered",
		zap.String("agent", agent),
		zap.Int("replayed", len(parked)),
		zap.Int("resumed", len(held)))
	r.emit(model.EventAgentRecovered, agent, model.AgentRecovered{
		Agent:        model.Text(agent),
		RecoveryTime: model.Text(time.Since(failedAt).Round(time.Millisecond).String()),
	})

	for _, p := range held {
		go func(p pending) {
			defer r.wg.Done()
			r.publishSteps(gen, p.alertID, agent, p.events)
		}(p)
	}
	for _, ev := range parked {
		r.dispatch(ev)
	}
}

// Reset clears failures and parked events. Work scheduled before the reset
// is dropped.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.gen++
	r.failed = make(map[string]time.Time)
	r.parked = make(map[string][]model.Event)
	r.held = make(map[string][]pending)
	r.alerts = make(map[string]string)
	r.alertID = ""
	r.resetAt = time.Now().UnixMilli()
	r.mu.Unlock()

	r.logger.Info("Agents reset")
}

func (r *Runner) sleep(d time.Duration) bool {
	if d <= 0 {
		return r.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Runner) emit(eventType, agent string, data interface{}) {
	ev, err := model.NewEvent(eventType, agent, "", data)
	if err != nil {
		r.logger.Error("Failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	_ = r.publish(ev)
}

func (r *Runner) publish(ev model.Event) error {
	err := r.bus.PublishEvent(r.ctx, ev)
	if err != nil {
		r.logger.Error("Failed to publish agent event",
			zap.String("type", ev.Type),
			zap.String("from", ev.From),
			zap.Error(err))
	}
	return err
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// CommandPublisher sends operator commands to the agents
type CommandPublisher interface {
	PublishCommand(ctx context.Context, cmd model.Command) error
}

// AlertTracker records alert instances
type AlertTracker interface {
	Create(alertID string) *model.AlertInstance
	Reset()
}

// HistoryCleaner empties the event history
type HistoryCleaner interface {
	DeleteAll(ctx context.Context) error
}

// AlertService carries out the three operator actions. The HTTP API and the
// cron scheduler both go through it.
type AlertService struct {
	bus     CommandPublisher
	tracker AlertTracker
	history HistoryCleaner
	logger  *zap.Logger
}

// NewAlertService creates an alert service. history may be nil.
func NewAlertService(bus CommandPublisher, tracker AlertTracker, history HistoryCleaner, logger *zap.Logger) *AlertService {
	return &AlertService{
		bus:     bus,
		tracker: tracker,
		history: history,
		logger:  logger.Named("alerts"),
	}
}

// TriggerAlert opens a new alert instance and starts the agent workflow
func (s *AlertService) TriggerAlert(ctx context.Context) (string, error) {
	alertID := model.NewAlertID()
	s.tracker.Create(alertID)

	err := s.bus.PublishCommand(ctx, model.Command{
		Action:   model.CommandTrigger,
		AlertID:  alertID,
		IssuedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("Failed to trigger alert",
			zap.String("alert_id", alertID),
			zap.Error(err))
		return "", fmt.Errorf("failed to trigger alert: %w", err)
	}

	s.logger.Info("Alert triggered", zap.String("alert_id", alertID))
	return alertID, nil
}

// SimulateFailure takes the named agent down for a while
func (s *AlertService) SimulateFailure(ctx context.Context, agent string) error {
	if !model.IsKnownAgent(agent) {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
	}

	err := s.bus.PublishCommand(ctx, model.Command{
		Action:   model.CommandFail,
		Agent:    agent,
		IssuedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to simulate failure: %w", err)
	}

	s.logger.Info("Failure simulated", zap.String("agent", agent))
	return nil
}

// Reset clears every alert instance and the history and puts the agents
// back to their initial state
func (s *AlertService) Reset(ctx context.Context) error {
	s.tracker.Reset()

	if s.history != nil {
		if err := s.history.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
	}

	err := s.bus.PublishCommand(ctx, model.Command{
		Action:   model.CommandReset,
		IssuedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to reset agents: %w", err)
	}

	s.logger.Info("System reset")
	return nil
}

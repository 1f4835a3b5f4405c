package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// Mesh is the JetStream backed event bus shared by the agents, the API
// server and the monitors
type Mesh struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// New creates a mesh and makes sure its stream exists
func New(js nats.JetStreamContext, logger *zap.Logger) (*Mesh, error) {
	m := &Mesh{
		js:     js,
		logger: logger.Named("mesh"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := m.setupStream(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup stream: %w", err)
	}
	return m, nil
}

func (m *Mesh) setupStream(ctx context.Context) error {
	_, err := m.js.StreamInfo(StreamName, nats.Context(ctx))
	if err == nil {
		m.logger.Info("Using existing stream", zap.String("stream", StreamName))
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	_, err = m.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{streamSubjects},
		Storage:  nats.FileStorage,
		MaxAge:   streamMaxAge,
		MaxMsgs:  streamMaxMsgs,
		Discard:  nats.DiscardOld,
	}, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil
		}
		return err
	}

	m.logger.Info("Stream created successfully", zap.String("stream", StreamName))
	return nil
}

// EventSubject returns the subject an event of the given type is published on
func EventSubject(eventType string) string {
	return eventSubjectPrefix + subjectToken(eventType)
}

// CommandSubject returns the subject for a command action
func CommandSubject(action model.CommandAction) string {
	return commandSubjectPrefix + subjectToken(string(action))
}

// subjectToken makes s usable as a single subject token
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// PublishEvent publishes an agent event
func (m *Mesh) PublishEvent(ctx context.Context, ev model.Event) error {
	if ev.Type == "" {
		return ErrEmptyType
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := m.js.Publish(EventSubject(ev.Type), data, nats.Context(ctx)); err != nil {
		m.logger.Error("Failed to publish event",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	m.logger.Debug("Event published",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("from", ev.From),
		zap.String("to", ev.To))
	return nil
}

// PublishCommand publishes an operator command for the agents
func (m *Mesh) PublishCommand(ctx context.Context, cmd model.Command) error {
	if !cmd.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	if cmd.Action == model.CommandFail && !model.IsKnownAgent(cmd.Agent) {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, cmd.Agent)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	if _, err := m.js.Publish(CommandSubject(cmd.Action), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish command: %w", err)
	}

	m.logger.Info("Command published",
		zap.String("action", string(cmd.Action)),
		zap.String("alert_id", cmd.AlertID),
		zap.String("agent", cmd.Agent))
	return nil
}

// PublishMetrics publishes a metrics snapshot
func (m *Mesh) PublishMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if _, err := m.js.Publish(MetricsSubject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish metrics: %w", err)
	}
	return nil
}

// SubscribeEvents delivers every new event to handler, in stream order. The
// subscription is removed when ctx is done.
func (m *Mesh) SubscribeEvents(ctx context.Context, handler func(model.Event)) error {
	sub, err := m.js.Subscribe(EventSubjects, func(msg *nats.Msg) {
		var ev model.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			m.logger.Error("Failed to unmarshal event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		handler(ev)
	}, nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return nil
}

// SubscribeCommands delivers new commands to handler. Subscribers sharing
// a queue name split the commands between them.
func (m *Mesh) SubscribeCommands(ctx context.Context, queue string, handler func(model.Command)) error {
	sub, err := m.js.QueueSubscribe(CommandSubjects, queue, func(msg *nats.Msg) {
		var cmd model.Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			m.logger.Error("Failed to unmarshal command",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		handler(cmd)
	}, nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return nil
}

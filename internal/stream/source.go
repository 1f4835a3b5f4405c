package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

const (
	// DefaultReconnectDelay is the fixed wait between a stream error and the next connection
	DefaultReconnectDelay = 3 * time.Second

	defaultBufferSize = 64
	maxLineSize       = 1 << 20
)

// Config defines the event source endpoint and reconnect behaviour
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	BufferSize     int
	Client         *http.Client
}

// Source keeps one streaming connection open to the event endpoint and
// forwards decoded events one at a time. A stream error closes the
// connection and a new one is opened after ReconnectDelay, forever, until
// Close is called.
type Source struct {
	logger *zap.Logger
	config Config
	client *http.Client
	events chan model.Event

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	connects atomic.Int64
	open     atomic.Int32
	maxOpen  atomic.Int32
}

// NewSource creates a new event source
func NewSource(config Config, logger *zap.Logger) *Source {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}
	client := config.Client
	if client == nil {
		// no overall timeout: the response body is a long-lived stream
		client = &http.Client{}
	}
	return &Source{
		logger: logger.Named("event-source"),
		config: config,
		client: client,
		events: make(chan model.Event, config.BufferSize),
		done:   make(chan struct{}),
	}
}

// Events returns the channel decoded events are delivered on. It is closed
// once the source stops.
func (s *Source) Events() <-chan model.Event {
	return s.events
}

// Start opens the stream in the background
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
	return nil
}

// Close tears the stream down. No reconnect happens afterwards, even if a
// reconnect delay is pending.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("Closing event stream")
	if !started {
		close(s.events)
		return nil
	}
	cancel()
	<-s.done
	return nil
}

// Connects returns how many connection attempts have been made
func (s *Source) Connects() int64 {
	return s.connects.Load()
}

// MaxConcurrent returns the highest number of simultaneously open connections seen
func (s *Source) MaxConcurrent() int32 {
	return s.maxOpen.Load()
}

func (s *Source) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}

		s.logger.Error("Event stream error",
			zap.String("url", s.config.URL),
			zap.Duration("reconnect_in", s.config.ReconnectDelay),
			zap.Error(err))

		timer := time.NewTimer(s.config.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume runs a single connection until it fails
func (s *Source) consume(ctx context.Context) error {
	s.connects.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	n := s.open.Add(1)
	defer s.open.Add(-1)
	for {
		current := s.maxOpen.Load()
		if n <= current || s.maxOpen.CompareAndSwap(current, n) {
			break
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	s.logger.Info("Event stream connected", zap.String("url", s.config.URL))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		ev, ok := s.decodeLine(scanner.Text())
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}
	return ErrStreamEnded
}

// decodeLine turns one line of the stream into an event. SSE framing is
// optional: "data:" prefixes are stripped and other fields are skipped.
func (s *Source) decodeLine(line string) (model.Event, bool) {
	payload, ok := ParseLine(line)
	if !ok {
		return model.Event{}, false
	}

	var ev model.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Error("Failed to parse event",
			zap.String("raw", payload),
			zap.Error(err))
		return model.Event{}, false
	}

	s.logger.Debug("Received event",
		zap.String("type", ev.Type),
		zap.String("from", ev.From))
	return ev, true
}

// ParseLine extracts the JSON payload from a stream line. It returns false
// for blank lines, comments and non-data SSE fields.
func ParseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if rest, ok := strings.CutPrefix(line, "data:"); ok {
		line = strings.TrimSpace(rest)
	} else {
		for _, field := range []string{"event:", "id:", "retry:"} {
			if strings.HasPrefix(line, field) {
				return "", false
			}
		}
	}
	if line == "" {
		return "", false
	}
	return line, true
}

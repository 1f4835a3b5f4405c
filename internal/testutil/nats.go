package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/mesh"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// SetupJetStream sets up a NATS server with JetStream enabled for testing
func SetupJetStream(t *testing.T) (nats.JetStreamContext, func()) {
	t.Helper()

	_, js, cleanup := StartJetStream(t)
	return js, cleanup
}

// StartJetStream starts an embedded NATS server with JetStream enabled on a
// random port
func StartJetStream(t *testing.T) (*server.Server, nats.JetStreamContext, func()) {
	t.Helper()

	s, err := mesh.RunEmbedded(mesh.EmbeddedConfig{
		Host:     "127.0.0.1",
		Port:     -1,
		StoreDir: t.TempDir(),
	})
	require.NoError(t, err)

	nc, err := nats.Connect(s.ClientURL(), nats.Timeout(5*time.Second))
	require.NoError(t, err)

	js, err := nc.JetStream(nats.MaxWait(5 * time.Second))
	require.NoError(t, err)

	cleanup := func() {
		nc.Close()
		s.Shutdown()
	}

	return s, js, cleanup
}

// WaitForStream waits for a stream to be created
func WaitForStream(t *testing.T, js nats.JetStreamContext, name string, timeout time.Duration) error {
	t.Helper()

	start := time.Now()
	for time.Since(start) < timeout {
		_, err := js.StreamInfo(name)
		if err == nil {
			return nil
		}
		if err != nats.ErrStreamNotFound {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for stream %s", name)
}

// ConsumeMessages consumes messages from a subject for a specified duration
func ConsumeMessages(js nats.JetStreamContext, subject string, duration time.Duration) ([][]byte, error) {
	var messages [][]byte
	msgChan := make(chan *nats.Msg, 100)
	sub, err := js.Subscribe(subject, func(msg *nats.Msg) {
		msgChan <- msg
	})
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	for {
		select {
		case msg := <-msgChan:
			messages = append(messages, msg.Data)
		case <-timer.C:
			return messages, nil
		}
	}
}

// EventRecorder collects events seen on the mesh for assertions
type EventRecorder struct {
	ch chan model.Event
}

// NewEventRecorder returns a recorder with room for n events
func NewEventRecorder(n int) *EventRecorder {
	return &EventRecorder{ch: make(chan model.Event, n)}
}

// Record is an event handler suitable for Mesh.SubscribeEvents
func (r *EventRecorder) Record(ev model.Event) {
	r.ch <- ev
}

// WaitFor returns received events until one of the given type arrives
func (r *EventRecorder) WaitFor(t *testing.T, eventType string, timeout time.Duration) []model.Event {
	t.Helper()

	var seen []model.Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.ch:
			seen = append(seen, ev)
			if ev.Type == eventType {
				return seen
			}
		case <-deadline:
			types := make([]string, 0, len(seen))
			for _, ev := range seen {
				types = append(types, ev.Type)
			}
			t.Fatalf("timeout waiting for %s event, saw %v", eventType, types)
			return seen
		}
	}
}

// Drain returns every event received within d
func (r *EventRecorder) Drain(d time.Duration) []model.Event {
	var seen []model.Event
	deadline := time.After(d)
	for {
		select {
		case ev := <-r.ch:
			seen = append(seen, ev)
		case <-deadline:
			return seen
		}
	}
}

// MustJSON marshals v or fails the test
func MustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

package webui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/reducer"
)

func TestNewPageDataIdle(t *testing.T) {
	data := NewPageData("AMBER", nil)
	assert.Empty(t, data.AlertID)
	require.Len(t, data.Agents, len(model.AgentNames))
	for i, agent := range data.Agents {
		assert.Equal(t, model.AgentNames[i], agent.Name)
		assert.Equal(t, "Idle", agent.Label)
	}
	assert.Empty(t, data.Events)
}

func TestNewPageDataFromInstance(t *testing.T) {
	now := time.Now()
	inst := model.NewAlertInstance("AMBER-1", now)
	inst = reducer.ApplyToInstance(inst, model.Event{
		ID:        "1",
		Timestamp: now.UnixMilli(),
		Type:      model.EventAgentFailed,
		From:      model.AgentCamera,
		Data:      json.RawMessage(`{"agent":"Camera Agent","reason":"Simulated failure"}`),
		Color:     model.AgentColor(model.AgentCamera),
	}, now)
	inst = reducer.ApplyToInstance(inst, model.Event{
		ID:        "2",
		Timestamp: now.UnixMilli(),
		Type:      "heartbeat",
		From:      "Somebody",
		To:        model.AgentAIAnalyzer,
	}, now)

	data := NewPageData("AMBER", inst)
	assert.Equal(t, "AMBER-1", data.AlertID)

	var camera AgentView
	for _, a := range data.Agents {
		if a.Name == model.AgentCamera {
			camera = a
		}
	}
	assert.Equal(t, "Error", camera.Label)
	assert.Equal(t, model.StatusError.Color(), camera.Color)

	require.Len(t, data.Events, 2)
	assert.Equal(t, "heartbeat", data.Events[0].Type)
	assert.Equal(t, noDetails, data.Events[0].Summary)
	assert.Empty(t, data.Events[0].Raw)
	assert.Equal(t, now.Local().Format("15:04:05"), data.Events[1].Time)
	assert.NotEqual(t, noDetails, data.Events[1].Summary)
	assert.NotEmpty(t, data.Events[1].Raw)
}

func TestTemplateRenders(t *testing.T) {
	now := time.Now()
	inst := model.NewAlertInstance("AMBER-42", now)
	inst = reducer.ApplyToInstance(inst, model.Event{
		ID:        "1",
		Timestamp: now.UnixMilli(),
		Type:      model.EventAlertReported,
		From:      model.AgentAlertReceiver,
		To:        model.AgentAIAnalyzer,
		Data:      json.RawMessage(`{"child_name":"<Emma>"}`),
	}, now)

	var buf bytes.Buffer
	require.NoError(t, Templates.ExecuteTemplate(&buf, "base", NewPageData("AMBER Mesh", inst)))

	html := buf.String()
	assert.Contains(t, html, "AMBER-42")
	assert.Contains(t, html, "alert_reported")
	assert.Contains(t, html, "From: Alert Receiver → AI Analyzer")
	assert.Contains(t, html, "&lt;Emma&gt;")
	assert.NotContains(t, html, "<Emma>")
}

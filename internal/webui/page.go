package webui

import (
	"time"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

const noDetails = "No details available"

// AgentView is one agent card
type AgentView struct {
	Name      string
	Label     string
	LastEvent string
	Color     string
	Status    string
}

// EventView is one timeline entry
type EventView struct {
	Type    string
	Time    string
	From    string
	To      string
	Summary string
	Color   string
	Raw     string
}

// PageData holds data for the status page
type PageData struct {
	AppName  string
	AlertID  string
	Resolved bool
	Agents   []AgentView
	Events   []EventView
}

// NewPageData builds the status page for an alert instance. A nil instance
// renders every agent idle with an empty timeline.
func NewPageData(appName string, inst *model.AlertInstance) PageData {
	if inst == nil {
		inst = model.NewAlertInstance("", time.Time{})
	}

	data := PageData{
		AppName:  appName,
		AlertID:  inst.AlertID,
		Resolved: inst.Resolved(),
	}
	for _, name := range model.AgentNames {
		agent, ok := inst.Agents[name]
		if !ok {
			agent = model.AgentStatus{Name: name, Status: model.StatusIdle}
		}
		data.Agents = append(data.Agents, AgentView{
			Name:      name,
			Label:     agent.Status.Label(),
			LastEvent: agent.LastEvent,
			Color:     agent.Status.Color(),
			Status:    string(agent.Status),
		})
	}
	for _, ev := range inst.Events {
		data.Events = append(data.Events, NewEventView(ev))
	}
	return data
}

// NewEventView formats an event for the timeline
func NewEventView(ev model.Event) EventView {
	summary := model.Summary(ev)
	if summary == "" {
		summary = noDetails
	}
	view := EventView{
		Type:    ev.Type,
		Time:    ev.Time().Local().Format("15:04:05"),
		From:    ev.From,
		To:      ev.To,
		Summary: summary,
		Color:   ev.Color,
	}
	if ev.HasData() {
		view.Raw = string(ev.Data)
	}
	return view
}

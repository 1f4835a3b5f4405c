package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Trigger key.Binding
	Reset   key.Binding
	Fail    key.Binding
	Up      key.Binding
	Down    key.Binding
	Expand  key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Trigger, k.Reset, k.Fail, k.Up, k.Down, k.Expand, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Trigger: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trigger alert")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Fail:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f+1..6", "fail agent")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Expand:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "details")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// agentForDigit maps "1".."6" onto the agent at that display position
func agentForDigit(s string, agents []string) (string, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return "", false
	}
	idx := int(s[0] - '1')
	if idx >= len(agents) {
		return "", false
	}
	return agents[idx], true
}

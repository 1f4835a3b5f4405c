package webui

import (
	"html/template"
	"strings"
)

// Templates contains all HTML templates for the web UI
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"statusClass": func(status string) string {
		return "status-" + status
	},
	"isError": func(eventType string) bool {
		return strings.Contains(eventType, "error") || strings.Contains(eventType, "failed")
	},
}).Parse(`
{{define "base"}}
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="refresh" content="3">
    <title>{{.AppName}}</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --border-color: #30363d;
            --text-primary: #e6edf3;
            --text-secondary: #8b949e;
            --accent-red: #f85149;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }
        header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 2rem;
            padding-bottom: 1rem;
            border-bottom: 1px solid var(--border-color);
        }
        .alert-id { font-family: monospace; color: var(--text-secondary); }
        .resolved { color: #00ff88; font-weight: 600; }
        .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1rem; margin-bottom: 2rem; }
        .agent {
            background: var(--bg-secondary);
            border: 2px solid var(--border-color);
            border-radius: 8px;
            padding: 1rem;
        }
        .agent .name { font-weight: 600; }
        .agent .last { color: var(--text-secondary); font-size: 0.85rem; }
        .timeline { display: flex; flex-direction: column; gap: 0.5rem; }
        .event {
            background: var(--bg-secondary);
            border-left: 4px solid var(--border-color);
            padding: 0.5rem 1rem;
        }
        .event.error { border-left-style: dashed; }
        .event .meta { color: var(--text-secondary); font-size: 0.85rem; }
        .event pre { font-size: 0.75rem; color: var(--text-secondary); white-space: pre-wrap; }
        .empty { color: var(--text-secondary); }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>{{.AppName}}</h1>
        <div>
            {{if .AlertID}}<span class="alert-id">{{.AlertID}}</span>{{else}}<span class="empty">No active alert</span>{{end}}
            {{if .Resolved}}<span class="resolved">Resolved</span>{{end}}
        </div>
    </header>

    <section class="grid">
        {{range .Agents}}
        <div class="agent {{statusClass .Status}}" style="border-color: {{.Color}}">
            <div class="name">{{.Name}}</div>
            <div class="label" style="color: {{.Color}}">{{.Label}}</div>
            {{if .LastEvent}}<div class="last">{{.LastEvent}}</div>{{end}}
        </div>
        {{end}}
    </section>

    <h2>Event Timeline</h2>
    <section class="timeline">
        {{range .Events}}
        <div class="event{{if isError .Type}} error{{end}}" style="border-left-color: {{.Color}}">
            <div><strong>{{.Type}}</strong> <span class="meta">{{.Time}}</span></div>
            <div class="meta">From: {{.From}}{{if .To}} → {{.To}}{{end}}</div>
            <div>{{.Summary}}</div>
            {{if .Raw}}<details><summary class="meta">Raw data</summary><pre>{{.Raw}}</pre></details>{{end}}
        </div>
        {{else}}
        <div class="empty">No events yet</div>
        {{end}}
    </section>
</div>
</body>
</html>
{{end}}
`))

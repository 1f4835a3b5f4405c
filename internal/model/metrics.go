package model

import "time"

// HostStats is a sample of the machine running the simulation
type HostStats struct {
	CPUUsage    float64   `json:"cpu_usage"`
	MemoryUsage float64   `json:"memory_usage"`
	CollectedAt time.Time `json:"collected_at"`
}

// MetricsSnapshot is published on the mesh and served by the API
type MetricsSnapshot struct {
	Timestamp   time.Time        `json:"timestamp"`
	Host        HostStats        `json:"host"`
	TotalEvents int64            `json:"total_events"`
	ByAgent     map[string]int64 `json:"by_agent"`
	ByType      map[string]int64 `json:"by_type"`
	Failures    int64            `json:"failures"`
	Resolved    int64            `json:"resolved"`
}

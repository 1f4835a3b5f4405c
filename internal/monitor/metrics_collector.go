package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// MetricsBus is the part of the mesh the collector reads from and
// publishes to
type MetricsBus interface {
	EventSubscriber
	PublishMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error
}

// HostSampler returns the current host load
type HostSampler func() (model.HostStats, error)

// MetricsCollector counts mesh events and samples the host
type MetricsCollector struct {
	logger   *zap.Logger
	bus      MetricsBus
	interval time.Duration
	sample   HostSampler

	mu       sync.RWMutex
	host     model.HostStats
	total    int64
	byAgent  map[string]int64
	byType   map[string]int64
	failures int64
	resolved int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(bus MetricsBus, interval time.Duration, logger *zap.Logger) *MetricsCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &MetricsCollector{
		logger:   logger.Named("metrics-collector"),
		bus:      bus,
		interval: interval,
		sample:   SampleHost,
		byAgent:  make(map[string]int64),
		byType:   make(map[string]int64),
		stop:     make(chan struct{}),
	}
}

// Start starts the metrics collector
func (c *MetricsCollector) Start(ctx context.Context) error {
	c.logger.Info("Starting metrics collector", zap.Duration("interval", c.interval))

	if err := c.bus.SubscribeEvents(ctx, c.Record); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	go c.collectLoop(ctx)
	return nil
}

// Stop stops the metrics collector
func (c *MetricsCollector) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping metrics collector")
		close(c.stop)
	})
}

// Record counts one mesh event
func (c *MetricsCollector) Record(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if ev.From != "" {
		c.byAgent[ev.From]++
	}
	c.byType[ev.Type]++
	switch ev.Type {
	case model.EventAgentFailed:
		c.failures++
	case model.EventAlertResolved:
		c.resolved++
	}
}

func (c *MetricsCollector) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *MetricsCollector) collect(ctx context.Context) {
	host, err := c.sample()
	if err != nil {
		c.logger.Error("Failed to sample host", zap.Error(err))
	} else {
		c.mu.Lock()
		c.host = host
		c.mu.Unlock()
	}

	snapshot := c.Snapshot()
	if err := c.bus.PublishMetrics(ctx, snapshot); err != nil {
		c.logger.Error("Failed to publish metrics", zap.Error(err))
		return
	}

	c.logger.Debug("Metrics collected",
		zap.Float64("cpu_usage", snapshot.Host.CPUUsage),
		zap.Float64("memory_usage", snapshot.Host.MemoryUsage),
		zap.Int64("total_events", snapshot.TotalEvents))
}

// Snapshot returns the current metrics
func (c *MetricsCollector) Snapshot() model.MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := model.MetricsSnapshot{
		Timestamp:   time.Now(),
		Host:        c.host,
		TotalEvents: c.total,
		ByAgent:     make(map[string]int64, len(c.byAgent)),
		ByType:      make(map[string]int64, len(c.byType)),
		Failures:    c.failures,
		Resolved:    c.resolved,
	}
	for k, v := range c.byAgent {
		snapshot.ByAgent[k] = v
	}
	for k, v := range c.byType {
		snapshot.ByType[k] = v
	}
	return snapshot
}

// SampleHost reads CPU and memory usage with gopsutil
func SampleHost() (model.HostStats, error) {
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil {
		return model.HostStats{}, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return model.HostStats{}, fmt.Errorf("failed to get memory usage: %w", err)
	}

	stats := model.HostStats{
		MemoryUsage: memInfo.UsedPercent,
		CollectedAt: time.Now(),
	}
	if len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}
	return stats, nil
}

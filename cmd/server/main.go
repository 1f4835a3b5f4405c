package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/agent"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/api"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/config"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/logging"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/mesh"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/monitor"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/scenario"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/scheduler"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/service"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/storage"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Run the AMBER alert agent mesh",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config/config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger, err := logging.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	natsURL := cfg.NATS.URL
	if cfg.NATS.Embedded {
		ns, err := mesh.RunEmbedded(mesh.EmbeddedConfig{
			Host:     cfg.NATS.EmbeddedHost,
			Port:     cfg.NATS.EmbeddedPort,
			StoreDir: cfg.NATS.StoreDir,
		})
		if err != nil {
			return err
		}
		defer ns.Shutdown()
		natsURL = ns.ClientURL()
		logger.Info("Embedded NATS server started", zap.String("url", natsURL))
	}

	nc, err := mesh.Connect(mesh.ConnectConfig{
		Name:           cfg.App.Name,
		URL:            natsURL,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectTimeout: cfg.NATS.ConnectTimeout,
		ConnectRetries: cfg.NATS.ConnectRetries,
	}, logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	// Create JetStream context
	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bus, err := mesh.New(js, logger)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(cfg.Sim.ScenarioFile)
	if err != nil {
		return err
	}

	// Agents
	runner := agent.NewRunner(bus, agent.Config{
		StepDelay:     cfg.Sim.StepDelay,
		RecoveryDelay: cfg.Sim.RecoveryDelay,
		FailureReason: sc.Failure.Reason,
	}, logger)
	for name, h := range agent.DefaultHandlers(sc) {
		runner.RegisterHandler(name, h)
	}
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agents: %w", err)
	}
	defer runner.Stop()

	tracker := monitor.NewTracker(bus, logger)
	if err := tracker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start alert tracker: %w", err)
	}

	// Create event history storage
	history, err := storage.NewSQLiteEventHistory(logger, cfg.Storage.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	recorder := storage.NewRecorder(history, func() string {
		if inst, ok := tracker.Active(); ok {
			return inst.AlertID
		}
		return ""
	}, logger)
	if err := recorder.Start(ctx, bus); err != nil {
		return fmt.Errorf("failed to start history recorder: %w", err)
	}

	var metrics api.Metrics
	if cfg.Metrics.Enabled {
		collector := monitor.NewMetricsCollector(bus, cfg.Metrics.Interval, logger)
		if err := collector.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics collector: %w", err)
		}
		defer collector.Stop()
		metrics = collector
	}

	alerts := service.NewAlertService(bus, tracker, history, logger)

	cronScheduler := scheduler.NewCronScheduler(alerts, logger)
	for _, sched := range cfg.Schedules {
		if err := cronScheduler.AddSchedule(&model.Schedule{Name: sched.Name, Expression: sched.Expression}); err != nil {
			return fmt.Errorf("failed to add schedule %q: %w", sched.Name, err)
		}
	}
	if cfg.Storage.Retention > 0 {
		if err := cronScheduler.AddRetention(cfg.Storage.RetentionSchedule, cfg.Storage.Retention, history); err != nil {
			return fmt.Errorf("failed to add history retention: %w", err)
		}
	}
	if err := cronScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer cronScheduler.Stop()

	srv := api.NewServer(api.Config{
		Addr:              cfg.HTTP.Addr,
		AppName:           cfg.App.Name,
		HeartbeatInterval: cfg.HTTP.HeartbeatInterval,
	}, api.Deps{
		Actions:   alerts,
		Alerts:    tracker,
		History:   history,
		Metrics:   metrics,
		Schedules: cronScheduler,
	}, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(ctx, bus)
	}()

	// Wait for shutdown signal or a serve failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("API server stopped", zap.Error(err))
			return err
		}
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("API server shutdown failed", zap.Error(err))
	}

	logger.Info("Server shutting down gracefully")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.HTTP.ShutdownTimeout > 0 {
		return cfg.HTTP.ShutdownTimeout
	}
	return 10 * time.Second
}

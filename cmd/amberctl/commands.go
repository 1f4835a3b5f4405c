package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/dashboard"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/stream"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/webui"
)

func (c *cli) dashboardCmd() *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the UI, so logs go to a file
			logger, err := c.logger(logFile)
			if err != nil {
				return err
			}
			defer logger.Sync()

			actions := c.client(logger)
			source := stream.NewSource(stream.Config{URL: actions.EventsURL()}, logger)
			if err := source.Start(commandContext(cmd)); err != nil {
				return err
			}
			defer source.Close()

			p := tea.NewProgram(
				dashboard.New(actions, source.Events(), logger),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "amberctl.log", "file the dashboard logs to")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print events from the server stream until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := c.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source := stream.NewSource(stream.Config{URL: c.client(logger).EventsURL()}, logger)
			if err := source.Start(ctx); err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				source.Close()
			}()

			for ev := range source.Events() {
				fmt.Fprintln(c.out, formatEvent(ev))
			}
			return nil
		},
	}
}

func (c *cli) triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Start a new alert",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, cl actionClient, args []string) error {
			alertID, err := cl.Trigger(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Alert %s triggered\n", alertID)
			return nil
		}),
	}
}

func (c *cli) failCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fail <agent>",
		Short: "Simulate a failure of one agent",
		Long:  "Simulate a failure of one agent. Agents: " + agentList(),
		Args:  cobra.ExactArgs(1),
		RunE: c.withClient(func(ctx context.Context, cl actionClient, args []string) error {
			if err := cl.SimulateFailure(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s failure simulated\n", args[0])
			return nil
		}),
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all alert state",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, cl actionClient, args []string) error {
			if err := cl.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Reset complete")
			return nil
		}),
	}
}

type actionClient = dashboard.Actions

func (c *cli) withClient(fn func(ctx context.Context, cl actionClient, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger, err := c.logger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := fn(commandContext(cmd), c.client(logger), args); err != nil {
			logger.Debug("Command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func agentList() string {
	out := ""
	for i, name := range model.AgentNames {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", name)
	}
	return out
}

// formatEvent renders one stream event as a single line
func formatEvent(ev model.Event) string {
	view := webui.NewEventView(ev)
	route := view.From
	if view.To != "" {
		route += " → " + view.To
	}
	return fmt.Sprintf("%s  %-22s %s  %s", view.Time, view.Type, route, view.Summary)
}

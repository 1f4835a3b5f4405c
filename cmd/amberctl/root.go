package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/client"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/config"
	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/logging"
)

const defaultServer = "http://localhost:3000"

// cli carries the settings shared by every subcommand. Flags win over
// AMBER_* environment variables.
type cli struct {
	v   *viper.Viper
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "amberctl",
		Short: "Drive and watch the AMBER alert agent mesh",
		Long: `amberctl talks to a running AMBER alert server.

Examples:
  amberctl dashboard                      # interactive terminal dashboard
  amberctl watch                          # print events as they arrive
  amberctl trigger                        # start a new alert
  amberctl fail "Camera Agent"            # take an agent offline
  amberctl reset                          # clear all alert state`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.String("server", defaultServer, "server base URL (env AMBER_SERVER)")
	flags.String("log-level", "warn", "log level (env AMBER_LOG_LEVEL)")
	c.v.BindPFlag("server", flags.Lookup("server"))
	c.v.BindPFlag("log-level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		c.dashboardCmd(),
		c.watchCmd(),
		c.triggerCmd(),
		c.failCmd(),
		c.resetCmd(),
	)
	return rootCmd
}

func (c *cli) logger(outputPaths ...string) (*zap.Logger, error) {
	return logging.New(false, c.v.GetString("log-level"), outputPaths...)
}

func (c *cli) client(logger *zap.Logger) *client.Client {
	return client.New(c.v.GetString("server"), logger)
}

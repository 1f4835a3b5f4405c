package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. AMBER_HTTP_ADDR
const EnvPrefix = "AMBER"

// Config is the server configuration
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	NATS      NATSConfig       `mapstructure:"nats"`
	HTTP      HTTPConfig       `mapstructure:"http"`
	Sim       SimConfig        `mapstructure:"sim"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Schedules []ScheduleConfig `mapstructure:"schedules"`
	Log       LogConfig        `mapstructure:"log"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Embedded       bool          `mapstructure:"embedded"`
	EmbeddedHost   string        `mapstructure:"embedded_host"`
	EmbeddedPort   int           `mapstructure:"embedded_port"`
	StoreDir       string        `mapstructure:"store_dir"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ConnectRetries int           `mapstructure:"connect_retries"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type SimConfig struct {
	StepDelay     time.Duration `mapstructure:"step_delay"`
	RecoveryDelay time.Duration `mapstructure:"recovery_delay"`
	ScenarioFile  string        `mapstructure:"scenario_file"`
}

type StorageConfig struct {
	HistoryPath       string        `mapstructure:"history_path"`
	Retention         time.Duration `mapstructure:"retention"`
	RetentionSchedule string        `mapstructure:"retention_schedule"`
}

type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type ScheduleConfig struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// SetDefaults registers the built-in values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "amber-alert-mesh")

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.embedded", true)
	v.SetDefault("nats.embedded_host", "127.0.0.1")
	v.SetDefault("nats.embedded_port", 4222)
	v.SetDefault("nats.store_dir", "./data/jetstream")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.connect_timeout", 5*time.Second)
	v.SetDefault("nats.connect_retries", 5)

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.heartbeat_interval", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("sim.step_delay", 1500*time.Millisecond)
	v.SetDefault("sim.recovery_delay", 5*time.Second)
	v.SetDefault("sim.scenario_file", "")

	v.SetDefault("storage.history_path", "event_history.db")
	v.SetDefault("storage.retention", 24*time.Hour)
	v.SetDefault("storage.retention_schedule", "0 */10 * * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.interval", 10*time.Second)

	v.SetDefault("log.development", true)
	v.SetDefault("log.level", "info")
}

// Load reads the configuration. path may name a file or be empty, in which
// case config/config.yaml is used when present. Environment variables
// override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values the server cannot run without
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.embedded is false")
	}
	if c.Sim.StepDelay < 0 {
		return fmt.Errorf("sim.step_delay must not be negative")
	}
	if c.Sim.RecoveryDelay <= 0 {
		return fmt.Errorf("sim.recovery_delay must be positive")
	}
	if c.HTTP.HeartbeatInterval <= 0 {
		return fmt.Errorf("http.heartbeat_interval must be positive")
	}
	for i, s := range c.Schedules {
		if s.Expression == "" {
			return fmt.Errorf("schedules[%d]: expression is required", i)
		}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "INKD"

type Configuration struct {
	Server    Server `mapstructure:"server"`
	Pool      Pool   `mapstructure:"pool"`
	Reaper    Reaper `mapstructure:"reaper"`
	LogFormat string `mapstructure:"log-format" default:"console"`
	LogLevel  string `mapstructure:"log-level" default:"info"`
}

type Server struct {
	ServerMode      string        `mapstructure:"mode" default:"dev"`
	HTTPPort        int           `mapstructure:"http-port" default:"8000"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" default:"10s"`
}

type Pool struct {
	NumWorkers int `mapstructure:"workers" default:"4"`
}

type Reaper struct {
	Slots int           `mapstructure:"slots" default:"60"`
	Tick  time.Duration `mapstructure:"tick" default:"1s"`
}

// NewConfigurationWithDefaults returns a configuration holding the default of
// every field.
func NewConfigurationWithDefaults() (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set configuration defaults: %w", err)
	}
	return cfg, nil
}

// Load builds the configuration from, in increasing priority: defaults, the
// file named by the "config" key if set, INKD_* environment variables and the
// flags bound to v.
//
// Nested keys map to variables by upper-casing and replacing dots and dashes
// with underscores: server.http-port is INKD_SERVER_HTTP_PORT.
func Load(v *viper.Viper) (*Configuration, error) {
	cfg, err := NewConfigurationWithDefaults()
	if err != nil {
		return nil, err
	}

	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", file, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key with v. AutomaticEnv only resolves keys
// that viper already knows about.
func setDefaults(v *viper.Viper, cfg *Configuration) {
	v.SetDefault("server.mode", cfg.Server.ServerMode)
	v.SetDefault("server.http-port", cfg.Server.HTTPPort)
	v.SetDefault("server.shutdown-timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("pool.workers", cfg.Pool.NumWorkers)
	v.SetDefault("reaper.slots", cfg.Reaper.Slots)
	v.SetDefault("reaper.tick", cfg.Reaper.Tick)
	v.SetDefault("log-format", cfg.LogFormat)
	v.SetDefault("log-level", cfg.LogLevel)
}

func (c *Configuration) Validate() error {
	var errs []error

	switch c.Server.ServerMode {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("invalid server mode %q: use dev or prod", c.Server.ServerMode))
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port %d", c.Server.HTTPPort))
	}
	if c.Pool.NumWorkers < 0 {
		errs = append(errs, fmt.Errorf("invalid worker count %d", c.Pool.NumWorkers))
	}
	if c.Reaper.Slots < 1 {
		errs = append(errs, fmt.Errorf("invalid reaper slot count %d", c.Reaper.Slots))
	}
	if c.Reaper.Tick <= 0 {
		errs = append(errs, fmt.Errorf("invalid reaper tick %s", c.Reaper.Tick))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: use console or json", c.LogFormat))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}

	return errors.Join(errs...)
}

// SessionTimeout returns the minimum idle time before the reaper expires a
// session.
func (c *Configuration) SessionTimeout() time.Duration {
	return time.Duration(c.Reaper.Slots-1) * c.Reaper.Tick
}

// Package config defines the configuration structure of the inkd daemon.
//
// Defaults live in struct tags and are applied with creasty/defaults. Load
// then layers an optional configuration file, INKD_* environment variables
// and command-line flags on top of them through viper.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP server settings
//	├── Pool           - Task pool running expiry callbacks
//	├── Reaper         - Session expiry wheel
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────────────┬─────────┬────────────────────────────────────┐
//	│ Key                      │ Default │ Description                        │
//	├──────────────────────────┼─────────┼────────────────────────────────────┤
//	│ server.mode              │ "dev"   │ Server mode: "prod" or "dev"       │
//	│ server.http-port         │ 8000    │ HTTP server listen port            │
//	│ server.shutdown-timeout  │ 10s     │ Grace period for in-flight requests│
//	└──────────────────────────┴─────────┴────────────────────────────────────┘
//
// # Pool and Reaper Configuration
//
//	┌──────────────────┬─────────┬──────────────────────────────────────────┐
//	│ Key              │ Default │ Description                              │
//	├──────────────────┼─────────┼──────────────────────────────────────────┤
//	│ pool.workers     │ 4       │ Task pool worker goroutines              │
//	│ reaper.slots     │ 60      │ Timer wheel slot count                   │
//	│ reaper.tick      │ 1s      │ Timer wheel tick duration                │
//	└──────────────────┴─────────┴──────────────────────────────────────────┘
//
// Sessions expire after (reaper.slots - 1) * reaper.tick of inactivity, one
// minute with the defaults.
//
// # Logging
//
//	┌──────────────┬───────────┬────────────────────────────────────────────┐
//	│ Key          │ Default   │ Description                                │
//	├──────────────┼───────────┼────────────────────────────────────────────┤
//	│ log-format   │ "console" │ "console" or "json"                        │
//	│ log-level    │ "info"    │ Any zap level: debug, info, warn, error... │
//	└──────────────┴───────────┴────────────────────────────────────────────┘
//
// # Environment
//
// Every key can be set from the environment with the INKD_ prefix, dots and
// dashes turned into underscores:
//
//	INKD_SERVER_HTTP_PORT=9000 INKD_REAPER_TICK=500ms inkd run
//
// # Usage Example
//
//	v := viper.New()
//	_ = v.BindPFlag("server.http-port", cmd.Flags().Lookup("http-port"))
//
//	cfg, err := config.Load(v)
//	if err != nil {
//	    return err
//	}
package config

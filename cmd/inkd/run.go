package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kubev2v/inkcore/internal/config"
	"github.com/kubev2v/inkcore/internal/handlers"
	"github.com/kubev2v/inkcore/internal/server"
	"github.com/kubev2v/inkcore/internal/services"
	"github.com/kubev2v/inkcore/pkg/reaper"
	"github.com/kubev2v/inkcore/pkg/taskpool"
)

// runFlags are the command-line overrides of the run command. Each flag is
// bound to its configuration key, so a flag only wins over the file and the
// environment when it is set.
type runFlags struct {
	mode      *cobraflags.StringFlag
	httpPort  *cobraflags.IntFlag
	workers   *cobraflags.IntFlag
	slots     *cobraflags.IntFlag
	tick      *cobraflags.StringFlag
	logLevel  *cobraflags.StringFlag
	logFormat *cobraflags.StringFlag
}

func newRunFlags() *runFlags {
	return &runFlags{
		mode: &cobraflags.StringFlag{
			Name:     "mode",
			ViperKey: "server.mode",
			Usage:    "Server mode: dev|prod",
			Value:    "dev",
		},
		httpPort: &cobraflags.IntFlag{
			Name:     "http-port",
			ViperKey: "server.http-port",
			Usage:    "HTTP listen port",
			Value:    8000,
		},
		workers: &cobraflags.IntFlag{
			Name:     "workers",
			ViperKey: "pool.workers",
			Usage:    "Task pool workers running expiry callbacks",
			Value:    4,
		},
		slots: &cobraflags.IntFlag{
			Name:     "slots",
			ViperKey: "reaper.slots",
			Usage:    "Timer wheel slots; sessions expire after (slots-1)*tick",
			Value:    60,
		},
		tick: &cobraflags.StringFlag{
			Name:     "tick",
			ViperKey: "reaper.tick",
			Usage:    "Timer wheel tick duration",
			Value:    time.Second.String(),
			ValidateFunc: func(value string) error {
				if _, err := time.ParseDuration(value); err != nil {
					return fmt.Errorf("invalid tick %q: %w", value, err)
				}
				return nil
			},
		},
		logLevel: &cobraflags.StringFlag{
			Name:     "log-level",
			ViperKey: "log-level",
			Usage:    "Log level: debug|info|warn|error",
			Value:    "info",
		},
		logFormat: &cobraflags.StringFlag{
			Name:     "log-format",
			ViperKey: "log-format",
			Usage:    "Log format: console|json",
			Value:    "console",
		},
	}
}

func (f *runFlags) register(cmd *cobra.Command) {
	cobraflags.Register(cmd, f.mode, f.httpPort, f.workers, f.slots, f.tick, f.logLevel, f.logFormat)
}

// load binds the flags to the global viper instance, checks the ones that
// carry their own validation and reads the configuration.
func (f *runFlags) load() (*config.Configuration, error) {
	for _, flag := range []*cobraflags.StringFlag{f.mode, f.tick, f.logLevel, f.logFormat} {
		if _, err := flag.GetStringE(); err != nil {
			return nil, err
		}
	}
	for _, flag := range []*cobraflags.IntFlag{f.httpPort, f.workers, f.slots} {
		if _, err := flag.GetIntE(); err != nil {
			return nil, err
		}
	}
	return config.Load(viper.GetViper())
}

func newRunCommand() *cobra.Command {
	flags := newRunFlags()

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the daemon",
		Aliases: []string{"start"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			undo := zap.ReplaceGlobals(logger)
			defer undo()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg)
		},
	}

	flags.register(cmd)
	return cmd
}

func run(ctx context.Context, cfg *config.Configuration) error {
	log := zap.S().Named("inkd")

	pool := taskpool.New(cfg.Pool.NumWorkers)
	defer pool.Shutdown()

	sessions, err := services.NewSessionService(pool,
		reaper.WithSlots(cfg.Reaper.Slots),
		reaper.WithTick(cfg.Reaper.Tick),
	)
	if err != nil {
		return err
	}
	sessions.Start(ctx)
	defer sessions.Stop()

	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		handlers.RegisterHandlers(router, handlers.New(sessions))
	})
	if err != nil {
		return err
	}

	log.Infow("inkd started",
		"mode", cfg.Server.ServerMode,
		"port", cfg.Server.HTTPPort,
		"workers", cfg.Pool.NumWorkers,
		"session_timeout", cfg.SessionTimeout(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warnw("http server did not stop cleanly", "error", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	log.Infow("inkd stopped")
	return nil
}

package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/bstviz/internal/server"
	"github.com/Sumatoshi-tech/bstviz/internal/session"
	"github.com/Sumatoshi-tech/bstviz/pkg/config"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
)

const (
	flagHost = "host"
	flagPort = "port"
)

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	var (
		host  string
		port  int
		theme string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive a live tree over HTTP",
		Long: `Start a tree session ticking in real time and serve it over HTTP:

  POST /api/command   apply insert, delete, search or clear
  GET  /api/state     current frame as JSON
  GET  /view          current frame as an HTML graph
  GET  /healthz       liveness probe
  GET  /readyz        readiness probe
  GET  /metrics       Prometheus scrape endpoint`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed(flagHost) {
				cfg.Server.Host = host
			}

			if cmd.Flags().Changed(flagPort) {
				cfg.Server.Port = port
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			opts, err := viewOptions(cfg, theme)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			providers, err := initObservability(ctx, cfg, observability.ModeServe, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdownObservability(providers)

			sess, err := newSession(cfg, providers)
			if err != nil {
				return err
			}

			srv := server.New(sess, serverConfig(cfg),
				server.WithLogger(providers.Logger),
				server.WithTracer(providers.Tracer),
				server.WithMetricsHandler(providers.MetricsHandler),
				server.WithViewOptions(opts),
			)

			return runUntilDone(ctx, sess, srv.ListenAndServe)
		},
	}

	cmd.Flags().StringVar(&host, flagHost, config.DefaultHost, "listen host, overriding server.host")
	cmd.Flags().IntVar(&port, flagPort, config.DefaultPort, "listen port, overriding server.port")
	cmd.Flags().StringVar(&theme, flagTheme, "", "view theme: dark or light")

	return cmd
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Addr:            net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}

// newSession seeds a controller from cfg and wraps it in a session wired to
// the providers.
func newSession(cfg *config.Config, providers observability.Providers) (*session.Session, error) {
	rec, err := newRecorder(cfg)
	if err != nil {
		return nil, err
	}

	ctrl := layout.New(cfg.LayoutParams())
	ctrl.Seed(cfg.Tree.Seed...)

	sess, err := session.New(ctrl,
		session.WithTickInterval(cfg.TickInterval()),
		session.WithLogger(providers.Logger),
		session.WithTracer(providers.Tracer),
		session.WithMeter(providers.Meter),
		session.WithRecorder(rec),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// runUntilDone runs the session next to host. When either returns, the other
// is stopped.
func runUntilDone(ctx context.Context, sess *session.Session, host func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()

		return sess.Run(ctx)
	})

	group.Go(func() error {
		defer cancel()

		return host(ctx)
	})

	return group.Wait()
}

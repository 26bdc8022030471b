// Package commands implements CLI command handlers for bstviz.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/pkg/config"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
	"github.com/Sumatoshi-tech/bstviz/pkg/version"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
	flagHTML     = "html"
	flagTheme    = "theme"
	flagNoColor  = "no-color"

	htmlFilePerm = 0o644
)

// ErrInvalidFlag is returned for flag values outside their range.
var ErrInvalidFlag = errors.New("invalid flag")

// AddGlobalFlags registers the flags shared by every subcommand.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String(flagConfig, "", "config file (default is ./bstviz.yaml)")
	root.PersistentFlags().String(flagLogLevel, "", "log level override: debug, info, warn or error")
}

// loadConfig reads the configuration named by --config and applies the
// --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(flagString(cmd, flagConfig))
	if err != nil {
		return nil, err
	}

	if level := flagString(cmd, flagLogLevel); level != "" {
		cfg.Logging.Level = level

		if _, levelErr := cfg.LogLevel(); levelErr != nil {
			return nil, fmt.Errorf("--%s: %w", flagLogLevel, levelErr)
		}
	}

	return cfg, nil
}

func flagString(cmd *cobra.Command, name string) string {
	flag := cmd.Flag(name)
	if flag == nil {
		return ""
	}

	return flag.Value.String()
}

// initObservability builds the providers of a launch mode with logs on w.
func initObservability(ctx context.Context, cfg *config.Config, mode observability.AppMode, w io.Writer) (observability.Providers, error) {
	obsCfg := cfg.Observability(mode, version.Version)
	if mode != observability.ModeServe {
		obsCfg.Prometheus = false
	}

	providers, err := observability.InitWithWriter(ctx, obsCfg, w)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func shutdownObservability(providers observability.Providers) {
	if err := providers.Shutdown(context.Background()); err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func newRecorder(cfg *config.Config) (*recorder.Recorder, error) {
	rec, err := recorder.New(cfg.Recorder.Capacity, cfg.Recorder.Every)
	if err != nil {
		return nil, fmt.Errorf("create recorder: %w", err)
	}

	return rec, nil
}

func viewOptions(cfg *config.Config, theme string) (render.Options, error) {
	opts := render.DefaultOptions()
	opts.NodeRadius = cfg.Layout.NodeRadius

	if theme != "" {
		parsed, err := render.ParseTheme(theme)
		if err != nil {
			return render.Options{}, err
		}

		opts.Theme = parsed
	}

	return opts, nil
}

// writeFile creates path and fills it with write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, htmlFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := write(file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

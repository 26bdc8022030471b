package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bstviz/internal/mcp"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
	"github.com/Sumatoshi-tech/bstviz/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server drives a live tree session and exposes it as tools that AI agents
can discover and invoke:
  - bst_insert: insert a key
  - bst_delete: delete a key
  - bst_search: run the animated search for a key
  - bst_clear:  remove every node
  - bst_state:  read traversals, stats and the status line`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd)
			if err != nil {
				return err
			}

			cfg.Logging.Format = "json"

			if debug {
				cfg.Logging.Level = slog.LevelDebug.String()
				cfg.Telemetry.DebugTrace = true
			}

			providers, err := initObservability(cobraCmd.Context(), cfg, observability.ModeMCP, cobraCmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdownObservability(providers)

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			sess, err := newSession(cfg, providers)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Session: sess,
				Version: version.Version,
				Logger:  providers.Logger,
				Metrics: red,
				Tracer:  providers.Tracer,
			})

			return runUntilDone(cobraCmd.Context(), sess, func(ctx context.Context) error {
				return srv.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

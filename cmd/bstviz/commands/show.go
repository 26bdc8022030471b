package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// NewShowCommand creates the show subcommand.
func NewShowCommand() *cobra.Command {
	var (
		html    string
		theme   string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "show [keys...]",
		Short: "Insert keys, let the layout settle and print the tree",
		Long: `Insert the given keys in order into an empty tree, run the animation
until every node has reached its place and print the tree and its stats.
Without keys the configured seed is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts, err := viewOptions(cfg, theme)
			if err != nil {
				return err
			}

			keys := cfg.Tree.Seed
			if len(args) > 0 {
				keys, err = parseKeys(args)
				if err != nil {
					return err
				}
			}

			ctrl := layout.New(cfg.LayoutParams())
			ctrl.Seed(keys...)
			ctrl.Settle(cfg.TickInterval().Seconds(), cfg.Animation.SettleTicks)

			frame := ctrl.Snapshot()
			out := cmd.OutOrStdout()
			term := render.Terminal{NoColor: noColor}

			if err := term.WriteTree(out, frame); err != nil {
				return fmt.Errorf("write tree: %w", err)
			}

			if err := term.WriteStats(out, frame); err != nil {
				return fmt.Errorf("write stats: %w", err)
			}

			if html == "" {
				return nil
			}

			return writeFile(html, func(w io.Writer) error {
				return render.WriteHTML(w, frame, opts)
			})
		},
	}

	cmd.Flags().StringVar(&html, flagHTML, "", "also write the settled tree to this HTML file")
	cmd.Flags().StringVar(&theme, flagTheme, "", "HTML theme: dark or light")
	cmd.Flags().BoolVar(&noColor, flagNoColor, false, "disable colored output")

	return cmd
}

func parseKeys(args []string) ([]int, error) {
	keys := make([]int, 0, len(args))

	for _, arg := range args {
		key, err := command.ParseKey(arg)
		if err != nil {
			return nil, err
		}

		keys = append(keys, key)
	}

	return keys, nil
}

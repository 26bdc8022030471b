package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
)

const flagSchema = "schema"

// NewValidateCommand creates the validate subcommand.
func NewValidateCommand() *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate [scenario...]",
		Short: "Check scenario files against the scenario schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if printSchema {
				_, err := out.Write(scenario.Schema())

				return err
			}

			if len(args) == 0 {
				return fmt.Errorf("%w: at least one scenario is required", ErrInvalidFlag)
			}

			var failed int

			for _, path := range args {
				sc, err := scenario.Load(path)
				if err != nil {
					failed++

					fmt.Fprintf(out, "%s: %v\n", path, err)

					continue
				}

				fmt.Fprintf(out, "%s: ok (%s, %d steps)\n", path, sc.Name, len(sc.Steps))
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", scenario.ErrInvalidScenario, failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&printSchema, flagSchema, false, "print the JSON schema and exit")

	return cmd
}

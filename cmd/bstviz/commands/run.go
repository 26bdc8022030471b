package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
)

const (
	runCmdUse   = "run <scenario>"
	runCmdShort = "Replay a scenario headlessly and check its expectations"
	flagDT      = "dt"
	flagFrames  = "frames"
)

// RunCommand holds the flags of the run command.
type RunCommand struct {
	html    string
	theme   string
	dt      float64
	frames  int
	noColor bool
}

// NewRunCommand creates the run subcommand.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   runCmdUse,
		Short: runCmdShort,
		Long: `Replay a scenario file on a fresh tree without a window.

Every step applies one command, advances the animation and checks the
step's expectations. The command fails when any expectation is not met.
With --html the recorded frames are written as a storyboard page.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.html, flagHTML, "", "write a storyboard of the replay to this HTML file")
	cmd.Flags().StringVar(&rc.theme, flagTheme, "", "storyboard theme: dark or light")
	cmd.Flags().Float64Var(&rc.dt, flagDT, 0, "tick length in seconds, overriding the scenario")
	cmd.Flags().IntVar(&rc.frames, flagFrames, render.DefaultMaxPanels, "maximum storyboard panels")
	cmd.Flags().BoolVar(&rc.noColor, flagNoColor, false, "disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	if rc.dt < 0 {
		return fmt.Errorf("%w: --%s must not be negative", ErrInvalidFlag, flagDT)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := viewOptions(cfg, rc.theme)
	if err != nil {
		return err
	}

	if rc.frames > 0 {
		opts.MaxPanels = rc.frames
	}

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	providers, err := initObservability(ctx, cfg, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	runnerOpts := []scenario.Option{
		scenario.WithLogger(observability.Component(providers.Logger, "scenario")),
		scenario.WithTracer(providers.Tracer),
		scenario.WithSettleTicks(cfg.Animation.SettleTicks),
		scenario.WithDT(rc.dt),
	}

	var rec *recorder.Recorder

	if rc.html != "" {
		rec, err = newRecorder(cfg)
		if err != nil {
			return err
		}

		runnerOpts = append(runnerOpts, scenario.WithRecorder(rec))
	}

	report, err := scenario.NewRunner(cfg.LayoutParams(), runnerOpts...).Run(ctx, sc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	term := render.Terminal{NoColor: rc.noColor}

	if err := term.WriteReport(out, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if rec != nil {
		if err := rc.writeStoryboard(out, term, rec, sc.Name, opts); err != nil {
			return err
		}
	}

	return report.Err()
}

func (rc *RunCommand) writeStoryboard(out io.Writer, term render.Terminal, rec *recorder.Recorder, name string, opts render.Options) error {
	frames, err := rec.Frames()
	if err != nil {
		return fmt.Errorf("decode recording: %w", err)
	}

	opts.Title = name

	err = writeFile(rc.html, func(w io.Writer) error {
		return render.WriteStoryboard(w, frames, opts)
	})
	if err != nil {
		return err
	}

	return term.WriteRecording(out, rec)
}

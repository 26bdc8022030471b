package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
)

// WriteReport prints one row per scenario step followed by the mismatch
// details and a verdict line.
func (t Terminal) WriteReport(w io.Writer, report *scenario.Report) error {
	pass := t.paint(color.FgGreen)
	fail := t.paint(color.FgRed)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Command", "Status", "Ticks", "Result"})

	for _, step := range report.Steps {
		verdict := pass.Sprint("ok")
		if len(step.Mismatches) > 0 {
			verdict = fail.Sprintf("%d mismatch", len(step.Mismatches))
		}

		do := step.Do
		if do == "" {
			do = "-"
		}

		tbl.AppendRow(table.Row{step.Index, do, step.Status, humanize.Comma(int64(step.Ticks)), verdict})
	}

	tbl.AppendFooter(table.Row{"", "", "total", humanize.Comma(int64(report.Ticks)), ""})
	tbl.Render()

	for _, step := range report.Steps {
		for _, m := range step.Mismatches {
			if _, err := fmt.Fprintf(w, "  step %d %s\n", step.Index, fail.Sprint(m.String())); err != nil {
				return err
			}
		}
	}

	var err error

	if report.Passed() {
		_, err = pass.Fprintf(w, "PASS %s (%d steps)\n", report.Name, len(report.Steps))
	} else {
		_, err = fail.Fprintf(w, "FAIL %s (%d mismatches)\n", report.Name, report.Failures())
	}

	return err
}

// WriteRecording prints the size of a frame recording.
func (t Terminal) WriteRecording(w io.Writer, rec *recorder.Recorder) error {
	_, err := fmt.Fprintf(w, "recorded %s frames in %s (%s dropped)\n",
		humanize.Comma(int64(rec.Len())),
		humanize.Bytes(uint64(rec.Bytes())), //nolint:gosec // sizes are non-negative.
		humanize.Comma(int64(rec.Dropped())),
	)

	return err
}

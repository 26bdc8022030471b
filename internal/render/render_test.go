package render_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func frameOf(keys ...int) layout.Frame {
	ctrl := layout.New(layout.DefaultParams())
	ctrl.Seed(keys...)
	ctrl.Settle(0.1, 1000)

	return ctrl.Snapshot()
}

func TestWriteTreeSideways(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{NoColor: true}.WriteTree(&buf, frameOf(50, 25, 75, 10, 40, 60, 90)))

	want := strings.Join([]string{
		"    ┌── 90",
		"┌── 75",
		"│   └── 60",
		"50",
		"│   ┌── 40",
		"└── 25",
		"    └── 10",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTreePadsLabels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{NoColor: true}.WriteTree(&buf, frameOf(5, 7)))
	assert.Equal(t, "┌── 07\n05\n", buf.String())
}

func TestWriteTreeEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{}.WriteTree(&buf, frameOf()))
	assert.Equal(t, "(empty)\n", buf.String())
}

func TestWriteTreeColorsHighlights(t *testing.T) {
	t.Parallel()

	ctrl := layout.New(layout.DefaultParams())
	ctrl.Seed(50)
	ctrl.Insert(60)

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{}.WriteTree(&buf, ctrl.Snapshot()))
	assert.Contains(t, buf.String(), "\x1b[32m60\x1b[0m")
	assert.Contains(t, buf.String(), "\n50\n")
}

func TestWriteStats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{NoColor: true}.WriteStats(&buf, frameOf(50, 25, 75)))

	out := buf.String()
	assert.Contains(t, out, "In-order")
	assert.Contains(t, out, "25 50 75")
	assert.Contains(t, out, "Pre-order")
	assert.Contains(t, out, "50 25 75")
	assert.Contains(t, out, "Settled")

	buf.Reset()
	require.NoError(t, render.Terminal{NoColor: true}.WriteStats(&buf, frameOf()))
	assert.Contains(t, buf.String(), "(empty)")
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Parse([]byte(`
name: mixed
seed: [2, 1]
steps:
  - do: insert 3
    expect:
      size: 3
  - do: delete 9
    expect:
      inorder: "1 2"
`))
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(context.Background(), sc)
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{NoColor: true}.WriteReport(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "insert 3")
	assert.Contains(t, out, "Not found: 9")
	assert.Contains(t, out, "1 mismatch")
	assert.Contains(t, out, "inorder: 1 2{+ 3+}")
	assert.Contains(t, out, "FAIL mixed (1 mismatches)")
}

func TestWriteRecording(t *testing.T) {
	t.Parallel()

	rec, err := recorder.New(4, 1)
	require.NoError(t, err)
	rec.Record(frameOf(1, 2, 3))

	var buf bytes.Buffer

	require.NoError(t, render.Terminal{}.WriteRecording(&buf, rec))
	assert.Contains(t, buf.String(), "recorded 1 frames")
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	opts := render.DefaultOptions()
	opts.Title = "seven keys"

	require.NoError(t, render.WriteHTML(&buf, frameOf(50, 25, 75, 25), opts))

	out := buf.String()
	assert.Contains(t, out, "<title>seven keys</title>")
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, `"layout":"none"`)
	assert.Contains(t, out, `"50"`)
	assert.Contains(t, out, `25#`, "repeated keys get unique names")
}

func TestWriteStoryboard(t *testing.T) {
	t.Parallel()

	frames := []layout.Frame{frameOf(1), frameOf(1, 2), frameOf(1, 2, 3)}

	var buf bytes.Buffer

	opts := render.DefaultOptions()
	opts.Theme = render.ThemeLight

	require.NoError(t, render.WriteStoryboard(&buf, frames, opts))
	assert.Equal(t, 3, strings.Count(buf.String(), `"layout":"none"`))
}

func TestSample(t *testing.T) {
	t.Parallel()

	frames := make([]layout.Frame, 10)
	for idx := range frames {
		frames[idx].Tick = uint64(idx)
	}

	ticks := func(in []layout.Frame) []uint64 {
		out := make([]uint64, 0, len(in))
		for _, f := range in {
			out = append(out, f.Tick)
		}

		return out
	}

	assert.Equal(t, []uint64{0, 3, 6, 9}, ticks(render.Sample(frames, 4)))
	assert.Equal(t, []uint64{9}, ticks(render.Sample(frames, 1)))
	assert.Len(t, render.Sample(frames, 0), 10)
	assert.Len(t, render.Sample(frames, 20), 10)
}

func TestThemes(t *testing.T) {
	t.Parallel()

	theme, err := render.ParseTheme("light")
	require.NoError(t, err)
	assert.Equal(t, render.ThemeLight, theme)

	_, err = render.ParseTheme("neon")
	require.ErrorIs(t, err, render.ErrUnknownTheme)

	dark := render.GetThemeConfig(render.ThemeDark)
	assert.Equal(t, dark.Inserted, dark.Fill(layout.HighlightInserted))
	assert.Equal(t, dark.Node, dark.Fill(layout.HighlightNone))
	assert.NotEqual(t, dark.Background, render.GetThemeConfig(render.ThemeLight).Background)
}

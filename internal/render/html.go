// Package render draws layout frames as HTML graphs and terminal text.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// ErrUnknownTheme is returned by ParseTheme.
var ErrUnknownTheme = errors.New("unknown theme")

// DefaultMaxPanels caps the number of frames drawn by a storyboard.
const DefaultMaxPanels = 24

const (
	defaultTitle = "bstviz"
	seriesName   = "tree"
	labelSize    = 12
	borderWidth  = 2
)

// Options controls the HTML output.
type Options struct {
	Title  string
	Theme  Theme
	Width  string
	Height string
	// NodeRadius sizes the node symbols.
	NodeRadius float64
	// MaxPanels caps the storyboard length; frames are sampled evenly.
	MaxPanels int
}

// DefaultOptions returns a dark full-width page.
func DefaultOptions() Options {
	return Options{
		Title:      defaultTitle,
		Theme:      ThemeDark,
		Width:      "100%",
		Height:     "600px",
		NodeRadius: layout.DefaultNodeRadius,
		MaxPanels:  DefaultMaxPanels,
	}
}

// Graph builds an echarts graph of one frame. Nodes keep their layout
// coordinates; edges run from each parent to its children.
func Graph(frame layout.Frame, title string, o Options) *charts.Graph {
	theme := GetThemeConfig(o.Theme)
	names := nodeNames(frame.Nodes)

	radius := o.NodeRadius
	if radius <= 0 {
		radius = layout.DefaultNodeRadius
	}

	nodes := make([]opts.GraphNode, 0, len(frame.Nodes))
	links := make([]opts.GraphLink, 0, len(frame.Nodes))

	for _, nv := range frame.Nodes {
		nodes = append(nodes, opts.GraphNode{
			Name:       names[nv.Handle],
			X:          float32(nv.Position.X),
			Y:          float32(nv.Position.Y),
			Value:      float32(nv.Key),
			SymbolSize: 2 * radius,
			ItemStyle: &opts.ItemStyle{
				Color:       theme.Fill(nv.Highlight),
				BorderColor: theme.NodeBorder,
				BorderWidth: borderWidth,
			},
		})

		for _, child := range []*layout.Child{nv.Left, nv.Right} {
			if child != nil {
				links = append(links, opts.GraphLink{Source: names[nv.Handle], Target: names[child.Handle]})
			}
		}
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       o.Title,
			Width:           o.Width,
			Height:          o.Height,
			BackgroundColor: theme.Background,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      frame.Status,
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: theme.Text},
			SubtitleStyle: &opts.TextStyle{Color: theme.TextMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	graph.AddSeries(seriesName, nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout: "none",
			Roam:   opts.Bool(true),
		}),
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Position:  "inside",
			Color:     theme.Text,
			FontSize:  labelSize,
			Formatter: "{b}",
		}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: theme.Edge}),
	)

	return graph
}

// nodeNames labels nodes with their zero-padded key. echarts needs unique
// names, so repeated keys get their handle appended.
func nodeNames(nodes []layout.NodeView) map[bst.Handle]string {
	seen := make(map[string]int, len(nodes))
	for _, nv := range nodes {
		seen[nv.Label]++
	}

	names := make(map[bst.Handle]string, len(nodes))

	for _, nv := range nodes {
		name := nv.Label
		if seen[name] > 1 {
			name += "#" + strconv.FormatUint(uint64(nv.Handle), 10)
		}

		names[nv.Handle] = name
	}

	return names
}

// WriteHTML renders a single frame as a standalone page.
func WriteHTML(w io.Writer, frame layout.Frame, o Options) error {
	page := newPage(o)
	page.AddCharts(Graph(frame, frameTitle(frame), o))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

// WriteStoryboard renders frames as consecutive panels of one page.
func WriteStoryboard(w io.Writer, frames []layout.Frame, o Options) error {
	page := newPage(o)

	for _, frame := range Sample(frames, o.MaxPanels) {
		page.AddCharts(Graph(frame, frameTitle(frame), o))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render storyboard: %w", err)
	}

	return nil
}

func newPage(o Options) *components.Page {
	if o.Title == "" {
		o.Title = defaultTitle
	}

	page := components.NewPage()
	page.PageTitle = o.Title
	page.SetLayout(components.PageFlexLayout)

	return page
}

func frameTitle(frame layout.Frame) string {
	return fmt.Sprintf("tick %d (%.2fs)", frame.Tick, frame.Time)
}

// Sample picks at most n frames spread evenly, always keeping the first and
// the last. A non-positive n keeps every frame.
func Sample(frames []layout.Frame, n int) []layout.Frame {
	if n <= 0 || len(frames) <= n {
		return frames
	}

	if n == 1 {
		return frames[len(frames)-1:]
	}

	out := make([]layout.Frame, 0, n)
	last := len(frames) - 1

	for i := range n {
		out = append(out, frames[i*last/(n-1)])
	}

	return out
}

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

const emptyTree = "(empty)"

// Terminal writes frames as text. Highlighted nodes are colored unless
// NoColor is set.
type Terminal struct {
	NoColor bool
}

func (t Terminal) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if t.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}

	return c
}

func (t Terminal) label(nv layout.NodeView) string {
	switch nv.Highlight {
	case layout.HighlightInserted:
		return t.paint(color.FgGreen).Sprint(nv.Label)
	case layout.HighlightSearched:
		return t.paint(color.FgYellow).Sprint(nv.Label)
	case layout.HighlightDeleted:
		return t.paint(color.FgRed).Sprint(nv.Label)
	case layout.HighlightNone:
		return nv.Label
	default:
		return nv.Label
	}
}

// WriteTree draws the tree sideways: the root on the left, the right subtree
// above it and the left subtree below.
func (t Terminal) WriteTree(w io.Writer, frame layout.Frame) error {
	if len(frame.Nodes) == 0 {
		_, err := fmt.Fprintln(w, emptyTree)

		return err
	}

	byHandle := make(map[bst.Handle]layout.NodeView, len(frame.Nodes))
	for _, nv := range frame.Nodes {
		byHandle[nv.Handle] = nv
	}

	var sb strings.Builder

	t.writeSubtree(&sb, byHandle, frame.Root, "", "")

	_, err := io.WriteString(w, sb.String())

	return err
}

func (t Terminal) writeSubtree(sb *strings.Builder, nodes map[bst.Handle]layout.NodeView, handle bst.Handle, prefix, branch string) {
	nv, ok := nodes[handle]
	if !ok {
		return
	}

	if nv.Right != nil {
		t.writeSubtree(sb, nodes, nv.Right.Handle, prefix+indentFor(branch, true), "┌── ")
	}

	sb.WriteString(prefix + branch + t.label(nv) + "\n")

	if nv.Left != nil {
		t.writeSubtree(sb, nodes, nv.Left.Handle, prefix+indentFor(branch, false), "└── ")
	}
}

// indentFor continues the vertical rule of a branch on the side facing its
// parent.
func indentFor(branch string, above bool) string {
	switch {
	case branch == "":
		return ""
	case branch == "┌── " && !above, branch == "└── " && above:
		return "│   "
	default:
		return "    "
	}
}

// WriteStats prints the read-outs of a frame as a table.
func (t Terminal) WriteStats(w io.Writer, frame layout.Frame) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Stat", "Value"})

	stats := frame.Stats
	minimum, maximum := emptyTree, emptyTree

	if !stats.Empty {
		minimum, maximum = layout.Label(stats.Minimum), layout.Label(stats.Maximum)
	}

	tbl.AppendRows([]table.Row{
		{"Size", humanize.Comma(int64(stats.Size))},
		{"Depth", stats.Depth},
		{"Minimum", minimum},
		{"Maximum", maximum},
		{"Min node depth", stats.MinNodeDepth},
		{"Max node depth", stats.MaxNodeDepth},
		{"In-order", stats.InOrder},
		{"Pre-order", stats.PreOrder},
		{"Post-order", stats.PostOrder},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"Status", frame.Status},
		{"Search", frame.Search.State.String()},
		{"Ticks", humanize.Comma(int64(frame.Tick))}, //nolint:gosec // tick counts stay far below MaxInt64.
		{"Time", humanize.FormatFloat("#,###.##", frame.Time) + "s"},
		{"Settled", frame.Settled},
	})

	tbl.Render()

	return nil
}

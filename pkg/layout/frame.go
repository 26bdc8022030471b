package layout

import (
	"errors"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
)

// Child is the end of an edge drawn from a node.
type Child struct {
	Handle   bst.Handle `json:"handle"`
	Position Vec2       `json:"position"`
}

// NodeView is the read-only render state of one node.
type NodeView struct {
	Handle        bst.Handle `json:"handle"`
	Parent        bst.Handle `json:"parent"`
	Key           int        `json:"key"`
	Label         string     `json:"label"`
	Level         int        `json:"level"`
	Position      Vec2       `json:"position"`
	Target        Vec2       `json:"target"`
	Repositioning bool       `json:"repositioning"`
	Highlight     Highlight  `json:"highlight"`
	Left          *Child     `json:"left,omitempty"`
	Right         *Child     `json:"right,omitempty"`
}

// SearchView describes the animated search.
type SearchView struct {
	State  SearchState `json:"state"`
	Target int         `json:"target"`
	Steps  int         `json:"steps"`
}

// Stats holds the textual read-outs shown next to the tree.
type Stats struct {
	Size         int    `json:"size"`
	Depth        int    `json:"depth"`
	Empty        bool   `json:"empty"`
	Minimum      int    `json:"minimum"`
	Maximum      int    `json:"maximum"`
	MinNodeDepth int    `json:"min_node_depth"`
	MaxNodeDepth int    `json:"max_node_depth"`
	InOrder      string `json:"inorder"`
	PreOrder     string `json:"preorder"`
	PostOrder    string `json:"postorder"`
}

// Frame is a snapshot of the controller after a tick. It shares no memory
// with the controller.
type Frame struct {
	Tick    uint64     `json:"tick"`
	Time    float64    `json:"time"`
	Root    bst.Handle `json:"root"`
	Nodes   []NodeView `json:"nodes"`
	Search  SearchView `json:"search"`
	Status  string     `json:"status"`
	Camera  Camera     `json:"camera"`
	Stats   Stats      `json:"stats"`
	Settled bool       `json:"settled"`
}

// Node returns the view of the node with the given handle.
func (f Frame) Node(handle bst.Handle) (NodeView, bool) {
	for _, nv := range f.Nodes {
		if nv.Handle == handle {
			return nv, true
		}
	}

	return NodeView{}, false
}

// Stats computes the read-outs of the current tree.
func (c *Controller) Stats() Stats {
	stats := Stats{
		Size:         c.tree.Len(),
		Depth:        c.tree.Depth(),
		MinNodeDepth: c.tree.MinimumNodeDepth(),
		MaxNodeDepth: c.tree.MaximumNodeDepth(),
		InOrder:      c.InOrder(),
		PreOrder:     c.PreOrder(),
		PostOrder:    c.PostOrder(),
	}

	minimum, err := c.tree.Minimum()
	if errors.Is(err, bst.ErrEmptyTree) {
		stats.Empty = true

		return stats
	}

	maximum, _ := c.tree.Maximum()
	stats.Minimum, stats.Maximum = minimum, maximum

	return stats
}

// Snapshot copies the render state of every node, in key order.
func (c *Controller) Snapshot() Frame {
	frame := Frame{
		Tick:    c.ticks,
		Time:    c.clock,
		Root:    c.tree.Root(),
		Nodes:   make([]NodeView, 0, c.tree.Len()),
		Search:  SearchView{State: c.search.state, Target: c.search.target, Steps: c.search.steps},
		Status:  c.status,
		Camera:  c.camera,
		Stats:   c.Stats(),
		Settled: true,
	}

	for handle, item := range c.tree.All() {
		vis := item.Value
		nv := NodeView{
			Handle:        handle,
			Parent:        c.tree.Parent(handle),
			Key:           item.Key,
			Label:         Label(item.Key),
			Level:         c.tree.DepthOf(handle),
			Position:      vis.Position,
			Target:        vis.Target,
			Repositioning: vis.Repositioning,
			Highlight:     vis.Highlight,
			Left:          c.child(c.tree.Left(handle)),
			Right:         c.child(c.tree.Right(handle)),
		}

		if nv.Repositioning {
			frame.Settled = false
		}

		frame.Nodes = append(frame.Nodes, nv)
	}

	return frame
}

func (c *Controller) child(handle bst.Handle) *Child {
	if handle == bst.Nil {
		return nil
	}

	return &Child{Handle: handle, Position: c.tree.Item(handle).Value.Position}
}

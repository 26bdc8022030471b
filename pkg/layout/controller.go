// Package layout drives a binary search tree for display: it places every
// node from the tree shape, animates nodes towards their places one tick at a
// time and runs the step-by-step search animation.
//
// A Controller is not safe for concurrent use. Hosts that receive commands on
// several goroutines must funnel them to the goroutine that calls Tick.
package layout

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
)

// Status texts.
const (
	StatusCleared = "Tree cleared"

	statusInserted  = "Inserted: "
	statusRemoved   = "Removed: "
	statusNotFound  = "Not found: "
	statusSearching = "Searching: "
	statusFound     = "Found: "
)

// Controller owns a tree of integer keys and its animated layout.
type Controller struct {
	params Params
	tree   *bst.Tree[int, Visual]
	anchor Vec2
	search searchMachine
	camera Camera
	status string
	ticks  uint64
	clock  float64
}

// New creates a controller with an empty tree. It panics on invalid params;
// call Params.Validate first when they come from user input.
func New(params Params) *Controller {
	if err := params.Validate(); err != nil {
		panic(err)
	}

	return &Controller{
		params: params,
		tree:   bst.New[int, Visual](),
		anchor: params.Anchor,
		camera: Camera{Center: params.Anchor, Size: params.InitialViewSize},
	}
}

// Params returns the geometry the controller was created with.
func (c *Controller) Params() Params {
	return c.params
}

// Insert adds key to the tree. The optional position is used only when the
// tree is empty: it places the root and becomes the layout anchor. Other
// nodes start next to their parent and slide to their place.
func (c *Controller) Insert(key int, position ...Vec2) bst.Handle {
	handle := c.insert(key, position...)

	vis := &c.tree.Item(handle).Value
	vis.Highlight = HighlightInserted
	vis.highlightTTL = c.params.HighlightDecay.Seconds()
	c.status = statusInserted + strconv.Itoa(key)

	return handle
}

// Seed inserts keys without tagging them or touching the status line.
func (c *Controller) Seed(keys ...int) {
	for _, key := range keys {
		c.insert(key)
	}
}

func (c *Controller) insert(key int, position ...Vec2) bst.Handle {
	if c.tree.Len() == 0 {
		if len(position) > 0 {
			c.anchor = position[0]
		}

		return c.tree.Insert(key, Visual{Position: c.anchor, Target: c.anchor})
	}

	multiplier := c.tree.Depth()
	handle := c.tree.Insert(key, Visual{})

	parent := c.tree.Parent(handle)
	offset := c.params.offset(multiplier - c.tree.DepthOf(parent))

	if c.tree.Left(parent) == handle {
		offset = -offset
	}

	start := c.tree.Item(parent).Value.Position.Add(Vec2{X: offset, Y: c.params.VerticalSpacing})
	vis := &c.tree.Item(handle).Value
	vis.Position = start
	vis.Target = start

	return handle
}

// Remove deletes one node holding key and reports whether it existed. When
// the node had two children it stays in place and takes over the key and
// position of its in-order successor. Any running search is cancelled.
func (c *Controller) Remove(key int) bool {
	handle, found := c.tree.Find(key)
	if !found {
		c.status = statusNotFound + strconv.Itoa(key)

		return false
	}

	c.resetSearch()

	if survivor := c.tree.RemoveAt(handle); survivor != bst.Nil {
		vis := &c.tree.Item(survivor).Value
		vis.Highlight = HighlightDeleted
		vis.highlightTTL = c.params.HighlightDecay.Seconds()
	}

	c.status = statusRemoved + strconv.Itoa(key)

	return true
}

// Clear releases every node and cancels any running search.
func (c *Controller) Clear() {
	c.resetSearch()
	c.tree.Clear()
	c.anchor = c.params.Anchor
	c.status = StatusCleared
}

// Tick advances the controller by dt seconds: at most one search comparison,
// a fresh layout pass, one motion step per node and the camera. It returns
// the current status line.
func (c *Controller) Tick(dt float64) string {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	c.ticks++
	c.clock += dt

	c.decayHighlights(dt)
	c.stepSearch(dt)
	c.relayout()
	c.move(dt)
	c.updateCamera(dt)

	return c.status
}

// Status returns the last status line.
func (c *Controller) Status() string {
	return c.status
}

// SetStatus replaces the status line. Hosts use it for boundary messages.
func (c *Controller) SetStatus(status string) {
	c.status = status
}

// Size returns the number of nodes.
func (c *Controller) Size() int {
	return c.tree.Len()
}

// Depth returns the number of levels, 0 for an empty tree.
func (c *Controller) Depth() int {
	return c.tree.Depth()
}

// Minimum returns the smallest key or bst.ErrEmptyTree.
func (c *Controller) Minimum() (int, error) {
	return c.tree.Minimum()
}

// Maximum returns the largest key or bst.ErrEmptyTree.
func (c *Controller) Maximum() (int, error) {
	return c.tree.Maximum()
}

// Contains reports whether key is present.
func (c *Controller) Contains(key int) bool {
	return c.tree.Contains(key)
}

// InOrder returns the keys in sorted order, space separated.
func (c *Controller) InOrder() string {
	return joinKeys(c.tree.InOrder())
}

// PreOrder returns the keys in pre-order, space separated.
func (c *Controller) PreOrder() string {
	return joinKeys(c.tree.PreOrder())
}

// PostOrder returns the keys in post-order, space separated.
func (c *Controller) PostOrder() string {
	return joinKeys(c.tree.PostOrder())
}

// Settled reports whether no node was left moving by the last tick.
func (c *Controller) Settled() bool {
	for _, item := range c.tree.All() {
		if item.Value.Repositioning {
			return false
		}
	}

	return true
}

// Quiet reports whether the display has come to rest: every node is in place,
// no search is running and no insert or delete tag is still fading.
func (c *Controller) Quiet() bool {
	if c.search.state != SearchIdle || !c.Settled() {
		return false
	}

	for _, item := range c.tree.All() {
		if item.Value.fading() {
			return false
		}
	}

	return true
}

// Settle ticks with a fixed dt until the controller is Quiet or maxTicks is
// reached. It ticks at least once and returns the number of ticks spent.
func (c *Controller) Settle(dt float64, maxTicks int) int {
	for spent := 1; spent <= maxTicks; spent++ {
		c.Tick(dt)

		if c.Quiet() {
			return spent
		}
	}

	return maxTicks
}

// Check verifies the tree invariants.
func (c *Controller) Check() error {
	if err := c.tree.Check(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	return nil
}

func (c *Controller) decayHighlights(dt float64) {
	for _, item := range c.tree.All() {
		vis := &item.Value
		if !vis.fading() {
			continue
		}

		vis.highlightTTL -= dt
		if vis.highlightTTL <= 0 {
			vis.Highlight = HighlightNone
			vis.highlightTTL = 0
		}
	}
}

// relayout recomputes every target top-down from the current shape. The root
// is pinned to the anchor; each child hangs off its parent's target.
func (c *Controller) relayout() {
	root := c.tree.Root()
	if root == bst.Nil {
		return
	}

	c.retarget(root, c.anchor)
	c.place(root, c.tree.Depth())
}

func (c *Controller) place(handle bst.Handle, multiplier int) {
	origin := c.tree.Item(handle).Value.Target
	offset := c.params.offset(multiplier)

	if left := c.tree.Left(handle); left != bst.Nil {
		c.retarget(left, origin.Add(Vec2{X: -offset, Y: c.params.VerticalSpacing}))
		c.place(left, multiplier-1)
	}

	if right := c.tree.Right(handle); right != bst.Nil {
		c.retarget(right, origin.Add(Vec2{X: offset, Y: c.params.VerticalSpacing}))
		c.place(right, multiplier-1)
	}
}

func (c *Controller) retarget(handle bst.Handle, target Vec2) {
	vis := &c.tree.Item(handle).Value
	vis.Target = target
	vis.Repositioning = vis.Position.Dist(target) > c.params.Epsilon
}

func (c *Controller) move(dt float64) {
	step := c.params.MoveSpeed * dt

	for _, item := range c.tree.All() {
		vis := &item.Value
		if !vis.Repositioning {
			continue
		}

		var arrived bool

		vis.Position, arrived = chase(vis.Position, vis.Target, step)
		if arrived || vis.Position.Dist(vis.Target) <= c.params.Epsilon {
			vis.Repositioning = false
		}
	}
}

func joinKeys(seq iter.Seq[int]) string {
	var sb strings.Builder

	for key := range seq {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(strconv.Itoa(key))
	}

	return sb.String()
}

// Label renders a key the way nodes display it: zero-padded to two digits.
func Label(key int) string {
	return fmt.Sprintf("%02d", key)
}

package layout

import "github.com/Sumatoshi-tech/bstviz/pkg/bst"

// Camera is the square view window that follows the tree.
type Camera struct {
	Center Vec2    `json:"center"`
	Size   float64 `json:"size"`
}

// Extent returns the width and height of the area the layout may cover for a
// tree of the given depth.
func (p Params) Extent(depth int) (float64, float64) {
	var width float64

	for level := depth; level >= 1; level-- {
		width += p.offset(level)
	}

	return 2 * width, float64(depth) * p.VerticalSpacing
}

// Camera returns the current view.
func (c *Controller) Camera() Camera {
	return c.camera
}

// updateCamera chases the root at node speed and eases the size towards the
// extent of the tree.
func (c *Controller) updateCamera(dt float64) {
	if root := c.tree.Root(); root != bst.Nil {
		target := c.tree.Item(root).Value.Position
		if c.camera.Center.Dist(target) > c.params.Epsilon {
			c.camera.Center, _ = chase(c.camera.Center, target, c.params.MoveSpeed*dt)
		}
	}

	width, height := c.params.Extent(c.tree.Depth())
	wanted := max(width, height) + c.params.CameraMargin
	c.camera.Size += (wanted - c.camera.Size) * min(dt, 1)
}

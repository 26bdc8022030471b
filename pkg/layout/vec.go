package layout

import "math"

// Vec2 is a point or a direction in layout space. Y grows downwards.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * factor.
func (v Vec2) Scale(factor float64) Vec2 {
	return Vec2{X: v.X * factor, Y: v.Y * factor}
}

// Len returns the euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	return o.Sub(v).Len()
}

// chase moves from towards to by at most step and reports whether it arrived.
func chase(from, to Vec2, step float64) (Vec2, bool) {
	dir := to.Sub(from)

	dist := dir.Len()
	if step >= dist {
		return to, true
	}

	return from.Add(dir.Scale(step / dist)), false
}

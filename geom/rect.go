package geom

import "math"

// Rect is an axis-aligned rectangle described by its edges. Nothing requires
// L <= R or B <= T; Canonicalize restores that ordering.
type Rect struct {
	T, R, B, L float64
}

// W returns the width of r.
func (r Rect) W() float64 {
	return math.Abs(r.R - r.L)
}

// H returns the height of r.
func (r Rect) H() float64 {
	return math.Abs(r.T - r.B)
}

// LB returns the left-bottom corner.
func (r Rect) LB() Point {
	return Point{X: r.L, Y: r.B}
}

// RT returns the right-top corner.
func (r Rect) RT() Point {
	return Point{X: r.R, Y: r.T}
}

// Degenerate reports whether r has no area. Degenerate rectangles cannot be
// the source of a Transform.
func (r Rect) Degenerate() bool {
	return r.W() == 0 || r.H() == 0
}

// Mul maps r through m by transforming its two corners.
func (r Rect) Mul(m Mat2x3) Rect {
	lb := r.LB().Mul(m)
	rt := r.RT().Mul(m)
	return Rect{L: lb.X, B: lb.Y, R: rt.X, T: rt.Y}
}

// Canonicalize returns r with L <= R and B <= T.
func (r Rect) Canonicalize() Rect {
	if r.L > r.R {
		r.L, r.R = r.R, r.L
	}
	if r.B > r.T {
		r.B, r.T = r.T, r.B
	}
	return r
}

// Contains reports whether p lies within the canonical form of r, edges
// included.
func (r Rect) Contains(p Point) bool {
	c := r.Canonicalize()
	return p.X >= c.L && p.X <= c.R && p.Y >= c.B && p.Y <= c.T
}

// Inset shrinks r by the per-edge distances in margin.
func (r Rect) Inset(margin Rect) Rect {
	return Rect{
		T: r.T - margin.T,
		R: r.R - margin.R,
		B: r.B + margin.B,
		L: r.L + margin.L,
	}
}

// LerpRect interpolates every edge of a toward b independently.
func LerpRect(f float64, a, b Rect) Rect {
	return Rect{
		T: Lerp(f, a.T, b.T),
		R: Lerp(f, a.R, b.R),
		B: Lerp(f, a.B, b.B),
		L: Lerp(f, a.L, b.L),
	}
}

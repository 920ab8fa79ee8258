package geom

import "fmt"

// Mat2x3 is a 2D affine transform applied as a row vector, [x y 1]·M:
//
//	╭     ╮
//	│ A D │
//	│ B E │
//	│ C F │
//	╰     ╯
//
// so x' = A·x + B·y + C and y' = D·x + E·y + F.
type Mat2x3 struct {
	A, B, C float64
	D, E, F float64
}

// Identity leaves points unchanged.
var Identity = Mat2x3{A: 1, E: 1}

// Offset returns a translation by (x, y).
func Offset(x, y float64) Mat2x3 {
	return Mat2x3{A: 1, C: x, E: 1, F: y}
}

// Scale returns a scale by (x, y) about the origin.
func Scale(x, y float64) Mat2x3 {
	return Mat2x3{A: x, E: y}
}

// Offset returns m followed by a translation by (x, y).
func (m Mat2x3) Offset(x, y float64) Mat2x3 {
	return m.Mul(Offset(x, y))
}

// Scale returns m followed by a scale by (x, y).
func (m Mat2x3) Scale(x, y float64) Mat2x3 {
	return m.Mul(Scale(x, y))
}

// Mul composes m with n. The result applies m first, then n. Composition is
// not commutative.
func (m Mat2x3) Mul(n Mat2x3) Mat2x3 {
	//  ╭           ╮ ╭           ╮
	//  │ m.A m.D 0 │ │ n.A n.D 0 │
	//  │ m.B m.E 0 │ │ n.B n.E 0 │
	//  │ m.C m.F 1 │ │ n.C n.F 1 │
	//  ╰           ╯ ╰           ╯
	return Mat2x3{
		A: m.A*n.A + m.D*n.B,
		B: m.B*n.A + m.E*n.B,
		C: m.C*n.A + m.F*n.B + n.C,
		D: m.A*n.D + m.D*n.E,
		E: m.B*n.D + m.E*n.E,
		F: m.C*n.D + m.F*n.E + n.F,
	}
}

// MulX transforms an x coordinate, ignoring any contribution from y. It is
// only meaningful for transforms without rotation or shear.
func (m Mat2x3) MulX(x float64) float64 {
	return x*m.A + m.C
}

// MulY transforms a y coordinate, ignoring any contribution from x.
func (m Mat2x3) MulY(y float64) float64 {
	return y*m.E + m.F
}

// Apply transforms p by the full matrix.
func (m Mat2x3) Apply(p Point) Point {
	return Point{
		X: p.X*m.A + p.Y*m.B + m.C,
		Y: p.X*m.D + p.Y*m.E + m.F,
	}
}

func (m Mat2x3) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g]", m.A, m.B, m.C, m.D, m.E, m.F)
}

// Transform returns the mapping of rectangle a onto rectangle b, edge to
// edge, so a.LB lands on b.LB even when one of them is flipped. a must not be
// degenerate.
func Transform(a, b Rect) Mat2x3 {
	return Offset(-a.L, -a.B).
		Scale((b.R-b.L)/(a.R-a.L), (b.T-b.B)/(a.T-a.B)).
		Offset(b.L, b.B)
}

// Point is a position in some coordinate space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Mul maps p through m axis by axis.
func (p Point) Mul(m Mat2x3) Point {
	return Point{X: m.MulX(p.X), Y: m.MulY(p.Y)}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// SquareDistance returns the squared euclidean distance between a and b.
func SquareDistance(a, b Point) float64 {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y
}

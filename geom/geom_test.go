package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func TestTransformRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b Rect
	}{
		{
			name: "unit to canvas",
			a:    Rect{T: 1, R: 1, B: 0, L: 0},
			b:    Rect{T: 600, R: 800, B: 0, L: 0},
		},
		{
			name: "offset chart to sample window",
			a:    Rect{T: 580, R: 700, B: 300, L: 200},
			b:    Rect{T: 5, R: 3, B: 0, L: 0},
		},
		{
			name: "negative sample space",
			a:    Rect{T: -1, R: 12.5, B: -40, L: 0.25},
			b:    Rect{T: 1000, R: 1024, B: 24, L: 16},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ab := Transform(tc.a, tc.b)
			ba := Transform(tc.b, tc.a)
			round := ab.Mul(ba)
			for _, p := range []Point{
				tc.a.LB(),
				tc.a.RT(),
				{X: tc.a.L + tc.a.W()/3, Y: tc.a.B + tc.a.H()/7},
			} {
				got := p.Mul(round)
				assert.InDelta(t, p.X, got.X, epsilon)
				assert.InDelta(t, p.Y, got.Y, epsilon)
				full := round.Apply(p)
				assert.InDelta(t, p.X, full.X, epsilon)
				assert.InDelta(t, p.Y, full.Y, epsilon)
			}
			mapped := tc.a.Mul(ab)
			assert.InDelta(t, tc.b.L, mapped.L, epsilon)
			assert.InDelta(t, tc.b.R, mapped.R, epsilon)
			assert.InDelta(t, tc.b.B, mapped.B, epsilon)
			assert.InDelta(t, tc.b.T, mapped.T, epsilon)
		})
	}
}

func TestMulOrder(t *testing.T) {
	// Translating then scaling differs from scaling then translating.
	ts := Offset(1, 0).Scale(2, 1)
	st := Scale(2, 1).Offset(1, 0)
	assert.Equal(t, 4.0, ts.MulX(1))
	assert.Equal(t, 3.0, st.MulX(1))
	assert.Equal(t, Identity, Identity.Mul(Identity))
}

func TestRectCanonicalize(t *testing.T) {
	r := Rect{T: 1, R: 2, B: 5, L: 9}.Canonicalize()
	assert.Equal(t, Rect{T: 5, R: 9, B: 1, L: 2}, r)
	assert.Equal(t, 7.0, r.W())
	assert.Equal(t, 4.0, r.H())
	assert.True(t, r.Contains(Pt(2, 1)))
	assert.False(t, r.Contains(Pt(1.5, 3)))
}

func TestRectDegenerate(t *testing.T) {
	assert.True(t, Rect{T: 1, R: 3, B: 1, L: 0}.Degenerate())
	assert.True(t, Rect{}.Degenerate())
	assert.False(t, Rect{T: 1, R: 1}.Degenerate())
}

func TestInset(t *testing.T) {
	canvas := Rect{T: 600, R: 800}
	chart := canvas.Inset(Rect{T: 20, R: 100, B: 300, L: 200})
	assert.Equal(t, Rect{T: 580, R: 700, B: 300, L: 200}, chart)
}

func TestSmootherstep(t *testing.T) {
	assert.Equal(t, 0.0, Smootherstep(0.0))
	assert.Equal(t, 1.0, Smootherstep(1.0))
	assert.InDelta(t, 0.5, Smootherstep(0.5), epsilon)
	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := Smootherstep(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestScalarHelpers(t *testing.T) {
	assert.Equal(t, 5.0, Lerp(0.5, 0.0, 10.0))
	assert.Equal(t, 0.25, InvLerp(2.5, 0.0, 10.0))
	assert.Equal(t, 3, Clamp(7, 0, 3))
	assert.Equal(t, 0.0, Saturate(-2.0))
	assert.Equal(t, 150.0, RoundUp(101, 50))
	assert.Equal(t, 15.0, Remap(0.5, 0.0, 1.0, 10.0, 20.0))
	assert.InDelta(t, 50.0, SquareDistance(Pt(0, 0), Pt(5, 5)), epsilon)
}

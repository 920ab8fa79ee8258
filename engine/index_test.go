package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

type pt struct {
	x, y float64
}

var ptAdapter = Adapter[pt]{
	X:          func(p pt) float64 { return p.x },
	Y:          func(p pt) float64 { return p.y },
	XAxisLabel: func(x float64) string { return "x" },
	YAxisLabel: func(y float64) string { return "y" },
	Tooltip:    func(p pt, d *Dataset[pt]) string { return "<b>" + d.Label + "</b>" },
}

func series(label string, ys ...float64) Dataset[pt] {
	d := Dataset[pt]{Label: label, Color: Color{R: 1, A: 1}}
	for i, y := range ys {
		d.Samples = append(d.Samples, pt{x: float64(i), y: y})
	}
	return d
}

func TestBuildIndexAlignsDatasets(t *testing.T) {
	a := Dataset[pt]{Label: "a", Samples: []pt{{x: 30, y: 3}, {x: 10, y: 1}, {x: 20, y: 2}}}
	b := Dataset[pt]{Label: "b", Samples: []pt{{x: 25, y: -4}, {x: 10, y: 7}, {x: 40, y: math.NaN()}}}

	idx := buildIndex([]Dataset[pt]{a, b}, ptAdapter)

	assert.Equal(t, []float64{10, 20, 25, 30, 40}, idx.xValues)
	for i := 1; i < len(idx.xValues); i++ {
		assert.Less(t, idx.xValues[i-1], idx.xValues[i])
	}
	assert.Equal(t, []int{1, 2, -1, 0, -1}, idx.sampleXToIdx[0])
	assert.Equal(t, []int{1, -1, 0, -1, 2}, idx.sampleXToIdx[1])

	assert.Equal(t, 7.0, idx.yValues[1][0])
	assert.True(t, math.IsNaN(idx.yValues[0][2]), "absent sample")
	assert.True(t, math.IsNaN(idx.yValues[1][4]), "NaN sample")
	assert.Equal(t, -4.0, idx.minY)
	assert.Equal(t, 7.0, idx.maxY)

	_, ok := idx.sample(1, 4)
	assert.False(t, ok, "missing values are not samples")
	i, ok := idx.sample(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = idx.sample(0, 99)
	assert.False(t, ok)
}

func TestBuildIndexEmpty(t *testing.T) {
	for _, tc := range []struct {
		name     string
		datasets []Dataset[pt]
	}{
		{name: "no datasets"},
		{name: "no samples", datasets: []Dataset[pt]{{Label: "a"}, {Label: "b"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx := buildIndex(tc.datasets, ptAdapter)
			assert.Zero(t, idx.numX())
			assert.Len(t, idx.yValues, len(tc.datasets))
			assert.Equal(t, geom.Rect{L: 0, R: 0, B: 0, T: 1}, idx.sampleBounds())
		})
	}
}

func TestSampleBounds(t *testing.T) {
	for _, tc := range []struct {
		name string
		ys   []float64
		want geom.Rect
	}{
		{name: "positive values start at zero", ys: []float64{1, 5, 3}, want: geom.Rect{L: 0, R: 3, B: 0, T: 5}},
		{name: "negative values extend down", ys: []float64{-2, 5, 3}, want: geom.Rect{L: 0, R: 3, B: -2, T: 5}},
		{name: "all negative values end at zero", ys: []float64{-2, -5, -3}, want: geom.Rect{L: 0, R: 3, B: -5, T: 0}},
		{name: "all zero", ys: []float64{0, 0}, want: geom.Rect{L: 0, R: 2, B: 0, T: 1}},
		{name: "nothing finite", ys: []float64{math.NaN(), math.Inf(1)}, want: geom.Rect{L: 0, R: 2, B: 0, T: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx := buildIndex([]Dataset[pt]{series("s", tc.ys...)}, ptAdapter)
			assert.Equal(t, tc.want, idx.sampleBounds())
		})
	}
}

func TestEncodeSamples(t *testing.T) {
	out := encodeSamples([]float64{1.5, math.NaN(), -3})
	require.Len(t, out, 3)
	assert.Equal(t, float32(1.5), out[0])
	assert.Equal(t, gpu.NoValue, out[1])
	assert.Equal(t, float32(-3), out[2])
	assert.Greater(t, out[2], gpu.NoValue)
}

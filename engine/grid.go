package engine

import (
	"math"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// gridTarget is the preferred distance between major gridlines, in pixels.
const gridTarget = 50

// Quantize rounds v up to a multiple of half the power of ten below it,
// giving steps like 1, 1.5, 5, 10, 50, 100, 500.
func Quantize(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 0) {
		return v
	}
	exp := math.Log10(v)
	if r := math.Round(exp); math.Abs(exp-r) < 1e-9 {
		exp = r
	}
	multiple := math.Pow(10, math.Ceil(exp)-1) * 0.5
	return geom.RoundUp(v, multiple)
}

// grid holds gridline spacing in chart pixels.
type grid struct {
	majorX, majorY float64
	minorX, minorY float64
}

// gridSpacing returns the pixel distance between major gridlines along an
// axis chartSize pixels long showing windowSize sample units.
func gridSpacing(chartSize, windowSize float64) float64 {
	if windowSize == 0 {
		windowSize = 1
	}
	major := (chartSize / windowSize) * Quantize(windowSize/chartSize*gridTarget)
	if !(major > 0) || math.IsInf(major, 0) {
		return chartSize
	}
	return major
}

func computeGrid(v Viewport) grid {
	g := grid{
		majorX: gridSpacing(v.ChartBounds.W(), v.SampleWindow.W()),
		majorY: gridSpacing(v.ChartBounds.H(), v.SampleWindow.H()),
	}
	g.minorX = g.majorX / 2
	g.minorY = g.majorY / 2
	return g
}

func (g grid) info() gpu.GridInfo {
	return gpu.GridInfo{
		Major: [2]float32{float32(g.majorX), float32(g.majorY)},
		Minor: [2]float32{float32(g.minorX), float32(g.minorY)},
	}
}

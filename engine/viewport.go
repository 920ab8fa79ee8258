package engine

import (
	"errors"
	"image"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// ErrNoData is the panic value when the viewport is recomputed before any
// data has been loaded.
var ErrNoData = errors.New("engine: viewport recomputed before data was loaded")

// Viewport relates the chart's coordinate spaces:
//
//   - canvas: device pixels of the whole surface, origin bottom-left
//   - chart: canvas pixels relative to the bottom-left of ChartBounds
//   - sample: x is the sample x, y is the data value
//   - NDC: the rasterizer's [-1,1] square
type Viewport struct {
	// ChartBounds is the plotting area in canvas space.
	ChartBounds geom.Rect
	// SampleBounds is the extent of all data in sample space.
	SampleBounds geom.Rect
	// SampleWindow is the part of sample space shown in ChartBounds.
	SampleWindow geom.Rect

	CanvasToSample geom.Mat2x3
	SampleToCanvas geom.Mat2x3
	ChartToSample  geom.Mat2x3
	SampleToChart  geom.Mat2x3
	ChartToNDC     geom.Mat2x3
}

// widen grows a zero-width or zero-height window to one unit about its
// center so it can be mapped.
func widen(r geom.Rect) geom.Rect {
	if r.R == r.L {
		r.L, r.R = r.L-0.5, r.R+0.5
	}
	if r.T == r.B {
		r.B, r.T = r.B-0.5, r.T+0.5
	}
	return r
}

// computeViewport derives every transform for a canvas of the given size.
// The chart area is at least one pixel in each direction.
func computeViewport(canvas image.Point, margin, sampleBounds, sampleWindow geom.Rect) Viewport {
	canvasBounds := geom.Rect{R: float64(canvas.X), T: float64(canvas.Y)}
	chart := canvasBounds.Inset(margin)
	chart.R = max(chart.R, chart.L+1)
	chart.T = max(chart.T, chart.B+1)
	local := geom.Rect{R: chart.R - chart.L, T: chart.T - chart.B}
	window := widen(sampleWindow)

	return Viewport{
		ChartBounds:    chart,
		SampleBounds:   sampleBounds,
		SampleWindow:   sampleWindow,
		CanvasToSample: geom.Transform(chart, window),
		SampleToCanvas: geom.Transform(window, chart),
		ChartToSample:  geom.Transform(local, window),
		SampleToChart:  geom.Transform(window, local),
		ChartToNDC: geom.Offset(chart.L, chart.B).
			Scale(2/max(canvasBounds.W(), 1), 2/max(canvasBounds.H(), 1)).
			Offset(-1, -1),
	}
}

// view packs v for the view uniform.
func (v Viewport) view(highlightX, highlightDataset int) gpu.View {
	c := v.ChartBounds
	return gpu.View{
		ChartBounds:           [4]float32{float32(c.L), float32(c.B), float32(c.W()), float32(c.H())},
		SampleToChart:         gpu.PackMat2x3(v.SampleToChart),
		ChartToSample:         gpu.PackMat2x3(v.ChartToSample),
		ChartToNDC:            gpu.PackMat2x3(v.ChartToNDC),
		HighlightedSampleX:    uint32(int32(highlightX)),
		HighlightedDatasetIdx: uint32(int32(highlightDataset)),
	}
}

package soft

import (
	"image/color"

	"github.com/chewxy/math32"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// raster shades fragments into a premultiplied float target whose rows run
// bottom to top, so canvas space maps directly onto it.
type raster struct {
	width, height int
	pix           []float32
}

func (r *raster) clear(c color.NRGBA) {
	a := float32(c.A) / 255
	v := [4]float32{
		float32(c.R) / 255 * a,
		float32(c.G) / 255 * a,
		float32(c.B) / 255 * a,
		a,
	}
	for i := 0; i < len(r.pix); i += 4 {
		copy(r.pix[i:i+4], v[:])
	}
}

// blend composites src over the pixel with one, one-minus-src-alpha
// factors.
func (r *raster) blend(x, y int, src [4]float32) {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return
	}
	dst := r.pix[(y*r.width+x)*4:]
	inv := 1 - src[3]
	for c := 0; c < 4; c++ {
		dst[c] = src[c] + dst[c]*inv
	}
}

// span returns the pixels whose centers lie in [lo, hi), limited to [0, n).
func span(lo, hi float32, n int) (int, int) {
	if math32.IsNaN(lo) || math32.IsNaN(hi) {
		return 0, 0
	}
	limit := float32(n) + 1
	lo = math32.Min(math32.Max(lo, -1), limit)
	hi = math32.Min(math32.Max(hi, -1), limit)
	from := int(math32.Ceil(lo - 0.5))
	to := int(math32.Ceil(hi - 0.5))
	return max(from, 0), min(to, n)
}

func smoothstep(low, high, x float32) float32 {
	t := saturate((x - low) / (high - low))
	return t * t * (3 - 2*t)
}

func saturate(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func inChart(view gpu.View, x, y float32) bool {
	return x >= 0 && y >= 0 && x <= view.ChartBounds[2] && y <= view.ChartBounds[3]
}

func (r *raster) drawGrid(grid gpu.GridInfo, view gpu.View) {
	left, bottom := view.ChartBounds[0], view.ChartBounds[1]
	x0, x1 := span(left, left+view.ChartBounds[2], r.width)
	y0, y1 := span(bottom, bottom+view.ChartBounds[3], r.height)
	isGridLine := func(cell [2]float32, px, py, nx, ny float32) bool {
		return math32.Floor(px/cell[0]) != math32.Floor(nx/cell[0]) ||
			math32.Floor(py/cell[1]) != math32.Floor(ny/cell[1])
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			px := float32(x) + 0.5 - left
			py := float32(y) + 0.5 - bottom
			// The neighbouring fragment is one pixel down and to the left.
			nx, ny := px-1, py-1
			var alpha float32
			if isGridLine(grid.Minor, px, py, nx, ny) {
				alpha = 0.2
			}
			if isGridLine(grid.Major, px, py, nx, ny) {
				alpha = 0.4
			}
			if sign(px) != sign(nx) || sign(py) != sign(ny) {
				alpha = 1
			}
			if alpha > 0 {
				r.blend(x, y, [4]float32{0, 0, 0, alpha})
			}
		}
	}
}

// lineVertex returns the chart position of a line strip vertex.
func lineVertex(lines []gpu.LinePoint, vertex int) (x, y float32) {
	fracX := float32(vertex/2) / float32(gpu.LineSegments-1)
	chartX := toI32(fracX * float32(len(lines)-1))
	lp := lines[chartX]
	chartY := lp.CourseMin - 8
	if vertex&1 == 0 {
		chartY = lp.CourseMax + 8
	}
	if lp.CourseMin > lp.CourseMax {
		chartY = 0
	}
	return float32(chartX), float32(chartY)
}

func (r *raster) drawLine(lines []gpu.LinePoint, draw gpu.DrawInfo, view gpu.View, vertices int) {
	if len(lines) == 0 {
		return
	}
	left, bottom := view.ChartBounds[0], view.ChartBounds[1]
	// Each pair of vertices is one end of a quad; consecutive pairs bound a
	// trapezoid of the strip.
	for v := 0; v+3 < vertices; v += 2 {
		ax, aTop := lineVertex(lines, v)
		_, aBot := lineVertex(lines, v+1)
		bx, bTop := lineVertex(lines, v+2)
		_, bBot := lineVertex(lines, v+3)
		if bx <= ax {
			continue
		}
		x0, x1 := span(left+ax, left+bx, r.width)
		for x := x0; x < x1; x++ {
			cx := float32(x) + 0.5 - left
			t := (cx - ax) / (bx - ax)
			lo := aBot + (bBot-aBot)*t
			hi := aTop + (bTop-aTop)*t
			if lo > hi {
				lo, hi = hi, lo
			}
			y0, y1 := span(bottom+lo, bottom+hi, r.height)
			for y := y0; y < y1; y++ {
				cy := float32(y) + 0.5 - bottom
				if c, ok := shadeLine(lines, draw, view, cx, cy); ok {
					r.blend(x, y, c)
				}
			}
		}
	}
}

func shadeLine(lines []gpu.LinePoint, draw gpu.DrawInfo, view gpu.View, cx, cy float32) ([4]float32, bool) {
	if !inChart(view, cx, cy) {
		return [4]float32{}, false
	}
	dist := float32(1000)
	for i := -4; i < 4; i++ {
		x0 := math32.Floor(cx) - float32(i)
		x1 := x0 + 1
		i0, i1 := int(x0), int(x1)
		if i0 < 0 || i1 >= len(lines) {
			continue
		}
		r0, r1 := lines[i0], lines[i1]
		if r0.Empty() || r1.Empty() {
			continue
		}
		y0 := float32(min(max(toI32(cy), r0.FineMin), r0.FineMax))
		y1 := float32(min(max(toI32(cy), r1.FineMin), r1.FineMax))
		dist = math32.Min(dist, linePointDist(x0, y0, x1, y1, cx, cy))
	}
	highlight := smoothstep(1, 0, dist)
	alpha := smoothstep(3, 2, dist)
	if alpha == 0 {
		return [4]float32{}, false
	}
	var out [4]float32
	for c := 0; c < 3; c++ {
		base := draw.Color[c]
		out[c] = (base*0.75 + (base-base*0.75)*highlight) * alpha
	}
	out[3] = draw.Color[3] * alpha
	return out, true
}

// linePointDist returns the distance between point p and the segment a-b.
func linePointDist(ax, ay, bx, by, px, py float32) float32 {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	t := saturate(((px-ax)*dx + (py-ay)*dy) / l2)
	qx, qy := ax+dx*t, ay+dy*t
	return math32.Hypot(px-qx, py-qy)
}

func (r *raster) drawPoints(samples []float32, draw gpu.DrawInfo, view gpu.View, first, count int) {
	left, bottom := view.ChartBounds[0], view.ChartBounds[1]
	for idx := first; idx < first+count && idx < len(samples); idx++ {
		if idx < 0 {
			continue
		}
		sampleY := samples[idx]
		if sampleY <= gpu.NoValue {
			continue
		}
		radius := float32(3)
		if uint32(idx) == view.HighlightedSampleX {
			radius += 2
			if draw.DatasetIdx == view.HighlightedDatasetIdx {
				radius += 4
			}
		}
		cx, cy := view.SampleToChart.Apply(float32(idx), sampleY)
		x0, x1 := span(left+cx-radius, left+cx+radius, r.width)
		y0, y1 := span(bottom+cy-radius, bottom+cy+radius, r.height)
		for y := y0; y < y1; y++ {
			py := float32(y) + 0.5 - bottom
			for x := x0; x < x1; x++ {
				px := float32(x) + 0.5 - left
				if !inChart(view, px, py) {
					continue
				}
				qx, qy := (px-cx)/radius, (py-cy)/radius
				d := qx*qx + qy*qy
				alpha := smoothstep(1.0, 0.9, d) * smoothstep(0.2, 0.3, d) * 0.5
				if alpha == 0 {
					continue
				}
				r.blend(x, y, [4]float32{
					draw.Color[0] * alpha * 0.8,
					draw.Color[1] * alpha * 0.8,
					draw.Color[2] * alpha * 0.8,
					alpha,
				})
			}
		}
	}
}

func (r *raster) drawRect(rect gpu.RectInfo, _ gpu.View) {
	l, b := rect.Rect[0], rect.Rect[1]
	rr, t := l+rect.Rect[2], b+rect.Rect[3]
	if rr < l {
		l, rr = rr, l
	}
	if t < b {
		b, t = t, b
	}
	x0, x1 := span(l, rr, r.width)
	y0, y1 := span(b, t, r.height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r.blend(x, y, rect.Color)
		}
	}
}

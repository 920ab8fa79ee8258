package engine

import "math"

// labelPool recycles axis labels between view changes.
type labelPool struct {
	free []*AxisLabel
	live []*AxisLabel
	// created counts labels ever allocated.
	created int
}

// reset returns every live label to the pool.
func (p *labelPool) reset() {
	p.free = append(p.free, p.live...)
	p.live = p.live[:0]
}

func (p *labelPool) acquire() *AxisLabel {
	var l *AxisLabel
	if n := len(p.free); n > 0 {
		l = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		l = new(AxisLabel)
		p.created++
	}
	p.live = append(p.live, l)
	return l
}

// updateLabels places a label at each major gridline of v.
func updateLabels[S any](p *labelPool, v Viewport, g grid, idx *index, adapter Adapter[S]) {
	p.reset()
	chart := v.ChartBounds
	if adapter.XAxisLabel != nil && idx.numX() > 0 {
		for x := chart.L; x < chart.R; x += g.majorX {
			sampleX := int(math.Floor(v.CanvasToSample.MulX(x)))
			if sampleX < 0 || sampleX >= idx.numX() {
				continue
			}
			l := p.acquire()
			l.Axis = AxisX
			l.Pos.X, l.Pos.Y = x, chart.B
			l.Text = adapter.XAxisLabel(idx.xValues[sampleX])
		}
	}
	if adapter.YAxisLabel != nil {
		for y := chart.B; y < chart.T; y += g.majorY {
			l := p.acquire()
			l.Axis = AxisY
			l.Pos.X, l.Pos.Y = chart.L, y
			l.Text = adapter.YAxisLabel(v.CanvasToSample.MulY(y))
		}
	}
}

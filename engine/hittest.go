package engine

import (
	"math"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

// hitThreshold is the pick radius in logical pixels.
const hitThreshold = 10

// hit is the sample nearest to a point.
type hit struct {
	sampleX     int
	dataset     int
	sample      int
	sqrDistance float64
}

// hitTest returns the sample closest to pos (in canvas space) within the
// pick radius. Squared distances are compared against the squared radius.
// On a tie the first sample found, by sample x and then dataset, wins.
func hitTest(v Viewport, idx *index, pos geom.Point, pixelRatio float64) (hit, bool) {
	if idx == nil || idx.numX() == 0 {
		return hit{}, false
	}
	threshold := hitThreshold * pixelRatio
	chart := v.ChartBounds

	fromX := max(math.Floor(pos.X-threshold), chart.L)
	toX := min(math.Ceil(pos.X+threshold), chart.R)
	if fromX > toX {
		return hit{}, false
	}
	s0 := v.CanvasToSample.MulX(fromX)
	s1 := v.CanvasToSample.MulX(toX)
	if s0 > s1 {
		s0, s1 = s1, s0
	}
	fromSample := max(int(math.Floor(s0)), 0)
	toSample := min(int(math.Ceil(s1)), idx.numX()-1)

	best := hit{sqrDistance: threshold * threshold}
	found := false
	for sx := fromSample; sx <= toSample; sx++ {
		for d := range idx.yValues {
			i, ok := idx.sample(d, sx)
			if !ok {
				continue
			}
			p := geom.Pt(float64(sx), idx.yValues[d][sx]).Mul(v.SampleToCanvas)
			dist := geom.SquareDistance(p, pos)
			if dist < best.sqrDistance {
				best = hit{sampleX: sx, dataset: d, sample: i, sqrDistance: dist}
				found = true
			}
		}
	}
	return best, found
}

package engine

import (
	"math"
	"slices"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// index aligns every dataset onto the sorted set of distinct x values. The
// position of an x value in that set is its sample x.
type index struct {
	xValues []float64
	// sampleXToIdx holds, per dataset, the position in Samples of the
	// sample at each sample x, or -1.
	sampleXToIdx [][]int
	// yValues holds, per dataset, the value at each sample x. Missing and
	// non-finite values are NaN.
	yValues [][]float64
	// minY and maxY span the finite values. They are NaN when there are
	// none.
	minY, maxY float64
}

func buildIndex[S any](datasets []Dataset[S], adapter Adapter[S]) *index {
	idx := &index{minY: math.NaN(), maxY: math.NaN()}

	xToSamples := make(map[float64][]int)
	for d, ds := range datasets {
		for i, s := range ds.Samples {
			x := adapter.X(s)
			row, ok := xToSamples[x]
			if !ok {
				row = make([]int, len(datasets))
				for j := range row {
					row[j] = -1
				}
				xToSamples[x] = row
				idx.xValues = append(idx.xValues, x)
			}
			row[d] = i
		}
	}
	slices.Sort(idx.xValues)

	idx.sampleXToIdx = make([][]int, len(datasets))
	idx.yValues = make([][]float64, len(datasets))
	for d, ds := range datasets {
		toIdx := make([]int, len(idx.xValues))
		ys := make([]float64, len(idx.xValues))
		for sx, x := range idx.xValues {
			i := xToSamples[x][d]
			toIdx[sx] = i
			ys[sx] = math.NaN()
			if i < 0 {
				continue
			}
			y := adapter.Y(ds.Samples[i])
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			ys[sx] = y
			if math.IsNaN(idx.minY) {
				idx.minY, idx.maxY = y, y
			}
			idx.minY = min(idx.minY, y)
			idx.maxY = max(idx.maxY, y)
		}
		idx.sampleXToIdx[d] = toIdx
		idx.yValues[d] = ys
	}
	return idx
}

func (idx *index) numX() int {
	return len(idx.xValues)
}

// sample returns the position in dataset d's samples of the sample at
// sampleX, or false if there is none or its value is missing.
func (idx *index) sample(d, sampleX int) (int, bool) {
	if sampleX < 0 || sampleX >= idx.numX() {
		return 0, false
	}
	i := idx.sampleXToIdx[d][sampleX]
	if i < 0 || math.IsNaN(idx.yValues[d][sampleX]) {
		return 0, false
	}
	return i, true
}

// sampleBounds is the full extent of the data in sample space. Zero is
// always inside the vertical range.
func (idx *index) sampleBounds() geom.Rect {
	b := geom.Rect{L: 0, R: float64(idx.numX()), B: 0, T: 1}
	if math.IsNaN(idx.maxY) {
		return b
	}
	b.B = min(0, idx.minY)
	b.T = max(0, idx.maxY)
	if b.T <= b.B {
		b.T = b.B + 1
	}
	return b
}

// encodeSamples converts one dataset's values for a sample buffer.
func encodeSamples(ys []float64) []float32 {
	out := make([]float32, len(ys))
	for i, y := range ys {
		if math.IsNaN(y) {
			out[i] = gpu.NoValue
			continue
		}
		out[i] = float32(y)
	}
	return out
}

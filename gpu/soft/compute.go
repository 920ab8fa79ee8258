package soft

import (
	"math"

	"github.com/chewxy/math32"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// toI32 converts like a WGSL i32(f32): truncating toward zero and
// saturating at the type's limits.
func toI32(v float32) int32 {
	switch {
	case math32.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math32.Trunc(v))
}

// samplesToLines computes the fine envelope for each of the first
// invocations chart columns. Column x covers the sample range
// [ChartToSample(x), ChartToSample(x+1)], both ends inclusive.
func samplesToLines(samples []float32, lines []gpu.LinePoint, view gpu.View, invocations int) {
	n := min(invocations, len(lines))
	for chartX := 0; chartX < n; chartX++ {
		sampleX0 := toI32(view.ChartToSample.MulX(float32(chartX)))
		sampleX1 := toI32(view.ChartToSample.MulX(float32(chartX + 1)))

		bounds := gpu.EmptyLinePoint
		for sampleX := max(sampleX0, 0); sampleX <= sampleX1 && int(sampleX) < len(samples); sampleX++ {
			sampleY := samples[sampleX]
			if sampleY > gpu.NoValue {
				chartY := toI32(view.SampleToChart.MulY(sampleY))
				bounds.FineMin = min(bounds.FineMin, chartY)
				bounds.FineMax = max(bounds.FineMax, chartY)
			}
		}
		lines[chartX] = bounds
	}
}

// processLines widens every column's fine range by the fine ranges of up to
// NeighbourReach columns on either side, storing the result as the course
// range. Empty neighbours are skipped and lookups never leave the buffer.
func processLines(lines []gpu.LinePoint, invocations int) {
	n := min(invocations, len(lines))
	for x := 0; x < n; x++ {
		valMin, valMax := lines[x].FineMin, lines[x].FineMax
		for i := 1; i <= gpu.NeighbourReach; i++ {
			if x2 := x - i; x2 >= 0 && !lines[x2].Empty() {
				valMin = min(valMin, lines[x2].FineMin)
				valMax = max(valMax, lines[x2].FineMax)
			}
			if x2 := x + i; x2 < len(lines) && !lines[x2].Empty() {
				valMin = min(valMin, lines[x2].FineMin)
				valMax = max(valMax, lines[x2].FineMax)
			}
		}
		lines[x].CourseMin = valMin
		lines[x].CourseMax = valMax
	}
}

package engine

import (
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

// zoomDuration is the length of every zoom transition.
const zoomDuration = 500 * time.Millisecond

// animation moves the sample window between two keyframes.
type animation struct {
	start, end     geom.Rect
	startMS, endMS int64
}

func newAnimation(from, to geom.Rect, now time.Time) *animation {
	ms := now.UnixMilli()
	return &animation{
		start:   from,
		end:     to,
		startMS: ms,
		endMS:   ms + zoomDuration.Milliseconds(),
	}
}

// at returns the window at nowMS and whether the animation has finished.
// Once finished the window is exactly the end keyframe.
func (a *animation) at(nowMS int64) (geom.Rect, bool) {
	if nowMS > a.endMS {
		return a.end, true
	}
	f := geom.Saturate(geom.InvLerp(float64(nowMS), float64(a.startMS), float64(a.endMS)))
	f = geom.Smootherstep(f)
	if f == 1 {
		return a.end, false
	}
	return geom.LerpRect(f, a.start, a.end), false
}

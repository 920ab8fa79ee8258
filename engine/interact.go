package engine

import (
	"image"
	"math"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

const (
	// minZoomRect is the size in pixels a selection must exceed on both axes
	// to zoom.
	minZoomRect = 5
	// wheelZoomFactor is how far each scroll step moves the window toward
	// its target.
	wheelZoomFactor = 0.2
)

// HandlePointer updates the chart for a pointer event.
func (c *Chart[S]) HandlePointer(ev PointerEvent) {
	if c.data == nil {
		return
	}
	switch ev.Kind {
	case PointerPress:
		c.press(ev)
	case PointerRelease:
		c.release(ev)
	case PointerMove:
		c.move(ev)
	case PointerScroll:
		c.scroll(ev)
	case PointerLeave:
		c.clearHover()
	}
}

// ResetZoom animates back to the full extent of the data.
func (c *Chart[S]) ResetZoom() {
	if c.data == nil {
		return
	}
	c.beginZoom(c.data.viewport.SampleBounds)
}

func (c *Chart[S]) press(ev PointerEvent) {
	d := c.data
	if ev.Buttons&ButtonPrimary != 0 {
		d.zoomRect = &geom.Rect{L: ev.Pos.X, R: ev.Pos.X, T: ev.Pos.Y, B: ev.Pos.Y}
	}
	if ev.Buttons&ButtonSecondary != 0 {
		c.beginZoom(d.viewport.SampleBounds)
	}
}

func bigEnough(r *geom.Rect) bool {
	return r != nil && r.W() > minZoomRect && r.H() > minZoomRect
}

func (c *Chart[S]) release(ev PointerEvent) {
	d := c.data
	r := d.zoomRect
	d.zoomRect = nil
	if bigEnough(r) {
		c.beginZoom(r.Canonicalize().Mul(d.viewport.CanvasToSample))
		return
	}
	if r != nil {
		c.Redraw()
	}
	if ev.Button != ButtonPrimary || c.config.OnClick == nil {
		return
	}
	if h, ok := hitTest(d.viewport, d.index, ev.Pos, c.host.PixelRatio()); ok {
		ds := &d.datasets[h.dataset]
		c.config.OnClick(ds.Samples[h.sample], ds)
	}
}

func (c *Chart[S]) move(ev PointerEvent) {
	if ev.Modifiers&ModAlt != 0 {
		return
	}
	d := c.data
	if ev.Buttons&ButtonPrimary == 0 && d.zoomRect != nil {
		d.zoomRect = nil
		c.Redraw()
	}
	if r := d.zoomRect; r != nil {
		chart := d.viewport.ChartBounds
		r.R = geom.Clamp(ev.Pos.X, chart.L, chart.R)
		r.B = geom.Clamp(ev.Pos.Y, chart.B, chart.T)
		c.Redraw()
		if bigEnough(r) {
			return
		}
	}
	c.hover(ev.Pos)
}

func (c *Chart[S]) hover(pos geom.Point) {
	d := c.data
	h, ok := hitTest(d.viewport, d.index, pos, c.host.PixelRatio())
	if !ok {
		c.clearHover()
		return
	}
	ds := &d.datasets[h.dataset]
	var markup string
	if c.config.Adapter.Tooltip != nil {
		markup = c.config.Adapter.Tooltip(ds.Samples[h.sample], ds)
	}
	bg := ds.Color.NRGBA()
	bg.A = 191
	c.host.ShowTooltip(Tooltip{
		Markup: markup,
		Pos: image.Pt(
			int(math.Round(pos.X)),
			c.size.Y-int(math.Round(pos.Y))+int(math.Round(10*c.host.PixelRatio())),
		),
		AlignX:     geom.Saturate(pos.X / float64(max(c.size.X, 1))),
		Background: bg,
	})
	c.host.SetCrosshair(true)
	c.setHighlight(h.sampleX, h.dataset)
}

func (c *Chart[S]) clearHover() {
	c.host.HideTooltip()
	c.host.SetCrosshair(false)
	c.setHighlight(-1, -1)
}

func (c *Chart[S]) setHighlight(sampleX, dataset int) {
	if c.highlightX == sampleX && c.highlightDataset == dataset {
		return
	}
	c.highlightX, c.highlightDataset = sampleX, dataset
	c.Redraw()
}

// scroll zooms about the pointer while ctrl is held. Each step moves the
// window a fixed fraction of the way toward a single column (scrolling up)
// or the full extent (scrolling down).
func (c *Chart[S]) scroll(ev PointerEvent) {
	if ev.Modifiers&ModCtrl == 0 || ev.ScrollY == 0 {
		return
	}
	v := c.data.viewport
	bounds := v.SampleBounds
	x := geom.Clamp(v.CanvasToSample.MulX(ev.Pos.X), bounds.L, bounds.R)
	window := v.SampleWindow
	if a := c.data.anim; a != nil {
		window = a.end
	}
	target := bounds
	if ev.ScrollY < 0 {
		target = geom.Rect{L: x, R: x, T: window.T, B: window.B}
	}
	c.beginZoom(geom.LerpRect(wheelZoomFactor, window, target))
}

// beginZoom starts an animation from the current window to window,
// replacing any animation in flight.
func (c *Chart[S]) beginZoom(window geom.Rect) {
	d := c.data
	d.anim = newAnimation(d.viewport.SampleWindow, window, c.now())
	c.Redraw()
}

package engine

import (
	"context"
	"errors"
	"image"
	"log"
	"math"
	"sync/atomic"
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

type acquisition struct {
	backend gpu.Backend
	err     error
}

// chartData is everything derived from the datasets by Update.
type chartData[S any] struct {
	index    *index
	datasets []Dataset[S]
	buffers  []datasetBuffers
	// columns is the length of every lines buffer.
	columns  int
	viewport Viewport
	grid     grid
	anim     *animation
	// zoomRect is the box being dragged out, in canvas space.
	zoomRect *geom.Rect
}

// Chart draws a set of datasets sharing one x axis.
type Chart[S any] struct {
	// Datasets is read by Update. Changing it has no effect until then.
	Datasets []Dataset[S]

	host   Host
	config Config[S]
	margin geom.Rect
	now    func() time.Time
	cancel context.CancelFunc

	acquired chan acquisition
	backend  gpu.Backend
	shared   *sharedBuffers
	inert    bool
	closed   bool
	ready    atomic.Bool

	data        *chartData[S]
	size        image.Point
	viewChanged bool
	pendingDraw atomic.Bool
	labels      labelPool

	highlightX, highlightDataset int
}

// New returns a chart displayed on host. The backend is acquired in the
// background; until it arrives Update and Redraw do nothing.
func New[S any](host Host, config Config[S]) *Chart[S] {
	c := &Chart[S]{
		host:             host,
		config:           config,
		margin:           DefaultMargin,
		now:              config.Now,
		acquired:         make(chan acquisition, 1),
		highlightX:       -1,
		highlightDataset: -1,
	}
	if config.Margin != nil {
		c.margin = *config.Margin
	}
	if c.now == nil {
		c.now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	acquire := config.Acquire
	if acquire == nil {
		acquire = func(context.Context) (gpu.Backend, error) {
			return nil, errors.New("no backend configured")
		}
	}
	go func() {
		b, err := acquire(ctx)
		if err == nil && b == nil {
			err = errors.New("no backend returned")
		}
		if err == nil && ctx.Err() != nil {
			b.Release()
			return
		}
		c.acquired <- acquisition{backend: b, err: err}
		host.ScheduleFrame()
	}()
	return c
}

// adopt takes over the backend once acquisition has finished.
func (c *Chart[S]) adopt() {
	if c.backend != nil || c.inert || c.closed {
		return
	}
	var a acquisition
	select {
	case a = <-c.acquired:
	default:
		return
	}
	if a.err != nil {
		log.Printf("engine: chart disabled, GPU unavailable: %v", a.err)
		c.inert = true
		return
	}
	shared, err := newSharedBuffers(a.backend)
	if err != nil {
		log.Printf("engine: chart disabled: %v", err)
		a.backend.Release()
		c.inert = true
		return
	}
	log.Printf("engine: rendering with %s", a.backend.Name())
	c.backend = a.backend
	c.shared = shared
	c.ready.Store(true)
	c.Update()
}

// Ready reports whether the chart has a backend.
func (c *Chart[S]) Ready() bool {
	return c.ready.Load()
}

// Inert reports whether acquiring a backend failed. An inert chart never
// draws.
func (c *Chart[S]) Inert() bool {
	return c.inert
}

// Backend returns the backend in use, or nil.
func (c *Chart[S]) Backend() gpu.Backend {
	return c.backend
}

// Update rebuilds the sample index and every dataset's buffers from
// Datasets, and resizes the render target to the host's canvas. A zoom is
// kept if the extent of the data is unchanged.
func (c *Chart[S]) Update() {
	c.adopt()
	if c.backend == nil {
		return
	}
	c.size = c.host.CanvasSize()
	if c.size.X <= 0 || c.size.Y <= 0 {
		return
	}
	if err := c.backend.Configure(c.size.X, c.size.Y); err != nil {
		log.Printf("engine: configuring target: %v", err)
		return
	}

	old := c.data
	if old != nil {
		old.release()
		c.data = nil
	}

	idx := buildIndex(c.Datasets, c.config.Adapter)
	bounds := idx.sampleBounds()
	d := &chartData[S]{
		index:    idx,
		datasets: c.Datasets,
		viewport: Viewport{SampleBounds: bounds, SampleWindow: bounds},
	}
	if old != nil && old.viewport.SampleBounds == bounds {
		d.viewport.SampleWindow = old.viewport.SampleWindow
		d.anim = old.anim
	}
	v := computeViewport(c.size, c.margin, bounds, bounds)
	d.columns = max(int(math.Ceil(v.ChartBounds.W())), 1)
	if err := d.allocate(c.backend); err != nil {
		log.Printf("engine: allocating dataset buffers: %v", err)
		d.release()
		return
	}
	c.data = d
	c.updateViewport()
}

// recompute derives the viewport from the current canvas size and sample
// window. It panics with ErrNoData if there is no data.
func (c *Chart[S]) recompute() {
	if c.data == nil {
		panic(ErrNoData)
	}
	v := &c.data.viewport
	*v = computeViewport(c.size, c.margin, v.SampleBounds, v.SampleWindow)
	c.viewChanged = true
}

func (c *Chart[S]) updateViewport() {
	c.recompute()
	c.Redraw()
}

// Redraw requests a frame. Calls before the frame is drawn are coalesced.
// It is safe to call from any goroutine.
func (c *Chart[S]) Redraw() {
	if !c.ready.Load() {
		return
	}
	if c.pendingDraw.CompareAndSwap(false, true) {
		c.host.ScheduleFrame()
	}
}

// Viewport returns the current viewport, or false before data is loaded.
func (c *Chart[S]) Viewport() (Viewport, bool) {
	if c.data == nil {
		return Viewport{}, false
	}
	return c.data.viewport, true
}

// AxisLabels returns the labels of the most recent view.
func (c *Chart[S]) AxisLabels() []AxisLabel {
	out := make([]AxisLabel, len(c.labels.live))
	for i, l := range c.labels.live {
		out[i] = *l
	}
	return out
}

// Animating reports whether a zoom transition is in flight.
func (c *Chart[S]) Animating() bool {
	return c.data != nil && c.data.anim != nil
}

// Highlighted returns the hovered sample x and dataset index, both -1 when
// nothing is hovered.
func (c *Chart[S]) Highlighted() (sampleX, dataset int) {
	return c.highlightX, c.highlightDataset
}

// ZoomRect returns the selection being dragged, in canvas space.
func (c *Chart[S]) ZoomRect() (geom.Rect, bool) {
	if c.data == nil || c.data.zoomRect == nil {
		return geom.Rect{}, false
	}
	return *c.data.zoomRect, true
}

// Snapshot copies the last drawn frame into dst.
func (c *Chart[S]) Snapshot(dst *image.RGBA) error {
	if c.backend == nil {
		return gpu.ErrUnavailable
	}
	return c.backend.Snapshot(dst)
}

// Close releases the chart's GPU resources. The chart is inert afterwards.
func (c *Chart[S]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.ready.Store(false)
	if c.data != nil {
		c.data.release()
		c.data = nil
	}
	if c.shared != nil {
		c.shared.release()
		c.shared = nil
	}
	if c.backend != nil {
		c.backend.Release()
		c.backend = nil
	}
	select {
	case a := <-c.acquired:
		if a.backend != nil {
			a.backend.Release()
		}
	default:
	}
}

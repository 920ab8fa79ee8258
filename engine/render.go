package engine

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// zoomRectColor is the premultiplied fill of the selection overlay.
var zoomRectColor = [4]float32{0.2, 0.2, 0.2, 0.5}

// sharedBuffers are written in place every frame.
type sharedBuffers struct {
	view gpu.Buffer
	grid gpu.Buffer
	rect gpu.Buffer
}

func newSharedBuffers(b gpu.Backend) (*sharedBuffers, error) {
	s := &sharedBuffers{}
	var err error
	usage := gpu.UsageUniform | gpu.UsageCopyDst
	if s.view, err = b.NewBuffer("view", usage, gpu.ViewSize); err != nil {
		return nil, fmt.Errorf("view buffer: %w", err)
	}
	if s.grid, err = b.NewBuffer("grid", usage, gpu.GridInfoSize); err != nil {
		s.release()
		return nil, fmt.Errorf("grid buffer: %w", err)
	}
	if s.rect, err = b.NewBuffer("zoom rect", usage, gpu.RectInfoSize); err != nil {
		s.release()
		return nil, fmt.Errorf("zoom rect buffer: %w", err)
	}
	return s, nil
}

func (s *sharedBuffers) release() {
	for _, b := range []gpu.Buffer{s.view, s.grid, s.rect} {
		if b != nil {
			b.Release()
		}
	}
}

// datasetBuffers belong to one dataset and live until the next Update.
type datasetBuffers struct {
	samples gpu.Buffer
	lines   gpu.Buffer
	draw    gpu.Buffer
}

func (d *chartData[S]) allocate(b gpu.Backend) error {
	if d.index.numX() == 0 {
		return nil
	}
	for i, ds := range d.datasets {
		// Added before allocating so a failure part way through is still
		// released.
		d.buffers = append(d.buffers, datasetBuffers{})
		bufs := &d.buffers[i]
		var err error
		samples := encodeSamples(d.index.yValues[i])
		bufs.samples, err = b.NewBufferInit(ds.Label+" samples", gpu.UsageStorage, gpu.ToBytes(samples))
		if err != nil {
			return err
		}
		bufs.lines, err = b.NewBuffer(ds.Label+" lines", gpu.UsageStorage, d.columns*gpu.LinePointSize)
		if err != nil {
			return err
		}
		info := gpu.DrawInfo{
			Color:      [4]float32{ds.Color.R, ds.Color.G, ds.Color.B, ds.Color.A},
			DatasetIdx: uint32(i),
		}
		bufs.draw, err = b.NewBufferInit(ds.Label+" draw", gpu.UsageUniform, gpu.Bytes(&info))
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *chartData[S]) release() {
	for _, bufs := range d.buffers {
		for _, b := range []gpu.Buffer{bufs.samples, bufs.lines, bufs.draw} {
			if b != nil {
				b.Release()
			}
		}
	}
	d.buffers = nil
}

// Frame draws the chart if a redraw is pending, advancing any zoom
// animation. The host calls it on the UI goroutine once per requested frame.
// It reports whether anything was drawn.
func (c *Chart[S]) Frame() bool {
	c.adopt()
	if c.backend == nil {
		return false
	}
	if c.host.CanvasSize() != c.size {
		c.Update()
	}
	if !c.pendingDraw.Swap(false) {
		return false
	}
	if c.data == nil {
		return false
	}
	animating := c.tick()
	done, err := c.render()
	if err != nil {
		log.Printf("engine: drawing frame: %v", err)
		return false
	}
	if animating {
		// The next frame waits for this one so frames never queue up
		// faster than the device drains them.
		go func() {
			<-done
			c.Redraw()
		}()
	}
	return true
}

// tick advances the zoom animation, reporting whether it continues.
func (c *Chart[S]) tick() bool {
	d := c.data
	if d.anim == nil {
		return false
	}
	window, finished := d.anim.at(c.now().UnixMilli())
	d.viewport.SampleWindow = window
	c.recompute()
	if finished {
		d.anim = nil
		return false
	}
	return true
}

// visibleSamples returns the range of sample x whose points lie inside the
// chart.
func visibleSamples(v Viewport, numX int) (from, to int) {
	l := v.CanvasToSample.MulX(v.ChartBounds.L)
	r := v.CanvasToSample.MulX(v.ChartBounds.R)
	if l > r {
		l, r = r, l
	}
	from = geom.Clamp(int(math.Ceil(l)), 0, numX)
	to = geom.Clamp(int(math.Floor(r))+1, 0, numX)
	return from, to
}

func (c *Chart[S]) render() (<-chan struct{}, error) {
	d := c.data
	v := d.viewport
	b := c.backend

	view := v.view(c.highlightX, c.highlightDataset)
	if err := b.WriteBuffer(c.shared.view, 0, gpu.Bytes(&view)); err != nil {
		return nil, fmt.Errorf("writing view: %w", err)
	}
	if c.viewChanged {
		d.grid = computeGrid(v)
		info := d.grid.info()
		if err := b.WriteBuffer(c.shared.grid, 0, gpu.Bytes(&info)); err != nil {
			return nil, fmt.Errorf("writing grid: %w", err)
		}
		updateLabels(&c.labels, v, d.grid, d.index, c.config.Adapter)
		c.viewChanged = false
	}
	if r := d.zoomRect; r != nil {
		info := gpu.RectInfo{
			Rect:  [4]float32{float32(r.L), float32(r.B), float32(r.R - r.L), float32(r.T - r.B)},
			Color: zoomRectColor,
		}
		if err := b.WriteBuffer(c.shared.rect, 0, gpu.Bytes(&info)); err != nil {
			return nil, fmt.Errorf("writing zoom rect: %w", err)
		}
	}

	f, err := b.BeginFrame()
	if err != nil {
		return nil, err
	}
	workgroups := gpu.Workgroups(d.columns)
	for _, bufs := range d.buffers {
		f.SamplesToLines(gpu.SamplesToLinesBindings{Samples: bufs.samples, Lines: bufs.lines, View: c.shared.view}, workgroups)
	}
	for _, bufs := range d.buffers {
		f.ProcessLines(gpu.ProcessLinesBindings{Lines: bufs.lines}, workgroups)
	}

	f.BeginRender(color.NRGBA{})
	f.DrawGrid(gpu.GridBindings{Grid: c.shared.grid, View: c.shared.view})
	for _, bufs := range d.buffers {
		f.DrawLine(gpu.LineBindings{Lines: bufs.lines, Draw: bufs.draw, View: c.shared.view}, gpu.LineSegments*2)
	}
	if from, to := visibleSamples(v, d.index.numX()); from < to {
		for _, bufs := range d.buffers {
			f.DrawPoints(gpu.PointsBindings{Samples: bufs.samples, Draw: bufs.draw, View: c.shared.view}, 6*from, 6*(to-from))
		}
	}
	if d.zoomRect != nil {
		f.DrawRect(gpu.RectBindings{Rect: c.shared.rect, View: c.shared.view})
	}
	return f.Submit()
}

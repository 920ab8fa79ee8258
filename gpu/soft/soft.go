// Package soft is a CPU implementation of the chart programs. It produces the
// same line envelopes as the GPU programs and a close rendition of their
// output image, which makes it useful for tests and for machines without a
// GPU.
package soft

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// Backend renders on the CPU. It is safe for use by one goroutine at a time.
type Backend struct {
	mu     sync.Mutex
	width  int
	height int
	// target holds premultiplied RGBA in [0,1], rows bottom to top.
	target []float32
	// frames counts submitted frames.
	frames int
}

var _ gpu.Backend = (*Backend)(nil)

// New returns a backend with an empty render target.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "software" }

type buffer struct {
	label string
	usage gpu.Usage
	words []uint32
	size  int
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int     { return b.size }
func (b *buffer) Release()      { b.words = nil }

func (b *buffer) bytes() []byte {
	return gpu.ToBytes(b.words)[:b.size]
}

func (b *Backend) NewBuffer(label string, usage gpu.Usage, size int) (gpu.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("soft: buffer %q: negative size %d", label, size)
	}
	return &buffer{
		label: label,
		usage: usage,
		// Rounded up so every buffer can be viewed as 4-byte words.
		words: make([]uint32, (size+3)/4),
		size:  size,
	}, nil
}

func (b *Backend) NewBufferInit(label string, usage gpu.Usage, contents []byte) (gpu.Buffer, error) {
	buf, err := b.NewBuffer(label, usage, len(contents))
	if err != nil {
		return nil, err
	}
	copy(buf.(*buffer).bytes(), contents)
	return buf, nil
}

func (b *Backend) WriteBuffer(buf gpu.Buffer, offset int, data []byte) error {
	sb, err := lookup(buf)
	if err != nil {
		return err
	}
	if sb.usage&gpu.UsageCopyDst == 0 {
		return fmt.Errorf("soft: write to buffer %q without copy-dst usage", sb.label)
	}
	if offset < 0 || offset+len(data) > sb.size {
		return fmt.Errorf("soft: write of %d bytes at %d overflows buffer %q (%d bytes)", len(data), offset, sb.label, sb.size)
	}
	copy(sb.bytes()[offset:], data)
	return nil
}

func lookup(buf gpu.Buffer) (*buffer, error) {
	sb, ok := buf.(*buffer)
	if !ok || sb == nil {
		return nil, fmt.Errorf("soft: foreign buffer %T", buf)
	}
	if sb.words == nil && sb.size > 0 {
		return nil, fmt.Errorf("soft: buffer %q used after release", sb.label)
	}
	return sb, nil
}

func (b *Backend) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("soft: invalid target size %dx%d", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if width == b.width && height == b.height {
		return nil
	}
	b.width, b.height = width, height
	b.target = make([]float32, width*height*4)
	return nil
}

// Frames returns the number of frames submitted so far.
func (b *Backend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *Backend) BeginFrame() (gpu.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return nil, fmt.Errorf("soft: frame begun before Configure")
	}
	return &frame{backend: b}, nil
}

func (b *Backend) Snapshot(dst *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dst.Rect.Dx() != b.width || dst.Rect.Dy() != b.height {
		return fmt.Errorf("soft: snapshot size %v does not match target %dx%d", dst.Rect.Size(), b.width, b.height)
	}
	for y := 0; y < b.height; y++ {
		row := b.height - 1 - y
		for x := 0; x < b.width; x++ {
			src := b.target[(y*b.width+x)*4:]
			off := dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+row)
			for c := 0; c < 4; c++ {
				dst.Pix[off+c] = unorm8(src[c])
			}
		}
	}
	return nil
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = nil
	b.width, b.height = 0, 0
}

func unorm8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// frame records commands and runs them in order on Submit.
type frame struct {
	backend *Backend
	cmds    []func(*raster) error
}

func (f *frame) record(cmd func(*raster) error) {
	f.cmds = append(f.cmds, cmd)
}

func (f *frame) SamplesToLines(b gpu.SamplesToLinesBindings, workgroups int) {
	f.record(func(*raster) error {
		samples, err := lookup(b.Samples)
		if err != nil {
			return err
		}
		lines, err := lookup(b.Lines)
		if err != nil {
			return err
		}
		view, err := readUniform[gpu.View](b.View)
		if err != nil {
			return err
		}
		samplesToLines(gpu.FromBytes[float32](samples.bytes()), gpu.FromBytes[gpu.LinePoint](lines.bytes()), view, workgroups*gpu.WorkgroupSize)
		return nil
	})
}

func (f *frame) ProcessLines(b gpu.ProcessLinesBindings, workgroups int) {
	f.record(func(*raster) error {
		lines, err := lookup(b.Lines)
		if err != nil {
			return err
		}
		processLines(gpu.FromBytes[gpu.LinePoint](lines.bytes()), workgroups*gpu.WorkgroupSize)
		return nil
	})
}

func (f *frame) BeginRender(clear color.NRGBA) {
	f.record(func(r *raster) error {
		r.clear(clear)
		return nil
	})
}

func (f *frame) DrawGrid(b gpu.GridBindings) {
	f.record(func(r *raster) error {
		grid, err := readUniform[gpu.GridInfo](b.Grid)
		if err != nil {
			return err
		}
		view, err := readUniform[gpu.View](b.View)
		if err != nil {
			return err
		}
		r.drawGrid(grid, view)
		return nil
	})
}

func (f *frame) DrawLine(b gpu.LineBindings, vertices int) {
	f.record(func(r *raster) error {
		lines, err := lookup(b.Lines)
		if err != nil {
			return err
		}
		draw, err := readUniform[gpu.DrawInfo](b.Draw)
		if err != nil {
			return err
		}
		view, err := readUniform[gpu.View](b.View)
		if err != nil {
			return err
		}
		r.drawLine(gpu.FromBytes[gpu.LinePoint](lines.bytes()), draw, view, vertices)
		return nil
	})
}

func (f *frame) DrawPoints(b gpu.PointsBindings, firstVertex, vertexCount int) {
	f.record(func(r *raster) error {
		samples, err := lookup(b.Samples)
		if err != nil {
			return err
		}
		draw, err := readUniform[gpu.DrawInfo](b.Draw)
		if err != nil {
			return err
		}
		view, err := readUniform[gpu.View](b.View)
		if err != nil {
			return err
		}
		r.drawPoints(gpu.FromBytes[float32](samples.bytes()), draw, view, firstVertex/6, vertexCount/6)
		return nil
	})
}

func (f *frame) DrawRect(b gpu.RectBindings) {
	f.record(func(r *raster) error {
		rect, err := readUniform[gpu.RectInfo](b.Rect)
		if err != nil {
			return err
		}
		view, err := readUniform[gpu.View](b.View)
		if err != nil {
			return err
		}
		r.drawRect(rect, view)
		return nil
	})
}

func (f *frame) Submit() (<-chan struct{}, error) {
	b := f.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return nil, fmt.Errorf("soft: backend released")
	}
	r := &raster{width: b.width, height: b.height, pix: b.target}
	for i, cmd := range f.cmds {
		if err := cmd(r); err != nil {
			return nil, fmt.Errorf("soft: command %d: %w", i, err)
		}
	}
	b.frames++
	done := make(chan struct{})
	close(done)
	return done, nil
}

// readUniform returns the first T held by buf.
func readUniform[T any](buf gpu.Buffer) (T, error) {
	var zero T
	sb, err := lookup(buf)
	if err != nil {
		return zero, err
	}
	vs := gpu.FromBytes[T](sb.bytes())
	if len(vs) == 0 {
		return zero, fmt.Errorf("buffer %q too small for %T: %d bytes", sb.label, zero, sb.size)
	}
	return vs[0], nil
}

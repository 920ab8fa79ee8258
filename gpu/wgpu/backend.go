// Package wgpu runs the chart programs on a WebGPU device.
package wgpu

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// TargetFormat is the format of the offscreen render target.
const TargetFormat = wgpu.TextureFormatRGBA8Unorm

// device is the process-wide adapter and device. Every chart shares it.
type device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	programs *pipelines
}

var shared = gpu.NewShared(func(context.Context) (*device, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: requesting adapter: %w", gpu.ErrUnavailable, err)
	}
	if adapter == nil {
		instance.Release()
		return nil, fmt.Errorf("%w: no adapter", gpu.ErrUnavailable)
	}
	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "perfgraph"})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: requesting device: %w", gpu.ErrUnavailable, err)
	}
	programs, err := newPipelines(dev, TargetFormat)
	if err != nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("building programs: %w", err)
	}
	return &device{
		instance: instance,
		adapter:  adapter,
		device:   dev,
		queue:    dev.GetQueue(),
		programs: programs,
	}, nil
})

// Backend renders into an offscreen texture on the shared device.
type Backend struct {
	dev *device

	mu      sync.Mutex
	width   int
	height  int
	target  *wgpu.Texture
	view    *wgpu.TextureView
	pending sync.WaitGroup
}

var _ gpu.Backend = (*Backend)(nil)

// New acquires the shared device, waiting at most until ctx is done. The
// returned error wraps gpu.ErrUnavailable when the machine has no usable
// adapter.
func New(ctx context.Context) (*Backend, error) {
	dev, err := shared.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Backend{dev: dev}, nil
}

// Available reports whether the shared device was acquired, starting the
// acquisition if needed.
func Available(ctx context.Context) bool {
	_, err := shared.Get(ctx)
	return err == nil
}

func (b *Backend) Name() string { return "webgpu" }

type buffer struct {
	label string
	size  int
	buf   *wgpu.Buffer
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int     { return b.size }
func (b *buffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func bufferUsage(u gpu.Usage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.UsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&gpu.UsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.UsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&gpu.UsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&gpu.UsageMapRead != 0 {
		out |= wgpu.BufferUsageMapRead
	}
	return out
}

// padded rounds a buffer size up to the 4 byte granularity WebGPU requires.
// Empty buffers are not allowed in a binding, so they get one word.
func padded(size int) int {
	return max((size+3)&^3, 4)
}

func (b *Backend) NewBuffer(label string, usage gpu.Usage, size int) (gpu.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("wgpu: buffer %q: negative size %d", label, size)
	}
	buf, err := b.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(padded(size)),
		Usage: bufferUsage(usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: creating buffer %q: %w", label, err)
	}
	return &buffer{label: label, size: size, buf: buf}, nil
}

func (b *Backend) NewBufferInit(label string, usage gpu.Usage, contents []byte) (gpu.Buffer, error) {
	data := contents
	if n := padded(len(contents)); n != len(contents) {
		data = make([]byte, n)
		copy(data, contents)
	}
	buf, err := b.dev.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    bufferUsage(usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: creating buffer %q: %w", label, err)
	}
	return &buffer{label: label, size: len(contents), buf: buf}, nil
}

func lookup(buf gpu.Buffer) (*wgpu.Buffer, error) {
	wb, ok := buf.(*buffer)
	if !ok || wb == nil {
		return nil, fmt.Errorf("wgpu: foreign buffer %T", buf)
	}
	if wb.buf == nil {
		return nil, fmt.Errorf("wgpu: buffer %q used after release", wb.label)
	}
	return wb.buf, nil
}

func (b *Backend) WriteBuffer(buf gpu.Buffer, offset int, data []byte) error {
	wb, err := lookup(buf)
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(data) > buf.Size() {
		return fmt.Errorf("wgpu: write of %d bytes at %d overflows buffer %q (%d bytes)", len(data), offset, buf.Label(), buf.Size())
	}
	return b.dev.queue.WriteBuffer(wb, uint64(offset), data)
}

func (b *Backend) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid target size %dx%d", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target != nil && width == b.width && height == b.height {
		return nil
	}
	b.releaseTarget()
	tex, err := b.dev.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "chart target",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: creating target: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpu: creating target view: %w", err)
	}
	b.width, b.height = width, height
	b.target, b.view = tex, view
	return nil
}

func (b *Backend) releaseTarget() {
	if b.view != nil {
		b.view.Release()
		b.view = nil
	}
	if b.target != nil {
		b.target.Release()
		b.target = nil
	}
}

func (b *Backend) BeginFrame() (gpu.Frame, error) {
	b.mu.Lock()
	view := b.view
	b.mu.Unlock()
	if view == nil {
		return nil, errors.New("wgpu: frame begun before Configure")
	}
	enc, err := b.dev.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: creating encoder: %w", err)
	}
	return &frame{backend: b, encoder: enc, target: view}, nil
}

// rowPitch is the byte stride of a texture row in a copy, which WebGPU
// requires to be a multiple of 256.
func rowPitch(width int) int {
	return (width*4 + 255) &^ 255
}

// Snapshot reads the target back. Texture row 0 is the top of the canvas,
// matching image.RGBA.
func (b *Backend) Snapshot(dst *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return errors.New("wgpu: snapshot before Configure")
	}
	if dst.Rect.Dx() != b.width || dst.Rect.Dy() != b.height {
		return fmt.Errorf("wgpu: snapshot size %v does not match target %dx%d", dst.Rect.Size(), b.width, b.height)
	}
	pitch := rowPitch(b.width)
	size := uint64(pitch * b.height)
	readback, err := b.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "snapshot",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("wgpu: creating readback buffer: %w", err)
	}
	defer readback.Release()

	enc, err := b.dev.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("wgpu: creating encoder: %w", err)
	}
	defer enc.Release()
	err = enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  b.target,
			MipLevel: 0,
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{
				BytesPerRow:  uint32(pitch),
				RowsPerImage: uint32(b.height),
			},
		},
		&wgpu.Extent3D{Width: uint32(b.width), Height: uint32(b.height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: copying target: %w", err)
	}
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("wgpu: finishing snapshot: %w", err)
	}
	b.dev.queue.Submit(cmd)
	cmd.Release()

	var status wgpu.BufferMapAsyncStatus
	if err := readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return fmt.Errorf("wgpu: mapping readback: %w", err)
	}
	b.dev.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("wgpu: mapping readback: status %v", status)
	}
	defer readback.Unmap()
	data := readback.GetMappedRange(0, uint(size))
	for y := 0; y < b.height; y++ {
		row := data[y*pitch : y*pitch+b.width*4]
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+b.width*4], row)
	}
	return nil
}

// Release frees the render target once submitted frames have finished. The
// shared device stays alive for other charts.
func (b *Backend) Release() {
	b.pending.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseTarget()
	b.width, b.height = 0, 0
}

// poll drives the device until queued work completes, firing work-done
// callbacks.
func (b *Backend) poll() {
	defer b.pending.Done()
	b.dev.device.Poll(true, nil)
}

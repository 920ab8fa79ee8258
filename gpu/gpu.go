// Package gpu defines the minimal rendering backend used by the chart
// engine. A backend owns buffers and executes the chart's named shader
// programs; the engine never sees the underlying graphics API, which keeps
// it testable without a real GPU.
package gpu

import (
	"errors"
	"image"
	"image/color"
)

const (
	// LineSegments is the number of evenly spaced chart columns sampled when
	// drawing a dataset's line.
	LineSegments = 1024
	// WorkgroupSize is the number of invocations in a compute workgroup.
	WorkgroupSize = 256
	// NeighbourReach is how many columns either side of a column the
	// process-lines program folds into the coarse envelope.
	NeighbourReach = 4
	// NoValue marks a missing sample in a sample buffer. Every real sample is
	// greater than it.
	NoValue float32 = -1.7014118e38
	// EmptyMin and EmptyMax initialize a line column. A column still holding
	// min > max contains no samples.
	EmptyMin int32 = 0x7fffffff
	EmptyMax int32 = -0x7fffffff
)

// ErrUnavailable is returned (wrapped) when no GPU adapter or device can be
// acquired.
var ErrUnavailable = errors.New("gpu: not available")

// Usage describes how a buffer will be bound.
type Usage uint8

const (
	UsageStorage Usage = 1 << iota
	UsageUniform
	UsageCopyDst
	UsageCopySrc
	UsageMapRead
)

// Buffer is a block of device memory.
type Buffer interface {
	Label() string
	Size() int
	Release()
}

// Backend allocates buffers and records frames of chart programs.
type Backend interface {
	Name() string
	// NewBuffer allocates a zeroed buffer of size bytes.
	NewBuffer(label string, usage Usage, size int) (Buffer, error)
	// NewBufferInit allocates a buffer holding contents.
	NewBufferInit(label string, usage Usage, contents []byte) (Buffer, error)
	// WriteBuffer replaces part of buf, starting at offset bytes.
	WriteBuffer(buf Buffer, offset int, data []byte) error
	// Configure sets the size of the render target in device pixels.
	Configure(width, height int) error
	// BeginFrame starts recording one command buffer.
	BeginFrame() (Frame, error)
	// Snapshot copies the most recently submitted frame into dst, which must
	// match the configured size.
	Snapshot(dst *image.RGBA) error
	Release()
}

// Frame records the commands of a single frame. Compute programs recorded
// before BeginRender complete before the render pass reads their output.
type Frame interface {
	SamplesToLines(b SamplesToLinesBindings, workgroups int)
	ProcessLines(b ProcessLinesBindings, workgroups int)
	BeginRender(clear color.NRGBA)
	DrawGrid(b GridBindings)
	DrawLine(b LineBindings, vertices int)
	DrawPoints(b PointsBindings, firstVertex, vertexCount int)
	DrawRect(b RectBindings)
	// Submit ends recording and queues the frame. The returned channel is
	// closed once the device has finished the work.
	Submit() (done <-chan struct{}, err error)
}

// Workgroups returns the number of workgroups needed to cover n invocations.
func Workgroups(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + WorkgroupSize - 1) / WorkgroupSize
}

package wgpu

import (
	"context"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

func TestSourcePrependsCommon(t *testing.T) {
	common, err := Source(gpu.Common)
	require.NoError(t, err)
	require.Contains(t, common, "const kNoValue")
	for _, p := range gpu.Programs {
		t.Run(p.String(), func(t *testing.T) {
			src, err := Source(p)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(src, common), "common declarations come first")
			assert.Equal(t, 1, strings.Count(src, "struct View {"))
		})
	}
	_, err = Source(gpu.Program{Name: "missing", Version: 1})
	assert.Error(t, err)
}

func TestEveryProgramHasALayout(t *testing.T) {
	for _, p := range gpu.Programs[1:] {
		assert.Contains(t, layouts, p, p.String())
	}
}

func TestRowPitch(t *testing.T) {
	assert.Equal(t, 256, rowPitch(1))
	assert.Equal(t, 256, rowPitch(64))
	assert.Equal(t, 512, rowPitch(65))
}

func TestPadded(t *testing.T) {
	assert.Equal(t, 4, padded(0))
	assert.Equal(t, 4, padded(3))
	assert.Equal(t, 128, padded(128))
	assert.Equal(t, 132, padded(129))
}

func TestBufferUsage(t *testing.T) {
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, bufferUsage(gpu.UsageStorage|gpu.UsageCopyDst))
	assert.Equal(t, wgpu.BufferUsageUniform, bufferUsage(gpu.UsageUniform))
}

// testBackend returns a backend, skipping the test on machines without a GPU.
func testBackend(t *testing.T) *Backend {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b, err := New(ctx)
	if err != nil {
		t.Skipf("no GPU: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func TestRenderAxes(t *testing.T) {
	b := testBackend(t)
	const w, h = 120, 80
	require.NoError(t, b.Configure(w, h))

	chart := geom.Rect{R: 90, T: 60}
	window := geom.Rect{R: 4, T: 5}
	view := gpu.View{
		ChartBounds:           [4]float32{20, 10, 90, 60},
		SampleToChart:         gpu.PackMat2x3(geom.Transform(window, chart)),
		ChartToSample:         gpu.PackMat2x3(geom.Transform(chart, window)),
		ChartToNDC:            gpu.PackMat2x3(geom.Offset(20, 10).Scale(2.0/w, 2.0/h).Offset(-1, -1)),
		HighlightedSampleX:    math.MaxUint32,
		HighlightedDatasetIdx: math.MaxUint32,
	}
	viewBuf, err := b.NewBufferInit("view", gpu.UsageUniform|gpu.UsageCopyDst, gpu.Bytes(&view))
	require.NoError(t, err)
	defer viewBuf.Release()
	grid := gpu.GridInfo{Major: [2]float32{30, 20}, Minor: [2]float32{15, 10}}
	gridBuf, err := b.NewBufferInit("grid", gpu.UsageUniform, gpu.Bytes(&grid))
	require.NoError(t, err)
	defer gridBuf.Release()

	f, err := b.BeginFrame()
	require.NoError(t, err)
	f.BeginRender(color.NRGBA{})
	f.DrawGrid(gpu.GridBindings{Grid: gridBuf, View: viewBuf})
	done, err := f.Submit()
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("frame did not complete")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, b.Snapshot(img))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, h-3), "margin stays clear")
	assert.Equal(t, uint8(255), img.RGBAAt(20, h-1-40).A, "y axis")
}

func TestSubmitReportsRecordingErrors(t *testing.T) {
	b := testBackend(t)
	require.NoError(t, b.Configure(8, 8))
	f, err := b.BeginFrame()
	require.NoError(t, err)
	f.DrawRect(gpu.RectBindings{})
	_, err = f.Submit()
	assert.Error(t, err, "draw before BeginRender")
}

func TestDrawPointsCullsMissingSamples(t *testing.T) {
	src, err := Source(gpu.DrawPoints)
	require.NoError(t, err)
	require.Contains(t, src, "<= kNoValue")

	b := testBackend(t)
	const w, h = 60, 60
	require.NoError(t, b.Configure(w, h))

	chart := geom.Rect{R: w, T: h}
	window := geom.Rect{R: 2, T: 4}
	view := gpu.View{
		ChartBounds:           [4]float32{0, 0, w, h},
		SampleToChart:         gpu.PackMat2x3(geom.Transform(window, chart)),
		ChartToSample:         gpu.PackMat2x3(geom.Transform(chart, window)),
		ChartToNDC:            gpu.PackMat2x3(geom.Scale(2.0/w, 2.0/h).Offset(-1, -1)),
		HighlightedSampleX:    math.MaxUint32,
		HighlightedDatasetIdx: math.MaxUint32,
	}
	viewBuf, err := b.NewBufferInit("view", gpu.UsageUniform|gpu.UsageCopyDst, gpu.Bytes(&view))
	require.NoError(t, err)
	defer viewBuf.Release()
	draw := gpu.DrawInfo{Color: [4]float32{1, 1, 1, 1}}
	drawBuf, err := b.NewBufferInit("draw", gpu.UsageUniform, gpu.Bytes(&draw))
	require.NoError(t, err)
	defer drawBuf.Release()
	samples := []float32{gpu.NoValue, gpu.NoValue}
	samplesBuf, err := b.NewBufferInit("samples", gpu.UsageStorage, gpu.ToBytes(samples))
	require.NoError(t, err)
	defer samplesBuf.Release()

	f, err := b.BeginFrame()
	require.NoError(t, err)
	f.BeginRender(color.NRGBA{})
	f.DrawPoints(gpu.PointsBindings{Samples: samplesBuf, Draw: drawBuf, View: viewBuf}, 0, 6*len(samples))
	done, err := f.Submit()
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("frame did not complete")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, b.Snapshot(img))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.Equal(t, color.RGBA{}, img.RGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

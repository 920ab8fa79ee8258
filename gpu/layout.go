package gpu

import (
	"unsafe"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

// LinePoint is one chart column of a dataset's line envelope, in chart-space
// pixels. Fine holds the extent of the column's own samples; Course widens it
// with the neighbouring columns.
type LinePoint struct {
	FineMin, FineMax     int32
	CourseMin, CourseMax int32
}

// Empty reports whether the column's fine range holds no samples.
func (p LinePoint) Empty() bool {
	return p.FineMin > p.FineMax
}

// EmptyLinePoint is the initial value of every column before samples are
// folded in.
var EmptyLinePoint = LinePoint{FineMin: EmptyMin, FineMax: EmptyMax, CourseMin: EmptyMin, CourseMax: EmptyMax}

// Mat is a geom.Mat2x3 laid out as a WGSL mat2x3<f32>: two columns, each
// padded to a vec4.
type Mat [8]float32

// PackMat2x3 converts m for upload.
func PackMat2x3(m geom.Mat2x3) Mat {
	return Mat{
		float32(m.A), float32(m.B), float32(m.C), 0,
		float32(m.D), float32(m.E), float32(m.F), 0,
	}
}

// MulX applies the first column to (x, 0, 1), as the shaders do.
func (m Mat) MulX(x float32) float32 {
	return x*m[0] + m[2]
}

// MulY applies the second column to (0, y, 1).
func (m Mat) MulY(y float32) float32 {
	return y*m[5] + m[6]
}

// Apply transforms (x, y) by the full matrix.
func (m Mat) Apply(x, y float32) (float32, float32) {
	return x*m[0] + y*m[1] + m[2], x*m[4] + y*m[5] + m[6]
}

// View is the per-frame uniform shared by every program.
type View struct {
	// ChartBounds is [left, bottom, width, height] in canvas pixels.
	ChartBounds           [4]float32
	SampleToChart         Mat
	ChartToSample         Mat
	ChartToNDC            Mat
	HighlightedSampleX    uint32
	HighlightedDatasetIdx uint32
	_                     [2]uint32
}

// DrawInfo is the per-dataset uniform.
type DrawInfo struct {
	Color      [4]float32
	DatasetIdx uint32
	_          [3]uint32
}

// GridInfo holds gridline spacing in chart pixels.
type GridInfo struct {
	Major [2]float32
	Minor [2]float32
}

// RectInfo describes the zoom selection overlay. Rect is [left, bottom,
// width, height] in canvas pixels.
type RectInfo struct {
	Rect  [4]float32
	Color [4]float32
}

const (
	LinePointSize = int(unsafe.Sizeof(LinePoint{}))
	ViewSize      = int(unsafe.Sizeof(View{}))
	DrawInfoSize  = int(unsafe.Sizeof(DrawInfo{}))
	GridInfoSize  = int(unsafe.Sizeof(GridInfo{}))
	RectInfoSize  = int(unsafe.Sizeof(RectInfo{}))
)

// ToBytes reinterprets s as bytes without copying.
func ToBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// FromBytes reinterprets b as a slice of T without copying. Trailing bytes
// that do not fill a whole T are ignored. b must be suitably aligned for T.
func FromBytes[T any](b []byte) []T {
	var zero T
	n := len(b) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// Bytes returns a pointer to a single value as bytes.
func Bytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

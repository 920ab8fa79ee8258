// Package engine is an interactive time-series chart. It aligns any number
// of datasets onto one shared x axis, keeps the coordinate spaces of the
// chart in step with zooming, and renders through a gpu.Backend.
//
// A Chart is owned by the UI goroutine. Only Redraw may be called from
// elsewhere.
package engine

import (
	"context"
	"image"
	"image/color"
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
)

// Color is a straight-alpha colour with components in [0,1].
type Color struct {
	R, G, B, A float32
}

// NRGBA converts c to 8 bits per channel.
func (c Color) NRGBA() color.NRGBA {
	to8 := func(v float32) uint8 {
		return uint8(geom.Saturate(v)*255 + 0.5)
	}
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

// ColorFromNRGBA converts an 8 bit colour.
func ColorFromNRGBA(c color.NRGBA) Color {
	return Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// Dataset is one line of the chart. Samples may be in any order; their x
// values should be unique within the dataset.
type Dataset[S any] struct {
	Label   string
	Samples []S
	Color   Color
}

// Adapter extracts chart values from the caller's sample type.
type Adapter[S any] struct {
	// X returns the sample's position on the shared x axis. It must be
	// finite.
	X func(S) float64
	// Y returns the sample's value. NaN or an infinity marks the sample as
	// missing.
	Y func(S) float64
	// XAxisLabel formats an x value (as returned by X).
	XAxisLabel func(x float64) string
	// YAxisLabel formats a y value.
	YAxisLabel func(y float64) string
	// Tooltip returns the markup shown when the pointer is over s.
	Tooltip func(s S, d *Dataset[S]) string
}

// DefaultMargin is used when a Config has none.
var DefaultMargin = geom.Rect{T: 20, R: 100, B: 300, L: 200}

// Config describes a chart.
type Config[S any] struct {
	Adapter Adapter[S]
	// Margin is the space around the plotting area, in canvas pixels.
	Margin *geom.Rect
	// OnClick is called when a sample is clicked.
	OnClick func(s S, d *Dataset[S])
	// Acquire returns the backend to render with. It is called once, off
	// the UI goroutine.
	Acquire func(context.Context) (gpu.Backend, error)
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Host is the surface the chart is displayed on.
type Host interface {
	// CanvasSize returns the size of the drawing surface in device pixels.
	CanvasSize() image.Point
	// PixelRatio is the number of device pixels per logical pixel.
	PixelRatio() float64
	// ScheduleFrame asks for Chart.Frame to be called once on the next
	// display refresh. It may be called from any goroutine.
	ScheduleFrame()
	ShowTooltip(Tooltip)
	HideTooltip()
	// SetCrosshair switches the pointer cursor between a crosshair and the
	// default.
	SetCrosshair(on bool)
}

// Tooltip describes the hover box for a sample.
type Tooltip struct {
	Markup string
	// Pos is the top-left anchor in canvas pixels, origin top-left.
	Pos image.Point
	// AlignX is the fraction of the tooltip's width to shift it left by.
	AlignX     float64
	Background color.NRGBA
}

// Axis identifies a chart axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// AxisLabel is a label placed at a major gridline. Pos is in canvas pixels
// with the origin at the bottom-left: for x labels it is the gridline's foot
// on the bottom of the chart, for y labels its end on the left.
type AxisLabel struct {
	Axis Axis
	Pos  geom.Point
	Text string
}

// Buttons is a set of pointer buttons.
type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
)

// Modifiers is a set of held keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
)

// PointerKind is the type of a PointerEvent.
type PointerKind uint8

const (
	PointerPress PointerKind = iota
	PointerRelease
	PointerMove
	PointerScroll
	PointerLeave
)

// PointerEvent is pointer input in canvas space.
type PointerEvent struct {
	Kind PointerKind
	// Pos is in device pixels with the origin at the bottom-left of the
	// canvas.
	Pos geom.Point
	// Buttons is the set of buttons held after the event.
	Buttons Buttons
	// Button is the button that was pressed or released.
	Button    Buttons
	Modifiers Modifiers
	// ScrollY is the scroll distance. Negative values scroll up.
	ScrollY float64
}

package main

import (
	"html"
	"image"
	"log"
	"math"
	"strconv"
	"strings"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	strip "github.com/grokify/html-strip-tags-go"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
	"git.sr.ht/~whereswaldon/perfgraph/engine"
	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/units"
)

var zoomOutIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.ActionZoomOut)
	return icon
}()

const (
	chartHeight   unit.Dp = 600
	tooltipWidth  unit.Dp = 420
	axisLabelGap  unit.Dp = 6
	tooltipInset  unit.Dp = 8
	legendRowSize unit.Sp = 20
)

// ChartView displays the benchmarks of one system. It is the engine.Host of
// its chart.
type ChartView struct {
	Name  string
	chart *engine.Chart[backend.DataPoint]

	invalidate func()
	size       image.Point
	ratio      float64
	held       engine.Buttons
	ctrl       bool

	tooltip   *engine.Tooltip
	crosshair bool
	frame     paint.ImageOp
	hasFrame  bool

	title    widget.Clickable
	resetBtn widget.Clickable
	keyTable component.GridState
}

// NewChartView returns the view of one system's chart. invalidate must be
// safe to call from any goroutine.
func NewChartView(name string, cfg Config, invalidate func()) *ChartView {
	v := &ChartView{Name: name, invalidate: invalidate, ratio: 1}
	v.chart = engine.New[backend.DataPoint](v, cfg.ChartConfig(func(p backend.DataPoint, d *engine.Dataset[backend.DataPoint]) {
		log.Printf("%s %s: %s", d.Label, units.FormatDuration(p.Duration), backend.CommitURL(p.Commit))
	}))
	return v
}

func (v *ChartView) CanvasSize() image.Point { return v.size }
func (v *ChartView) PixelRatio() float64     { return v.ratio }
func (v *ChartView) ScheduleFrame()          { v.invalidate() }

func (v *ChartView) ShowTooltip(t engine.Tooltip) { v.tooltip = &t }
func (v *ChartView) HideTooltip()                 { v.tooltip = nil }
func (v *ChartView) SetCrosshair(on bool)         { v.crosshair = on }

// SetSystem replaces the plotted benchmarks.
func (v *ChartView) SetSystem(sys backend.System) {
	v.chart.Datasets = sys.Benchmarks
	v.chart.Update()
}

// Close releases the chart.
func (v *ChartView) Close() {
	v.chart.Close()
}

// canvasEvent converts a gio pointer event in widget space to the chart's
// canvas space. held tracks the buttons down between events.
func canvasEvent(ev pointer.Event, height int, held *engine.Buttons) (engine.PointerEvent, bool) {
	out := engine.PointerEvent{
		Pos:     geom.Pt(float64(ev.Position.X), float64(height)-float64(ev.Position.Y)),
		Buttons: chartButtons(ev.Buttons),
	}
	if ev.Modifiers.Contain(key.ModCtrl) {
		out.Modifiers |= engine.ModCtrl
	}
	if ev.Modifiers.Contain(key.ModAlt) {
		out.Modifiers |= engine.ModAlt
	}
	if ev.Modifiers.Contain(key.ModShift) {
		out.Modifiers |= engine.ModShift
	}
	switch ev.Kind {
	case pointer.Press:
		out.Kind = engine.PointerPress
		out.Button = out.Buttons &^ *held
		*held = out.Buttons
	case pointer.Release:
		out.Kind = engine.PointerRelease
		// Depending on platform the event carries either the buttons still
		// down or the buttons released.
		released := *held &^ out.Buttons
		if released == 0 {
			released = *held
		}
		out.Button = released
		*held &^= released
		out.Buttons = *held
	case pointer.Move, pointer.Drag, pointer.Enter:
		out.Kind = engine.PointerMove
		out.Buttons = *held
	case pointer.Scroll:
		out.Kind = engine.PointerScroll
		out.ScrollY = float64(ev.Scroll.Y)
		out.Buttons = *held
	case pointer.Leave, pointer.Cancel:
		out.Kind = engine.PointerLeave
		if ev.Kind == pointer.Cancel {
			*held = 0
		}
		out.Buttons = *held
	default:
		return engine.PointerEvent{}, false
	}
	return out, true
}

func chartButtons(b pointer.Buttons) engine.Buttons {
	var out engine.Buttons
	if b.Contain(pointer.ButtonPrimary) {
		out |= engine.ButtonPrimary
	}
	if b.Contain(pointer.ButtonSecondary) {
		out |= engine.ButtonSecondary
	}
	return out
}

// tooltipText renders tooltip markup as plain text.
func tooltipText(markup string) string {
	markup = strings.NewReplacer("<br>", "\n", "</p>", "\n", "\n", "").Replace(markup)
	lines := strings.Split(html.UnescapeString(strip.StripTags(markup)), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// chartFilter matches the pointer events of a chart. The wheel is only
// claimed while Ctrl is held so the enclosing list scrolls otherwise.
func chartFilter(tag event.Tag, ctrl bool) pointer.Filter {
	f := pointer.Filter{
		Target: tag,
		Kinds:  pointer.Press | pointer.Release | pointer.Move | pointer.Drag | pointer.Scroll | pointer.Enter | pointer.Leave | pointer.Cancel,
	}
	if ctrl {
		f.ScrollBounds = image.Rectangle{
			Min: image.Pt(0, math.MinInt32),
			Max: image.Pt(0, math.MaxInt32),
		}
	}
	return f
}

func (v *ChartView) Update(gtx C) {
	if v.resetBtn.Clicked(gtx) {
		v.chart.ResetZoom()
	}
	for {
		ev, ok := gtx.Event(chartFilter(v, v.ctrl))
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		v.ctrl = pe.Modifiers.Contain(key.ModCtrl)
		if pe.Kind == pointer.Scroll && pe.Scroll.Y == 0 {
			continue
		}
		if ce, ok := canvasEvent(pe, v.size.Y, &v.held); ok {
			v.chart.HandlePointer(ce)
		}
	}
}

// snapshot copies the chart's latest frame into a new image op. Images
// handed to gio must not change afterwards.
func (v *ChartView) snapshot() {
	img := image.NewRGBA(image.Rectangle{Max: v.size})
	if err := v.chart.Snapshot(img); err != nil {
		log.Printf("reading %s chart: %v", v.Name, err)
		return
	}
	v.frame = paint.NewImageOp(img)
	v.hasFrame = true
}

// Layout draws the chart across the available width.
func (v *ChartView) Layout(gtx C, th *material.Theme) D {
	v.size = image.Pt(gtx.Constraints.Max.X, gtx.Dp(chartHeight))
	v.ratio = float64(gtx.Metric.PxPerDp)
	v.Update(gtx)
	if v.chart.Frame() {
		v.snapshot()
	}
	gtx.Constraints = layout.Exact(v.size)
	defer clip.Rect{Max: v.size}.Push(gtx.Ops).Pop()

	if v.chart.Inert() {
		return layout.Center.Layout(gtx, material.Body1(th, "Charts are unavailable: no GPU adapter was found.").Layout)
	}
	if v.hasFrame && v.frame.Size() == v.size {
		v.frame.Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
	}
	v.layoutAxisLabels(gtx, th)

	event.Op(gtx.Ops, v)
	if v.crosshair {
		pointer.CursorCrosshair.Add(gtx.Ops)
	}
	v.layoutTooltip(gtx, th)
	return D{Size: v.size}
}

// layoutAxisLabels draws the x labels rotated below the plot and the y
// labels to its left.
func (v *ChartView) layoutAxisLabels(gtx C, th *material.Theme) {
	gtx.Constraints.Min = image.Point{}
	gap := float32(gtx.Dp(axisLabelGap))
	for _, l := range v.chart.AxisLabels() {
		label := material.Caption(th, l.Text)
		label.MaxLines = 1
		label.Color = axisLabelColor
		dims, call := rec(gtx, label.Layout)
		size := layout.FPt(dims.Size)
		anchor := f32.Pt(float32(l.Pos.X), float32(v.size.Y)-float32(l.Pos.Y))
		var tr f32.Affine2D
		switch l.Axis {
		case engine.AxisX:
			tr = f32.Affine2D{}.
				Offset(f32.Pt(-size.X, -size.Y/2)).
				Rotate(f32.Point{}, -math.Pi/2).
				Offset(anchor.Add(f32.Pt(0, gap)))
		case engine.AxisY:
			tr = f32.Affine2D{}.Offset(anchor.Sub(f32.Pt(size.X+gap, size.Y/2)))
		}
		stack := op.Affine(tr).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
}

func (v *ChartView) layoutTooltip(gtx C, th *material.Theme) {
	t := v.tooltip
	if t == nil {
		return
	}
	gtx.Constraints.Min = image.Point{}
	gtx.Constraints.Max.X = min(gtx.Constraints.Max.X, gtx.Dp(tooltipWidth))
	label := material.Body2(th, tooltipText(t.Markup))
	label.Color = tooltipTextColor
	dims, call := rec(gtx, func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, t.Background, clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, gtx.Dp(4)).Op(gtx.Ops))
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(tooltipInset).Layout(gtx, label.Layout)
			},
		)
	})
	pos := t.Pos
	pos.X -= int(math.Round(t.AlignX * float64(dims.Size.X)))
	pos.X = clampTo(pos.X, 0, v.size.X-dims.Size.X)
	pos.Y = clampTo(pos.Y, 0, v.size.Y-dims.Size.Y)
	defer op.Offset(pos).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}

func clampTo[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

// LayoutLegend draws a table of the chart's benchmarks with their latest
// result.
func (v *ChartView) LayoutLegend(gtx C, th *material.Theme, sys backend.System) D {
	table := component.Table(th, &v.keyTable)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(120)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(legendRowSize)
	const (
		colorCol = iota
		nameCol
		latestCol
		samplesCol
		numCols
	)
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, rowHeight*(len(sys.Benchmarks)+1)+gtx.Dp(4))
	return table.Layout(gtx, len(sys.Benchmarks), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			switch index {
			case colorCol:
				return min(colorColWidth, constraint)
			case nameCol:
				return min(max(nameColWidth, 0), constraint)
			default:
				return min(valueColWidth, constraint)
			}
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(th, "Color")
			case nameCol:
				l = material.Body1(th, "Benchmark")
			case latestCol:
				l = material.Body1(th, "Latest")
				l.Alignment = text.End
			default:
				l = material.Body1(th, "Samples")
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			bench := sys.Benchmarks[row]
			fill := nrgba(bench.Color)
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				switch col {
				case colorCol:
					return layout.Center.Layout(gtx, func(gtx C) D {
						side := gtx.Dp(10)
						sz := image.Pt(side, side)
						paint.FillShape(gtx.Ops, fill, clip.Rect{Max: sz}.Op())
						return D{Size: sz}
					})
				case nameCol:
					return material.Body2(th, bench.Label).Layout(gtx)
				case latestCol:
					l := material.Body2(th, units.FormatDuration(latest(bench)))
					l.Alignment = text.End
					return l.Layout(gtx)
				default:
					l := material.Body2(th, strconv.Itoa(len(bench.Samples)))
					l.Alignment = text.End
					return l.Layout(gtx)
				}
			})
			if row&1 != 0 {
				paint.FillShape(gtx.Ops, stripe(fill), clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}

// latest returns the most recent finite duration of d, or NaN.
func latest(d engine.Dataset[backend.DataPoint]) float64 {
	for i := len(d.Samples) - 1; i >= 0; i-- {
		if v := d.Samples[i].Duration; !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return math.NaN()
}

var _ engine.Host = (*ChartView)(nil)

// TitleStyle is a clickable system name.
func TitleStyle(th *material.Theme, v *ChartView, selected bool) layout.Widget {
	return func(gtx C) D {
		return material.Clickable(gtx, &v.title, func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
				l := material.H6(th, v.Name)
				if selected {
					l.Color = selectedColor
				}
				return l.Layout(gtx)
			})
		})
	}
}

// ResetStyle is the button returning the chart to its full extent.
func ResetStyle(th *material.Theme, v *ChartView) layout.Widget {
	btn := material.IconButton(th, &v.resetBtn, zoomOutIcon, "Reset zoom")
	btn.Size = 20
	btn.Inset = layout.UniformInset(4)
	return btn.Layout
}

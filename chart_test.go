package main

import (
	"image"
	"math"
	"testing"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/input"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/op"
	"gioui.org/op/clip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
	"git.sr.ht/~whereswaldon/perfgraph/engine"
	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

func TestCanvasEventFlipsY(t *testing.T) {
	var held engine.Buttons
	ev, ok := canvasEvent(pointer.Event{Kind: pointer.Move, Position: f32.Pt(30, 100)}, 600, &held)
	require.True(t, ok)
	assert.Equal(t, engine.PointerMove, ev.Kind)
	assert.Equal(t, geom.Pt(30, 500), ev.Pos)
}

func TestCanvasEventButtons(t *testing.T) {
	var held engine.Buttons
	press, _ := canvasEvent(pointer.Event{Kind: pointer.Press, Buttons: pointer.ButtonPrimary}, 100, &held)
	assert.Equal(t, engine.PointerPress, press.Kind)
	assert.Equal(t, engine.ButtonPrimary, press.Button)
	assert.Equal(t, engine.ButtonPrimary, press.Buttons)

	drag, _ := canvasEvent(pointer.Event{Kind: pointer.Drag, Buttons: pointer.ButtonPrimary}, 100, &held)
	assert.Equal(t, engine.PointerMove, drag.Kind)
	assert.Equal(t, engine.ButtonPrimary, drag.Buttons)

	second, _ := canvasEvent(pointer.Event{Kind: pointer.Press, Buttons: pointer.ButtonPrimary | pointer.ButtonSecondary}, 100, &held)
	assert.Equal(t, engine.ButtonSecondary, second.Button)

	for _, tc := range []struct {
		name    string
		buttons pointer.Buttons
	}{
		{name: "reports buttons still down", buttons: pointer.ButtonPrimary},
		{name: "reports buttons released", buttons: pointer.ButtonSecondary},
	} {
		t.Run(tc.name, func(t *testing.T) {
			held := engine.ButtonPrimary | engine.ButtonSecondary
			release, _ := canvasEvent(pointer.Event{Kind: pointer.Release, Buttons: tc.buttons}, 100, &held)
			assert.Equal(t, engine.PointerRelease, release.Kind)
			if tc.buttons == pointer.ButtonPrimary {
				assert.Equal(t, engine.ButtonSecondary, release.Button)
				assert.Equal(t, engine.ButtonPrimary, release.Buttons)
			} else {
				assert.Equal(t, engine.ButtonPrimary, release.Button)
				assert.Equal(t, engine.ButtonSecondary, release.Buttons)
			}
			assert.Equal(t, release.Buttons, held)
		})
	}

	held = engine.ButtonPrimary
	release, _ := canvasEvent(pointer.Event{Kind: pointer.Release, Buttons: pointer.ButtonPrimary}, 100, &held)
	assert.Equal(t, engine.ButtonPrimary, release.Button)
	assert.Zero(t, release.Buttons)
	assert.Zero(t, held)
}

func TestCanvasEventScrollAndModifiers(t *testing.T) {
	var held engine.Buttons
	ev, ok := canvasEvent(pointer.Event{
		Kind:      pointer.Scroll,
		Scroll:    f32.Pt(0, -3),
		Modifiers: key.ModCtrl | key.ModAlt,
	}, 100, &held)
	require.True(t, ok)
	assert.Equal(t, engine.PointerScroll, ev.Kind)
	assert.Equal(t, -3.0, ev.ScrollY)
	assert.Equal(t, engine.ModCtrl|engine.ModAlt, ev.Modifiers)
}

func TestCanvasEventCancelReleasesButtons(t *testing.T) {
	held := engine.ButtonPrimary
	ev, ok := canvasEvent(pointer.Event{Kind: pointer.Cancel}, 100, &held)
	require.True(t, ok)
	assert.Equal(t, engine.PointerLeave, ev.Kind)
	assert.Zero(t, held)
}

// scrolled sums the scroll distance delivered to the filter's target.
func scrolled(r *input.Router, f event.Filter) f32.Point {
	var sum f32.Point
	for {
		ev, ok := r.Event(f)
		if !ok {
			return sum
		}
		if pe, ok := ev.(pointer.Event); ok && pe.Kind == pointer.Scroll {
			sum = sum.Add(pe.Scroll)
		}
	}
}

func TestChartWheelReachesEnclosingList(t *testing.T) {
	for _, tc := range []struct {
		name        string
		mods        key.Modifiers
		list, chart f32.Point
	}{
		{name: "plain wheel scrolls the list", list: f32.Pt(0, 40)},
		{name: "ctrl wheel zooms the chart", mods: key.ModCtrl, chart: f32.Pt(0, 40)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			list, chart := new(int), new(int)
			ctrl := tc.mods.Contain(key.ModCtrl)
			listFilter := pointer.Filter{
				Target:       list,
				Kinds:        pointer.Scroll,
				ScrollBounds: image.Rect(0, -1000, 0, 1000),
			}
			var (
				ops op.Ops
				r   input.Router
			)
			scrolled(&r, listFilter)
			scrolled(&r, chartFilter(chart, ctrl))
			outer := clip.Rect(image.Rect(0, 0, 100, 1000)).Push(&ops)
			event.Op(&ops, list)
			inner := clip.Rect(image.Rect(0, 0, 100, 600)).Push(&ops)
			event.Op(&ops, chart)
			inner.Pop()
			outer.Pop()
			r.Frame(&ops)
			r.Queue(pointer.Event{
				Kind:      pointer.Scroll,
				Source:    pointer.Mouse,
				Position:  f32.Pt(50, 300),
				Scroll:    f32.Pt(0, 40),
				Modifiers: tc.mods,
			})
			assert.Equal(t, tc.chart, scrolled(&r, chartFilter(chart, ctrl)))
			assert.Equal(t, tc.list, scrolled(&r, listFilter))
		})
	}
}

func TestTooltipText(t *testing.T) {
	p := backend.DataPoint{
		Commit:      "0123456789abcdef",
		Description: "Fix <T> & friends",
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    0.0025,
	}
	d := &engine.Dataset[backend.DataPoint]{Label: "Castable<f32>"}
	got := tooltipText(backend.Tooltip(p, d))
	assert.Equal(t, "Castable<f32>\n2.5ms - Fri Mar 01 2024\nFix <T> & friends\n\n0123456789abcdef", got)
}

func TestLatest(t *testing.T) {
	d := engine.Dataset[backend.DataPoint]{Samples: []backend.DataPoint{
		{Duration: 1}, {Duration: 2}, {Duration: math.NaN()},
	}}
	assert.Equal(t, 2.0, latest(d))
	assert.True(t, math.IsNaN(latest(engine.Dataset[backend.DataPoint]{})))
}

func TestClampTo(t *testing.T) {
	assert.Equal(t, 5, clampTo(5, 0, 10))
	assert.Equal(t, 0, clampTo(-3, 0, 10))
	assert.Equal(t, 10, clampTo(12, 0, 10))
	assert.Equal(t, 0, clampTo(4, 0, -2), "a tooltip wider than the chart sticks to the left")
}

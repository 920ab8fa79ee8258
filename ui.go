package main

import (
	"errors"
	"image"
	"image/color"
	"log"
	"slices"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

type openResult struct {
	name string
	err  error
}

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws         backend.WindowState
	expl       *explorer.Explorer
	cfg        Config
	invalidate func()
	th         *material.Theme

	sel     Selection
	tab     widget.Enum
	openBtn widget.Clickable
	opening bool
	opened  chan openResult
	list    widget.List

	snapshots *stream.Stream[backend.Snapshot]
	snapshot  backend.Snapshot
	applied   time.Time
	charts    map[string]*ChartView
	order     []string
	// scrollTo is set until the selected system has been scrolled into view.
	scrollTo bool
	err      string
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, cfg Config, invalidate func()) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		ws:         ws,
		expl:       expl,
		cfg:        cfg,
		invalidate: invalidate,
		th:         th,
		sel:        Selection{Source: ws.Source, Dataset: cfg.Dataset, System: cfg.System},
		tab:        widget.Enum{Value: cfg.Dataset},
		opened:     make(chan openResult, 1),
		list:       widget.List{List: layout.List{Axis: layout.Vertical}},
		charts:     map[string]*ChartView{},
	}
	ui.watch()
	return ui
}

// watch starts streaming the selected dataset.
func (ui *UI) watch() {
	mut := ui.ws.Datasource.Watch(ui.sel.Source, ui.sel.Dataset)
	ui.snapshots = stream.New(ui.ws.Controller, mut.Stream)
	ui.snapshot = backend.Snapshot{}
	ui.applied = time.Time{}
	ui.scrollTo = ui.sel.System != ""
}

// open asks the user for a results file. It runs off the UI goroutine.
func (ui *UI) open() {
	res := openResult{}
	f, err := ui.expl.ChooseFile(".json")
	if err != nil {
		res.err = err
	} else {
		if named, ok := f.(interface{ Name() string }); ok {
			res.name = named.Name()
		} else {
			res.err = errors.New("the chosen file has no path")
		}
		f.Close()
	}
	ui.opened <- res
	ui.invalidate()
}

// Update the state of the UI from input and new results.
func (ui *UI) Update(gtx C) {
	if ui.tab.Update(gtx) && ui.tab.Value != ui.sel.Dataset {
		ui.sel.Dataset = ui.tab.Value
		ui.watch()
	}
	if !ui.opening && ui.openBtn.Clicked(gtx) {
		ui.opening = true
		go ui.open()
	}
	select {
	case res := <-ui.opened:
		ui.opening = false
		ui.openFile(res)
	default:
	}

	ui.snapshots.ReadInto(gtx, &ui.snapshot, backend.Snapshot{})
	if ui.snapshot.Dataset == ui.sel.Dataset && !ui.snapshot.Loaded.Equal(ui.applied) {
		ui.apply(ui.snapshot)
	}
	for _, name := range ui.order {
		if ui.charts[name].title.Clicked(gtx) {
			ui.sel.System = name
			log.Printf("selected system %s", name)
		}
	}
}

func (ui *UI) openFile(res openResult) {
	if errors.Is(res.err, explorer.ErrUserDecline) {
		return
	}
	if res.err != nil {
		ui.err = res.err.Error()
		return
	}
	sel, err := ui.sel.Open(res.name)
	if err != nil {
		ui.err = err.Error()
		return
	}
	ui.err = ""
	ui.sel = sel
	if !slices.Contains(ui.cfg.Datasets, sel.Dataset) {
		ui.cfg.Datasets = append(ui.cfg.Datasets, sel.Dataset)
	}
	ui.tab.Value = sel.Dataset
	ui.watch()
}

// apply shows snap, reusing the chart of every system still present.
func (ui *UI) apply(snap backend.Snapshot) {
	ui.applied = snap.Loaded
	if snap.Err != nil {
		ui.err = snap.Err.Error()
	} else {
		ui.err = ""
	}
	if snap.Err != nil && len(snap.Systems) == 0 {
		return
	}
	order := make([]string, 0, len(snap.Systems))
	for _, sys := range snap.Systems {
		v, ok := ui.charts[sys.Name]
		if !ok {
			v = NewChartView(sys.Name, ui.cfg, ui.invalidate)
			ui.charts[sys.Name] = v
		}
		v.SetSystem(sys)
		order = append(order, sys.Name)
	}
	for name, v := range ui.charts {
		if !slices.Contains(order, name) {
			v.Close()
			delete(ui.charts, name)
		}
	}
	ui.order = order
	if ui.scrollTo {
		if i := slices.Index(order, ui.sel.System); i >= 0 {
			ui.list.Position.First = i
			ui.list.Position.Offset = 0
			ui.scrollTo = false
		}
	}
}

// Close releases every chart.
func (ui *UI) Close() {
	for _, v := range ui.charts {
		v.Close()
	}
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx C) D {
		return t.border.Layout(gtx, func(gtx C) D {
			return t.inset.Layout(gtx, func(gtx C) D {
				return t.state.Layout(gtx, t.value, func(gtx C) D {
					return layout.Background{}.Layout(gtx, func(gtx C) D {
						paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
						return D{Size: gtx.Constraints.Min}
					}, t.label.Layout)
				})
			})
		})
	})
}

func (ui *UI) layoutHeader(gtx C) D {
	tabs := make([]layout.FlexChild, 0, len(ui.cfg.Datasets)+1)
	for _, name := range ui.cfg.Datasets {
		tabs = append(tabs, layout.Flexed(1, Tab(ui.th, &ui.tab, name, name).Layout))
	}
	tabs = append(tabs, layout.Rigid(func(gtx C) D {
		if ui.opening {
			gtx = gtx.Disabled()
		}
		return layout.UniformInset(2).Layout(gtx, material.Button(ui.th, &ui.openBtn, "Open Results File").Layout)
	}))
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx, tabs...)
}

func (ui *UI) layoutSystem(gtx C, name string) D {
	v := ui.charts[name]
	sys, _ := ui.snapshot.System(name)
	return layout.Inset{Bottom: 24}.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, TitleStyle(ui.th, v, name == ui.sel.System)),
					layout.Rigid(ResetStyle(ui.th, v)),
				)
			}),
			layout.Rigid(func(gtx C) D {
				return v.Layout(gtx, ui.th)
			}),
			layout.Rigid(func(gtx C) D {
				return v.LayoutLegend(gtx, ui.th, sys)
			}),
		)
	})
}

func (ui *UI) layoutCharts(gtx C) D {
	if len(ui.order) == 0 {
		return layout.Center.Layout(gtx, func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body1(ui.th, "No results yet.").Layout(gtx)
		})
	}
	return material.List(ui.th, &ui.list).Layout(gtx, len(ui.order), func(gtx C, i int) D {
		return ui.layoutSystem(gtx, ui.order[i])
	})
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutHeader),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, material.Caption(ui.th, Describe(ui.snapshot, ui.sel.Source)).Layout)
		}),
		layout.Rigid(func(gtx C) D {
			if len(ui.err) == 0 {
				return D{}
			}
			l := material.Body1(ui.th, ui.err)
			l.Color = errorColor
			return l.Layout(gtx)
		}),
		layout.Flexed(1, ui.layoutCharts),
	)
}

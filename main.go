package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		log.Fatal(err)
	}
	go func() {
		w := app.NewWindow(app.Title("perfgraph"), app.Size(unit.Dp(1280), unit.Dp(900)))
		if err := loop(w, cfg); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mutator := stream.NewMutator(ctx, time.Second)
	bundle := backend.NewBundle(mutator, cfg.Source(), cfg.Options())
	ws := backend.NewWindowState(ctx, bundle, w)
	expl := explorer.NewExplorer(w)
	ui := NewUI(ws, expl, cfg, w.Invalidate)
	defer ui.Close()

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

package backend

import (
	"context"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
)

type WindowState struct {
	Bundle
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, bundle Bundle, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}

type Bundle struct {
	Datasource *Datasource
	// Source is where results are read from until the user opens a
	// directory.
	Source Source
}

func NewBundle(mutator *stream.Mutator, src Source, opts Options) Bundle {
	return Bundle{
		Datasource: NewDatasource(mutator, opts),
		Source:     src,
	}
}

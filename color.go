package main

import (
	"image/color"

	"git.sr.ht/~whereswaldon/perfgraph/engine"
)

var (
	axisLabelColor   = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	tooltipTextColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	selectedColor    = color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}
	errorColor       = color.NRGBA{R: 150, A: 255}
)

// nrgba converts a series colour for drawing with gio, ignoring its
// transparency.
func nrgba(c engine.Color) color.NRGBA {
	out := c.NRGBA()
	out.A = 0xff
	return out
}

// stripe is the faint row background of a series in the legend.
func stripe(c color.NRGBA) color.NRGBA {
	c.A = 50
	return c
}

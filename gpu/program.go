package gpu

import "fmt"

// Program names a shader program and the version of its interface. The
// version changes whenever the program's bindings or buffer layouts change.
type Program struct {
	Name    string
	Version int
}

// File returns the name of the resource holding the program's source.
func (p Program) File() string {
	return fmt.Sprintf("%s.v%d.wgsl", p.Name, p.Version)
}

func (p Program) String() string {
	return fmt.Sprintf("%s@v%d", p.Name, p.Version)
}

var (
	// Common holds declarations shared by every other program.
	Common         = Program{Name: "common", Version: 1}
	SamplesToLines = Program{Name: "samples_to_lines", Version: 1}
	ProcessLines   = Program{Name: "process_lines", Version: 1}
	DrawGrid       = Program{Name: "draw_grid", Version: 1}
	DrawLine       = Program{Name: "draw_line", Version: 1}
	DrawPoints     = Program{Name: "draw_points", Version: 1}
	DrawRect       = Program{Name: "draw_rect", Version: 1}
)

// Programs lists every program a backend must provide, in dependency order.
var Programs = []Program{Common, SamplesToLines, ProcessLines, DrawGrid, DrawLine, DrawPoints, DrawRect}

// SamplesToLinesBindings feeds the first simplification pass: one float32 per
// sample index in, one LinePoint per chart column out.
type SamplesToLinesBindings struct {
	Samples Buffer
	Lines   Buffer
	View    Buffer
}

// ProcessLinesBindings feeds the second simplification pass, which widens
// the fine envelope into the coarse one in place.
type ProcessLinesBindings struct {
	Lines Buffer
}

// GridBindings feeds the background grid.
type GridBindings struct {
	Grid Buffer
	View Buffer
}

// LineBindings feeds the line drawing program.
type LineBindings struct {
	Lines Buffer
	Draw  Buffer
	View  Buffer
}

// PointsBindings feeds the point marker program.
type PointsBindings struct {
	Samples Buffer
	Draw    Buffer
	View    Buffer
}

// RectBindings feeds the zoom selection overlay.
type RectBindings struct {
	Rect Buffer
	View Buffer
}

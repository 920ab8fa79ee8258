package backend

import (
	"fmt"
	"html"
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/engine"
	"git.sr.ht/~whereswaldon/perfgraph/units"
)

// CommitURL is where a commit can be viewed.
func CommitURL(commit string) string {
	return "https://dawn.googlesource.com/dawn/+/" + commit
}

// Adapter plots data points by commit time against duration.
var Adapter = engine.Adapter[DataPoint]{
	X: func(p DataPoint) float64 { return float64(p.Date.UnixMilli()) },
	Y: func(p DataPoint) float64 { return p.Duration },
	XAxisLabel: func(x float64) string {
		return time.UnixMilli(int64(x)).UTC().Format("Mon Jan 02 2006")
	},
	YAxisLabel: units.FormatDuration,
	Tooltip:    Tooltip,
}

// Tooltip is the hover markup for a data point.
func Tooltip(p DataPoint, d *engine.Dataset[DataPoint]) string {
	return fmt.Sprintf(`<p class="tooltip-title">%s</p>
<p>%s - %s</p>
<p class="code">%s<br><br>%s</p>`,
		html.EscapeString(d.Label),
		units.FormatDuration(p.Duration),
		p.Date.UTC().Format("Mon Jan 02 2006"),
		html.EscapeString(p.Description),
		p.Commit,
	)
}

// Package units formats measured values for display.
package units

import (
	"math"
	"strconv"
)

type Unit uint8

const (
	Seconds Unit = iota
	Unknown
)

func (u Unit) String() string {
	switch u {
	case Seconds:
		return "s"
	default:
		return "?"
	}
}

const (
	// SecondsToNano is the conversion factor from seconds to nanoseconds.
	SecondsToNano = 1e9
)

// FormatDuration renders a duration in seconds in the largest of ms, μs
// and ns that keeps at least one whole digit, rounded to two decimal places
// (one for ns).
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "-"
	}
	ns := seconds * SecondsToNano
	digits := math.Log10(ns)
	switch {
	case digits >= 6:
		return format(math.Round(ns/1e4)/100) + "ms"
	case digits >= 3:
		return format(math.Round(ns/10)/100) + "μs"
	default:
		return format(math.Round(ns*10)/10) + "ns"
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package units

import (
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		seconds float64
		want    string
	}{
		{seconds: 0.25, want: "250ms"},
		{seconds: 0.0012345, want: "1.23ms"},
		{seconds: 0.000999, want: "999μs"},
		{seconds: 0.0000123456, want: "12.35μs"},
		{seconds: 0.00000042, want: "420ns"},
		{seconds: 0.00000000123, want: "1.2ns"},
		{seconds: 0, want: "0ns"},
		{seconds: math.NaN(), want: "-"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatDuration(tc.seconds); got != tc.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
			}
		})
	}
}

func TestUnitString(t *testing.T) {
	if Seconds.String() != "s" {
		t.Errorf("expected s, got %q", Seconds.String())
	}
	if Unknown.String() != "?" {
		t.Errorf("expected ?, got %q", Unknown.String())
	}
}

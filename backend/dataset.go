package backend

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Results is the contents of one month of benchmark results.
type Results struct {
	Commits []Commit
}

// Commit is one benchmarked revision.
type Commit struct {
	Commit            string
	CommitTime        time.Time
	CommitDescription string
	Benchmarks        []Benchmark
}

// Benchmark is one measurement of a commit.
type Benchmark struct {
	Name string
	// Time is the duration in seconds. Zero means the run failed.
	Time    float64
	Repeats int
}

// DataPoint is a chart sample: one benchmark at one commit.
type DataPoint struct {
	ShortHash   string
	Commit      string
	Description string
	Date        time.Time
	// Duration is in seconds, or NaN if the run failed.
	Duration float64
	Repeats  int
}

// MonthFile is the name of the results file for a dataset and month.
func MonthFile(dataset string, year int, month time.Month) string {
	return fmt.Sprintf("%s-%d-%02d.json", dataset, year, int(month))
}

// ParseMonthFile is the inverse of MonthFile. It accepts a bare file name or
// a path.
func ParseMonthFile(name string) (dataset string, year int, month time.Month, ok bool) {
	name = filepath.Base(name)
	stem, ok := strings.CutSuffix(name, ".json")
	if !ok || len(stem) < len("x-yyyy-mm") {
		return "", 0, 0, false
	}
	dataset, date := stem[:len(stem)-len("-yyyy-mm")], stem[len(stem)-len("yyyy-mm"):]
	if stem[len(dataset)] != '-' || dataset == "" {
		return "", 0, 0, false
	}
	t, err := time.Parse("2006-01", date)
	if err != nil {
		return "", 0, 0, false
	}
	return dataset, t.Year(), t.Month(), true
}

// SplitBenchmarkName splits a benchmark name into the system it exercises
// and the benchmark within that system.
func SplitBenchmarkName(name string) (system, benchmark string) {
	if rest, ok := strings.CutPrefix(name, "Castable"); ok {
		return "Castable", rest
	}
	if rest, ok := strings.CutSuffix(name, "Parser"); ok {
		return "Parser", rest
	}
	if system, benchmark, ok := strings.Cut(name, "/"); ok {
		return system, benchmark
	}
	return name, name
}

// TrimQuotes removes one leading and one trailing double quote.
func TrimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// shortHash is the first seven characters of a commit hash.
func shortHash(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

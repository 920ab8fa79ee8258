package backend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"sync"
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/engine"
)

// Palette is cycled through to colour benchmarks in order of first
// appearance.
var Palette = []engine.Color{
	{R: 151 / 255.0, G: 187 / 255.0, B: 205 / 255.0, A: 0.8},
	{R: 240 / 255.0, G: 170 / 255.0, B: 160 / 255.0, A: 0.8},
	{R: 70 / 255.0, G: 191 / 255.0, B: 189 / 255.0, A: 0.8},
	{R: 253 / 255.0, G: 180 / 255.0, B: 92 / 255.0, A: 0.8},
	{R: 220 / 255.0, G: 190 / 255.0, B: 120 / 255.0, A: 0.8},
	{R: 180 / 255.0, G: 180 / 255.0, B: 210 / 255.0, A: 0.8},
	{R: 150 / 255.0, G: 200 / 255.0, B: 150 / 255.0, A: 0.8},
	{R: 210 / 255.0, G: 160 / 255.0, B: 180 / 255.0, A: 0.8},
	{R: 200 / 255.0, G: 160 / 255.0, B: 240 / 255.0, A: 0.8},
}

// System is every benchmark of one system, one chart's worth of data.
type System struct {
	Name       string
	Benchmarks []engine.Dataset[DataPoint]
}

// Snapshot is a dataset as loaded at one moment.
type Snapshot struct {
	Dataset string
	Systems []System
	Loaded  time.Time
	// Missing counts the months that could not be loaded.
	Missing int
	Err     error
}

// System returns the named system.
func (s Snapshot) System(name string) (System, bool) {
	i := slices.IndexFunc(s.Systems, func(sys System) bool { return sys.Name == name })
	if i < 0 {
		return System{}, false
	}
	return s.Systems[i], true
}

// Months returns the first day of each of the n months up to and including
// the one containing now, most recent first.
func Months(now time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = first.AddDate(0, -i, 0)
	}
	return out
}

// Load fetches the last months of a dataset concurrently and groups the
// results into systems. Months that fail to load are logged and skipped;
// Load only fails if none could be loaded.
func Load(ctx context.Context, src Source, dataset string, now time.Time, months int) (Snapshot, error) {
	if months < 1 {
		return Snapshot{}, fmt.Errorf("loading %q: invalid month count %d", dataset, months)
	}
	dates := Months(now, months)
	results := make([]Results, len(dates))
	errs := make([]error, len(dates))
	var wg sync.WaitGroup
	for i, d := range dates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = src.Fetch(ctx, dataset, d.Year(), d.Month())
		}()
	}
	wg.Wait()

	snap := Snapshot{Dataset: dataset, Loaded: now}
	var loaded []Results
	for i, err := range errs {
		if err != nil {
			if !errors.Is(err, ErrNoResults) {
				log.Printf("loading %s: %v", MonthFile(dataset, dates[i].Year(), dates[i].Month()), err)
			}
			snap.Missing++
			continue
		}
		loaded = append(loaded, results[i])
	}
	if len(loaded) == 0 {
		return snap, fmt.Errorf("loading %q: %w", dataset, errors.Join(errs...))
	}
	snap.Systems = group(loaded)
	return snap, nil
}

// group sorts every benchmark of results into per-system datasets. Systems
// are ordered by name, their benchmarks by label, samples by date. Each
// benchmark name has one colour across every system.
func group(results []Results) []System {
	systems := map[string]map[string]*engine.Dataset[DataPoint]{}
	colors := map[string]engine.Color{}
	for _, res := range results {
		for _, c := range res.Commits {
			for _, b := range c.Benchmarks {
				systemName, name := SplitBenchmarkName(b.Name)
				name = TrimQuotes(name)
				color, ok := colors[name]
				if !ok {
					color = Palette[len(colors)%len(Palette)]
					colors[name] = color
				}
				benchmarks, ok := systems[systemName]
				if !ok {
					benchmarks = map[string]*engine.Dataset[DataPoint]{}
					systems[systemName] = benchmarks
				}
				ds, ok := benchmarks[name]
				if !ok {
					ds = &engine.Dataset[DataPoint]{Label: name, Color: color}
					benchmarks[name] = ds
				}
				ds.Samples = append(ds.Samples, dataPoint(c, b))
			}
		}
	}

	out := make([]System, 0, len(systems))
	for name, benchmarks := range systems {
		sys := System{Name: name}
		for _, ds := range benchmarks {
			slices.SortStableFunc(ds.Samples, func(a, b DataPoint) int {
				return a.Date.Compare(b.Date)
			})
			sys.Benchmarks = append(sys.Benchmarks, *ds)
		}
		slices.SortFunc(sys.Benchmarks, func(a, b engine.Dataset[DataPoint]) int {
			return cmp.Compare(a.Label, b.Label)
		})
		out = append(out, sys)
	}
	slices.SortFunc(out, func(a, b System) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func dataPoint(c Commit, b Benchmark) DataPoint {
	duration := b.Time
	if duration == 0 {
		duration = math.NaN()
	}
	return DataPoint{
		ShortHash:   shortHash(c.Commit),
		Commit:      c.Commit,
		Description: c.CommitDescription,
		Date:        c.CommitTime,
		Duration:    duration,
		Repeats:     b.Repeats,
	}
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource serves results keyed by month file name.
type memSource struct {
	mu      sync.Mutex
	files   map[string]Results
	fail    map[string]error
	fetched []string
}

func (s *memSource) Fetch(ctx context.Context, dataset string, year int, month time.Month) (Results, error) {
	name := MonthFile(dataset, year, month)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, name)
	if err, ok := s.fail[name]; ok {
		return Results{}, err
	}
	res, ok := s.files[name]
	if !ok {
		return Results{}, fmt.Errorf("%s: %w", name, ErrNoResults)
	}
	return res, nil
}

func commitAt(hash string, day int, benchmarks ...Benchmark) Commit {
	return Commit{
		Commit:            hash,
		CommitTime:        time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		CommitDescription: "change " + hash,
		Benchmarks:        benchmarks,
	}
}

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestMonths(t *testing.T) {
	got := Months(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), 3)
	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), got[2])
}

func TestLoadGroupsBySystem(t *testing.T) {
	src := &memSource{files: map[string]Results{
		"dawn-2024-03.json": {Commits: []Commit{
			commitAt("bbbbbbbbbb", 10,
				Benchmark{Name: "Dawn/Draw", Time: 0.002, Repeats: 5},
				Benchmark{Name: `Tint/"Compile"`, Time: 0, Repeats: 5},
			),
			commitAt("aaaaaaaaaa", 2,
				Benchmark{Name: "Dawn/Draw", Time: 0.003, Repeats: 5},
				Benchmark{Name: "Dawn/Clear", Time: 0.001, Repeats: 5},
			),
		}},
		"dawn-2024-02.json": {Commits: []Commit{{
			Commit:     "cccccccccc",
			CommitTime: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			Benchmarks: []Benchmark{{Name: "WGSLParser", Time: 0.5, Repeats: 1}},
		}}},
	}}

	snap, err := Load(context.Background(), src, "dawn", now, 12)
	require.NoError(t, err)
	assert.Len(t, src.fetched, 12)
	assert.Equal(t, "dawn", snap.Dataset)
	assert.Equal(t, 10, snap.Missing)

	require.Len(t, snap.Systems, 3)
	assert.Equal(t, "Dawn", snap.Systems[0].Name)
	assert.Equal(t, "Parser", snap.Systems[1].Name)
	assert.Equal(t, "Tint", snap.Systems[2].Name)

	dawn := snap.Systems[0]
	require.Len(t, dawn.Benchmarks, 2)
	assert.Equal(t, "Clear", dawn.Benchmarks[0].Label)
	draw := dawn.Benchmarks[1]
	assert.Equal(t, "Draw", draw.Label)
	require.Len(t, draw.Samples, 2)
	assert.Equal(t, "aaaaaaa", draw.Samples[0].ShortHash, "samples sorted by date")
	assert.Equal(t, 0.003, draw.Samples[0].Duration)
	assert.Equal(t, "change aaaaaaaaaa", draw.Samples[0].Description)
	assert.Equal(t, 5, draw.Samples[0].Repeats)

	tint, ok := snap.System("Tint")
	require.True(t, ok)
	require.Len(t, tint.Benchmarks, 1)
	assert.Equal(t, "Compile", tint.Benchmarks[0].Label, "quotes trimmed")
	assert.True(t, math.IsNaN(tint.Benchmarks[0].Samples[0].Duration), "failed run is missing")

	_, ok = snap.System("Vulkan")
	assert.False(t, ok)
}

func TestLoadColoursByBenchmarkName(t *testing.T) {
	var benchmarks []Benchmark
	for i := 0; i < len(Palette)+2; i++ {
		benchmarks = append(benchmarks, Benchmark{Name: fmt.Sprintf("A/b%02d", i), Time: 1})
	}
	benchmarks = append(benchmarks, Benchmark{Name: "B/b01", Time: 1})
	src := &memSource{files: map[string]Results{
		"d-2024-03.json": {Commits: []Commit{commitAt("x", 1, benchmarks...)}},
	}}

	snap, err := Load(context.Background(), src, "d", now, 1)
	require.NoError(t, err)
	a, _ := snap.System("A")
	b, _ := snap.System("B")
	require.Len(t, a.Benchmarks, len(Palette)+2)
	for i, ds := range a.Benchmarks {
		assert.Equal(t, Palette[i%len(Palette)], ds.Color, ds.Label)
	}
	assert.Equal(t, a.Benchmarks[1].Color, b.Benchmarks[0].Color, "same name, same colour")
}

func TestLoadFailures(t *testing.T) {
	t.Run("some months fail", func(t *testing.T) {
		src := &memSource{
			files: map[string]Results{"d-2024-03.json": {Commits: []Commit{commitAt("x", 1, Benchmark{Name: "A/b", Time: 1})}}},
			fail:  map[string]error{"d-2024-02.json": errors.New("boom")},
		}
		snap, err := Load(context.Background(), src, "d", now, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Missing)
		assert.Len(t, snap.Systems, 1)
	})
	t.Run("every month fails", func(t *testing.T) {
		boom := errors.New("boom")
		src := &memSource{fail: map[string]error{"d-2024-03.json": boom}}
		_, err := Load(context.Background(), src, "d", now, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, ErrNoResults)
	})
	t.Run("no months", func(t *testing.T) {
		_, err := Load(context.Background(), &memSource{}, "d", now, 0)
		assert.Error(t, err)
	})
}

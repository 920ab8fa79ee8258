package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/perf/benchfmt"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
)

const benchOutput = `goos: linux
goarch: amd64
pkg: dawn.googlesource.com/tint/bench
BenchmarkParser-8   	     100	   1000000 ns/op
BenchmarkParser-8   	     100	   3000000 ns/op
BenchmarkParser-8   	     100	   2000000 ns/op
BenchmarkCastable/f32-8 	 5000	      2500 ns/op	     128 B/op
BenchmarkAllocsOnly-8   	 5000	       12 allocs/op
this line is not a benchmark
PASS
`

func writeBench(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "bench.txt")
	require.NoError(t, os.WriteFile(path, []byte(benchOutput), 0o644))
	return path
}

func TestCollect(t *testing.T) {
	path := writeBench(t, t.TempDir())
	benches, err := collect(&benchfmt.Files{Paths: []string{path}}, "")
	require.NoError(t, err)
	require.Len(t, benches, 2, "results without a time per op are skipped")

	assert.Equal(t, "Parser", benches[0].Name)
	assert.InDelta(t, 0.002, benches[0].Time, 1e-12, "median of the repeats")
	assert.Equal(t, 3, benches[0].Repeats)

	assert.Equal(t, "Castable/f32", benches[1].Name)
	assert.InDelta(t, 2.5e-6, benches[1].Time, 1e-15)
	assert.Equal(t, 1, benches[1].Repeats)
}

func TestCollectWithSystem(t *testing.T) {
	path := writeBench(t, t.TempDir())
	benches, err := collect(&benchfmt.Files{Paths: []string{path}}, "linux-intel")
	require.NoError(t, err)
	require.NotEmpty(t, benches)
	assert.Equal(t, "linux-intel/Parser", benches[0].Name)
}

func TestMerge(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	res := backend.Results{Commits: []backend.Commit{
		{Commit: "a", CommitTime: day(1)},
		{Commit: "c", CommitTime: day(3)},
	}}

	res = merge(res, backend.Commit{Commit: "b", CommitTime: day(2)})
	var hashes []string
	for _, c := range res.Commits {
		hashes = append(hashes, c.Commit)
	}
	assert.Equal(t, []string{"a", "b", "c"}, hashes)

	res = merge(res, backend.Commit{Commit: "a", CommitTime: day(1), CommitDescription: "rerun"})
	require.Len(t, res.Commits, 3)
	assert.Equal(t, "rerun", res.Commits[0].CommitDescription)
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-commit", "abc", "-time", "2024-02-29T23:30:00-05:00", "-dataset", "tint", "a.txt"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "abc", opts.commit)
	assert.Equal(t, "tint", opts.dataset)
	assert.Equal(t, []string{"a.txt"}, opts.paths)
	assert.Equal(t, time.Date(2024, 3, 1, 4, 30, 0, 0, time.UTC), opts.when)

	for _, args := range [][]string{
		{},
		{"-commit", "abc", "-time", "yesterday"},
		{"-commit", "abc", "-dataset", "../x"},
	} {
		_, err := parseOptions(args, io.Discard)
		assert.Error(t, err, "%q", args)
	}
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	bench := writeBench(t, dir)
	resultsDir := filepath.Join(dir, "results")
	opts := options{
		dir:         resultsDir,
		dataset:     "tint",
		commit:      "0123456789",
		description: "Speed up the parser",
		when:        time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		paths:       []string{bench},
	}

	path, err := record(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resultsDir, "tint-2024-03.json"), path)

	_, err = record(context.Background(), opts)
	require.NoError(t, err)

	res, err := backend.DirSource{Dir: resultsDir}.Fetch(context.Background(), "tint", 2024, time.March)
	require.NoError(t, err)
	require.Len(t, res.Commits, 1, "recording a commit again replaces it")
	c := res.Commits[0]
	assert.Equal(t, "0123456789", c.Commit)
	assert.Equal(t, "Speed up the parser", c.CommitDescription)
	assert.True(t, opts.when.Equal(c.CommitTime))
	assert.Len(t, c.Benchmarks, 2)

	snap, err := backend.Load(context.Background(), backend.DirSource{Dir: resultsDir}, "tint", opts.when, 1)
	require.NoError(t, err)
	_, ok := snap.System("Parser")
	assert.True(t, ok)
	_, ok = snap.System("Castable")
	assert.True(t, ok)
}

func TestRecordWithoutBenchmarks(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("PASS\n"), 0o644))
	_, err := record(context.Background(), options{dir: dir, dataset: "dawn", commit: "a", when: time.Now(), paths: []string{empty}})
	assert.Error(t, err)
}

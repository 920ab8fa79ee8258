package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"
	"golang.org/x/perf/benchunit"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), `%[1]s: record Go benchmark results for perfgraph
Usage:

 go test -bench . -count 5 | %[1]s -commit $(git rev-parse HEAD) -dir results

OR

 %[1]s -commit <hash> -dataset tint bench1.txt bench2.txt

The results are merged into <dir>/<dataset>-<yyyy>-<mm>.json for the month of
the commit, replacing any earlier results of the same commit.

`, fs.Name())
		fs.PrintDefaults()
	}
}

type options struct {
	dir         string
	dataset     string
	commit      string
	description string
	system      string
	when        time.Time
	paths       []string
}

func parseOptions(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("perfgraph-results", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = usage(fs)
	var opts options
	fs.StringVar(&opts.dir, "dir", "results", "directory of results files")
	fs.StringVar(&opts.dataset, "dataset", "dawn", "dataset the results belong to")
	fs.StringVar(&opts.commit, "commit", "", "hash of the benchmarked commit")
	fs.StringVar(&opts.description, "description", "", "commit message")
	fs.StringVar(&opts.system, "system", "", "prefix each benchmark name with this system")
	when := fs.String("time", "", "commit time in RFC 3339 format (default now)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.paths = fs.Args()
	if opts.commit == "" {
		return options{}, errors.New("-commit is required")
	}
	if strings.ContainsAny(opts.dataset, `/\`) || opts.dataset == "" {
		return options{}, fmt.Errorf("invalid dataset %q", opts.dataset)
	}
	opts.when = time.Now().UTC()
	if *when != "" {
		t, err := time.Parse(time.RFC3339, *when)
		if err != nil {
			return options{}, fmt.Errorf("parsing -time: %w", err)
		}
		opts.when = t.UTC()
	}
	return opts, nil
}

var procsSuffix = regexp.MustCompile(`-\d+$`)

// collect reads benchmark results and summarises the repeats of each
// benchmark by their median time per operation.
func collect(files *benchfmt.Files, system string) ([]backend.Benchmark, error) {
	samples := map[string][]float64{}
	var order []string
	for files.Scan() {
		switch rec := files.Result().(type) {
		case *benchfmt.SyntaxError:
			log.Printf("skipping line: %v", rec)
		case *benchfmt.Result:
			secs, ok := secondsPerOp(rec)
			if !ok {
				continue
			}
			name := procsSuffix.ReplaceAllString(string(rec.Name.Full()), "")
			if system != "" {
				name = system + "/" + name
			}
			if _, seen := samples[name]; !seen {
				order = append(order, name)
			}
			samples[name] = append(samples[name], secs)
		}
	}
	if err := files.Err(); err != nil {
		return nil, fmt.Errorf("reading benchmarks: %w", err)
	}
	out := make([]backend.Benchmark, 0, len(order))
	for _, name := range order {
		values := samples[name]
		sample := benchmath.NewSample(values, &benchmath.DefaultThresholds)
		summary := benchmath.AssumeNothing.Summary(sample, 0.95)
		out = append(out, backend.Benchmark{Name: name, Time: summary.Center, Repeats: len(values)})
	}
	return out, nil
}

func secondsPerOp(rec *benchfmt.Result) (float64, bool) {
	for _, v := range rec.Values {
		value, unit := benchunit.Tidy(v.Value, v.Unit)
		if unit == "sec/op" {
			return value, true
		}
	}
	return 0, false
}

// merge adds c to res, replacing any entry for the same commit. Commits stay
// ordered by time.
func merge(res backend.Results, c backend.Commit) backend.Results {
	res.Commits = slices.DeleteFunc(res.Commits, func(old backend.Commit) bool {
		return old.Commit == c.Commit
	})
	res.Commits = append(res.Commits, c)
	slices.SortStableFunc(res.Commits, func(a, b backend.Commit) int {
		return a.CommitTime.Compare(b.CommitTime)
	})
	return res
}

// writeResults replaces path atomically.
func writeResults(path string, res backend.Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".results-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), path)
}

// record merges the benchmarks read from opts.paths (or stdin) into the
// month file of the commit, returning the file's path.
func record(ctx context.Context, opts options) (string, error) {
	files := &benchfmt.Files{Paths: opts.paths, AllowStdin: true}
	benches, err := collect(files, opts.system)
	if err != nil {
		return "", err
	}
	if len(benches) == 0 {
		return "", errors.New("no benchmark results with a time per operation")
	}
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return "", err
	}
	src := backend.DirSource{Dir: opts.dir}
	year, month := opts.when.Year(), opts.when.Month()
	res, err := src.Fetch(ctx, opts.dataset, year, month)
	if err != nil && !errors.Is(err, backend.ErrNoResults) {
		return "", err
	}
	res = merge(res, backend.Commit{
		Commit:            opts.commit,
		CommitTime:        opts.when,
		CommitDescription: opts.description,
		Benchmarks:        benches,
	})
	path := filepath.Join(opts.dir, backend.MonthFile(opts.dataset, year, month))
	return path, writeResults(path, res)
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		log.Fatal(err)
	}
	path, err := record(context.Background(), opts)
	if err != nil {
		log.Fatalf("failed recording results: %v", err)
	}
	log.Printf("recorded %s in %s", opts.commit, path)
}

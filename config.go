package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
	"git.sr.ht/~whereswaldon/perfgraph/engine"
	"git.sr.ht/~whereswaldon/perfgraph/geom"
	"git.sr.ht/~whereswaldon/perfgraph/gpu"
	"git.sr.ht/~whereswaldon/perfgraph/gpu/soft"
	"git.sr.ht/~whereswaldon/perfgraph/gpu/wgpu"
)

const (
	RendererWebGPU   = "webgpu"
	RendererSoftware = "software"
)

// Margin is the space around each chart's plotting area, in pixels.
type Margin struct {
	T, R, B, L float64
}

// Config is the application configuration. It is read from an optional
// TOML file and then overridden by flags.
type Config struct {
	// Results is a URL serving results/<dataset>-<yyyy>-<mm>.json, or a
	// directory holding the files.
	Results  string   `toml:"results"`
	Datasets []string `toml:"datasets"`
	Dataset  string   `toml:"dataset"`
	// System is the chart scrolled to on start.
	System   string  `toml:"system"`
	Renderer string  `toml:"renderer"`
	Months   int     `toml:"months"`
	Refresh  string  `toml:"refresh"`
	Margin   *Margin `toml:"margin"`
}

func defaultConfig() Config {
	return Config{
		Results:  "results",
		Datasets: []string{"dawn"},
		Renderer: RendererWebGPU,
		Months:   backend.DefaultMonths,
		Refresh:  backend.DefaultRefresh.String(),
	}
}

// LoadConfig parses args, reading the file named by -config first.
func LoadConfig(args []string, stderr io.Writer) (Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("perfgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	results := fs.String("results", cfg.Results, "results URL or directory")
	dataset := fs.String("dataset", "", "dataset to show first")
	system := fs.String("system", "", "system to scroll to")
	renderer := fs.String("renderer", cfg.Renderer, "chart renderer: webgpu or software")
	months := fs.Int("months", cfg.Months, "months of results to show")
	refresh := fs.String("refresh", cfg.Refresh, "interval between reloads")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", *configPath, err)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "results":
			cfg.Results = *results
		case "dataset":
			cfg.Dataset = *dataset
		case "system":
			cfg.System = *system
		case "renderer":
			cfg.Renderer = *renderer
		case "months":
			cfg.Months = *months
		case "refresh":
			cfg.Refresh = *refresh
		}
	})
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Results == "" {
		errs = append(errs, errors.New("no results location"))
	}
	if c.Renderer != RendererWebGPU && c.Renderer != RendererSoftware {
		errs = append(errs, fmt.Errorf("unknown renderer %q", c.Renderer))
	}
	if c.Months < 1 {
		errs = append(errs, fmt.Errorf("months must be positive, got %d", c.Months))
	}
	if _, err := c.RefreshInterval(); err != nil {
		errs = append(errs, err)
	}
	if c.Dataset == "" && len(c.Datasets) > 0 {
		c.Dataset = c.Datasets[0]
	}
	if c.Dataset == "" {
		errs = append(errs, errors.New("no dataset"))
	} else if !slices.Contains(c.Datasets, c.Dataset) {
		c.Datasets = append(c.Datasets, c.Dataset)
	}
	return errors.Join(errs...)
}

// RefreshInterval parses Refresh.
func (c Config) RefreshInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Refresh)
	if err != nil {
		return 0, fmt.Errorf("refresh: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("refresh must be positive, got %v", d)
	}
	return d, nil
}

// Source returns where results are read from.
func (c Config) Source() backend.Source {
	if strings.HasPrefix(c.Results, "http://") || strings.HasPrefix(c.Results, "https://") {
		return backend.HTTPSource{BaseURL: c.Results}
	}
	return backend.DirSource{Dir: c.Results}
}

// Options returns the datasource options.
func (c Config) Options() backend.Options {
	refresh, _ := c.RefreshInterval()
	return backend.Options{Months: c.Months, Refresh: refresh}
}

// ChartMargin returns the chart margin, or nil for the default.
func (c Config) ChartMargin() *geom.Rect {
	if c.Margin == nil {
		return nil
	}
	return &geom.Rect{T: c.Margin.T, R: c.Margin.R, B: c.Margin.B, L: c.Margin.L}
}

// Acquire returns how charts get their renderer.
func (c Config) Acquire() func(context.Context) (gpu.Backend, error) {
	if c.Renderer == RendererSoftware {
		return func(context.Context) (gpu.Backend, error) {
			return soft.New(), nil
		}
	}
	return func(ctx context.Context) (gpu.Backend, error) {
		b, err := wgpu.New(ctx)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// ChartConfig returns the configuration shared by every chart.
func (c Config) ChartConfig(onClick func(backend.DataPoint, *engine.Dataset[backend.DataPoint])) engine.Config[backend.DataPoint] {
	return engine.Config[backend.DataPoint]{
		Adapter: backend.Adapter,
		Margin:  c.ChartMargin(),
		OnClick: onClick,
		Acquire: c.Acquire(),
	}
}

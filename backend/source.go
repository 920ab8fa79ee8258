package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoResults reports that a month has no results file.
var ErrNoResults = errors.New("no results")

// Source provides monthly results files.
type Source interface {
	Fetch(ctx context.Context, dataset string, year int, month time.Month) (Results, error)
}

// HTTPSource fetches results/<file> relative to BaseURL.
type HTTPSource struct {
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

var _ Source = HTTPSource{}

func (s HTTPSource) String() string { return s.BaseURL }

func (s HTTPSource) Fetch(ctx context.Context, dataset string, year int, month time.Month) (Results, error) {
	url := strings.TrimSuffix(s.BaseURL, "/") + "/results/" + MonthFile(dataset, year, month)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Results{}, fmt.Errorf("building request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Results{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Results{}, fmt.Errorf("fetching %s: %w", url, ErrNoResults)
	case resp.StatusCode != http.StatusOK:
		return Results{}, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	return decodeResults(resp.Body)
}

// DirSource reads results files from a local directory.
type DirSource struct {
	Dir string
}

var _ Source = DirSource{}

func (s DirSource) String() string { return s.Dir }

func (s DirSource) Fetch(ctx context.Context, dataset string, year int, month time.Month) (Results, error) {
	if err := ctx.Err(); err != nil {
		return Results{}, err
	}
	path := filepath.Join(s.Dir, MonthFile(dataset, year, month))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Results{}, fmt.Errorf("reading %s: %w", path, ErrNoResults)
	} else if err != nil {
		return Results{}, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()
	return decodeResults(f)
}

func decodeResults(r io.Reader) (Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return Results{}, fmt.Errorf("decoding results: %w", err)
	}
	return res, nil
}

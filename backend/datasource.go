package backend

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~gioverse/skel/stream"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultMonths  = 12
	DefaultRefresh = 5 * time.Minute
)

// Options tune a Datasource.
type Options struct {
	// Months is how many months of results to show.
	Months int
	// Refresh is how often results are reloaded.
	Refresh time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Months <= 0 {
		o.Months = DefaultMonths
	}
	if o.Refresh <= 0 {
		o.Refresh = DefaultRefresh
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Datasource streams snapshots of datasets, reloading them periodically and
// whenever a watched results file changes.
type Datasource struct {
	pool *stream.MutationPool[string, Snapshot]
	opts Options
}

func NewDatasource(mutator *stream.Mutator, opts Options) *Datasource {
	return &Datasource{
		pool: stream.NewMutationPool[string, Snapshot](mutator),
		opts: opts.withDefaults(),
	}
}

// Watch starts loading dataset from src if it is not already being loaded
// and returns its snapshots.
func (d *Datasource) Watch(src Source, dataset string) *stream.Mutation[Snapshot] {
	key := fmt.Sprint(src) + "\x00" + dataset
	mutation, _ := stream.Mutate(d.pool, key, func(ctx context.Context) <-chan Snapshot {
		out := make(chan Snapshot, 1)
		go func() {
			defer close(out)
			var changes <-chan struct{}
			if dir, ok := src.(DirSource); ok {
				var err error
				changes, err = watchDir(ctx, dir.Dir, dataset)
				if err != nil {
					log.Printf("not watching %s for changes: %v", dir.Dir, err)
				}
			}
			d.poll(ctx, src, dataset, changes, out)
		}()
		return out
	})
	return mutation
}

// poll sends a snapshot of dataset immediately, then again on every refresh
// tick and every value received from changes, until ctx is done.
func (d *Datasource) poll(ctx context.Context, src Source, dataset string, changes <-chan struct{}, out chan<- Snapshot) {
	ticker := time.NewTicker(d.opts.Refresh)
	defer ticker.Stop()
	for {
		snap, err := Load(ctx, src, dataset, d.opts.Now(), d.opts.Months)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("refreshing %q: %v", dataset, err)
			snap.Err = err
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}
		select {
		case <-ticker.C:
		case <-changes:
		case <-ctx.Done():
			return
		}
	}
}

// watchDir signals whenever a results file of dataset in dir is written.
// Bursts of events are collapsed into one signal.
func watchDir(ctx context.Context, dir, dataset string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watching %s: %v", dir, err)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				name := filepath.Base(ev.Name)
				if !strings.HasPrefix(name, dataset+"-") || filepath.Ext(name) != ".json" {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changes, nil
}

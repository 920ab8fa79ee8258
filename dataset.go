package main

import (
	"fmt"
	"path/filepath"
	"time"

	"git.sr.ht/~whereswaldon/perfgraph/backend"
)

// Selection is what the window shows: one dataset read from a source, and
// the system the user last picked.
type Selection struct {
	Source  backend.Source
	Dataset string
	System  string
}

// Open returns the selection showing the dataset of the month file name,
// read from the directory holding it.
func (s Selection) Open(name string) (Selection, error) {
	dataset, _, _, ok := backend.ParseMonthFile(name)
	if !ok {
		return s, fmt.Errorf("%s is not a results file named <dataset>-<yyyy>-<mm>.json", filepath.Base(name))
	}
	s.Source = backend.DirSource{Dir: filepath.Dir(name)}
	s.Dataset = dataset
	return s, nil
}

// Describe summarises a snapshot for the status line.
func Describe(snap backend.Snapshot, src backend.Source) string {
	if snap.Loaded.IsZero() {
		return fmt.Sprintf("Loading from %v...", src)
	}
	msg := fmt.Sprintf("%d systems from %v, updated %s", len(snap.Systems), src, snap.Loaded.Format(time.Kitchen))
	if snap.Missing > 0 {
		msg += fmt.Sprintf(" (%d months missing)", snap.Missing)
	}
	return msg
}

// Package dataset extracts labeled MFCC segments from the balanced song
// selection and persists them.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidDataset is returned when the parallel arrays disagree.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset holds one MFCC matrix per kept segment. Labels[i] is the index in
// Mapping of the artist MFCC[i] was taken from.
type Dataset struct {
	Mapping []string      `json:"mapping"`
	MFCC    [][][]float32 `json:"mfcc"`
	Labels  []int         `json:"labels"`
}

// Validate checks the dataset invariants.
func (d *Dataset) Validate() error {
	if len(d.MFCC) != len(d.Labels) {
		return fmt.Errorf("%w: %d matrices for %d labels", ErrInvalidDataset, len(d.MFCC), len(d.Labels))
	}
	for i, label := range d.Labels {
		if label < 0 || label >= len(d.Mapping) {
			return fmt.Errorf("%w: label %d at %d outside mapping of %d artists", ErrInvalidDataset, label, i, len(d.Mapping))
		}
	}
	return nil
}

// SegmentsPerArtist counts the kept segments of every artist.
func (d *Dataset) SegmentsPerArtist() map[string]int {
	counts := make(map[string]int, len(d.Mapping))
	for _, artist := range d.Mapping {
		counts[artist] = 0
	}
	for _, label := range d.Labels {
		if label >= 0 && label < len(d.Mapping) {
			counts[d.Mapping[label]]++
		}
	}
	return counts
}

// WriteJSON writes d to path as indented JSON, creating parent directories.
func WriteJSON(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck // the rename error is the one to report
		return err
	}
	return nil
}

// ReadJSON loads a dataset written by WriteJSON.
func ReadJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &d, nil
}

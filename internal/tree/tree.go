// Package tree restructures a raw artist/album/song directory tree in place:
// it normalizes every name, lifts songs out of album folders into their
// artist folder and removes directories left without songs.
//
// All operations mutate the filesystem and cannot be undone.
package tree

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/llehouerou/songset/internal/journal"
)

// ErrNameCollision is returned when a normalized name is already taken.
var ErrNameCollision = errors.New("name collision")

// Recorder receives every mutation applied to the tree.
type Recorder interface {
	Record(kind journal.Kind, source, target string) error
}

// Report counts the mutations applied by a Tree.
type Report struct {
	Renamed   int // files and directories renamed
	Kept      int // names that could not be normalized
	Moved     int // songs lifted into their artist directory
	Dropped   int // songs deleted because the destination was taken
	Pruned    int // directories removed for holding no song
	Unchanged int // names already canonical
}

// Tree is a dataset root being restructured.
type Tree struct {
	root     string
	logger   *slog.Logger
	recorder Recorder
	report   Report
}

// New returns a Tree rooted at root. recorder may be nil.
func New(root string, logger *slog.Logger, recorder Recorder) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{
		root:     filepath.Clean(root),
		logger:   logger,
		recorder: recorder,
	}
}

// Root returns the cleaned root path.
func (t *Tree) Root() string {
	return t.root
}

// Report returns the mutations applied so far.
func (t *Tree) Report() Report {
	return t.report
}

func (t *Tree) record(kind journal.Kind, source, target string) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Record(kind, source, target); err != nil {
		t.logger.Warn("journal write failed", "kind", kind, "source", source, "err", err)
	}
}

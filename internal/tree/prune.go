package tree

import (
	"os"
	"path/filepath"

	"github.com/llehouerou/songset/internal/audio"
	"github.com/llehouerou/songset/internal/journal"
)

// Prune removes, bottom-up, every directory below the root whose direct
// entries include no song.
func (t *Tree) Prune() error {
	return t.pruneChildren(t.root)
}

func (t *Tree) pruneChildren(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := t.pruneChildren(path); err != nil {
			return err
		}

		content, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		if hasSong(content) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return err
		}
		t.logger.Debug("removed directory without songs", "dir", path)
		t.record(journal.KindDelete, path, "")
		t.report.Pruned++
	}
	return nil
}

func hasSong(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && audio.IsSong(e.Name()) {
			return true
		}
	}
	return false
}

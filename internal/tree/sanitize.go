package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/llehouerou/songset/internal/journal"
	"github.com/llehouerou/songset/internal/rename"
)

// Sanitize normalizes the name of every file and directory below the root.
// The root itself keeps its name.
func (t *Tree) Sanitize() error {
	return t.sanitizeChildren(t.root)
}

// sanitizeChildren renames the content of dir depth-first. A directory's
// children are renamed before the directory itself, so paths taken from
// dir's listing stay valid for the whole loop.
func (t *Tree) sanitizeChildren(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := t.sanitizeChildren(path); err != nil {
				return err
			}
			if _, err := t.renameEntry(path, rename.CleanDirname); err != nil {
				return err
			}
			continue
		}
		if _, err := t.renameEntry(path, rename.CleanFilename); err != nil {
			return err
		}
	}
	return nil
}

// renameEntry renames path to its cleaned name and returns the new path.
func (t *Tree) renameEntry(path string, clean func(string) (string, bool)) (string, error) {
	oldName := filepath.Base(path)

	newName, ok := clean(oldName)
	if !ok {
		t.logger.Warn("name cannot be normalized, keeping it", "name", oldName, "dir", filepath.Dir(path))
		t.report.Kept++
		return path, nil
	}
	if newName == oldName {
		t.report.Unchanged++
		return path, nil
	}

	newPath := filepath.Join(filepath.Dir(path), newName)
	taken, err := occupiedByOther(path, newPath)
	if err != nil {
		return "", err
	}
	if taken {
		t.logger.Error("can't rename, target exists", "name", oldName, "target", newName)
		return "", fmt.Errorf("rename %s to %s: %w", oldName, newName, ErrNameCollision)
	}

	if err := os.Rename(path, newPath); err != nil {
		t.logger.Error("can't rename", "name", oldName, "err", err)
		return "", fmt.Errorf("rename %s: %w", oldName, err)
	}

	t.record(journal.KindRename, path, newPath)
	t.report.Renamed++
	return newPath, nil
}

// occupiedByOther reports whether target exists and is not src itself,
// which happens on case-insensitive filesystems.
func occupiedByOther(src, target string) (bool, error) {
	dstInfo, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	srcInfo, err := os.Lstat(src)
	if err != nil {
		// Source vanished; let the rename report it
		return false, nil //nolint:nilerr // surfaced by os.Rename
	}
	return !os.SameFile(srcInfo, dstInfo), nil
}

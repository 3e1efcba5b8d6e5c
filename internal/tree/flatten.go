package tree

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/songset/internal/audio"
	"github.com/llehouerou/songset/internal/journal"
)

// Flatten moves every song nested below an artist directory straight into
// that artist directory. Songs already directly in an artist directory, and
// files lying in the root, stay where they are.
//
// When the destination name is taken the nested song is deleted instead.
func (t *Tree) Flatten() error {
	songs, err := t.nestedSongs()
	if err != nil {
		return err
	}

	for _, src := range songs {
		if err := t.liftSong(src); err != nil {
			return err
		}
	}
	return nil
}

// nestedSongs lists songs at least two levels below the root.
func (t *Tree) nestedSongs() ([]string, error) {
	var songs []string
	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !audio.IsSong(path) {
			return nil
		}
		if len(t.segments(path)) >= 3 {
			songs = append(songs, path)
		}
		return nil
	})
	return songs, err
}

// segments splits path relative to the root: artist, [album...], file.
func (t *Tree) segments(path string) []string {
	rel, err := filepath.Rel(t.root, path)
	if err != nil {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

// artistDir returns the artist directory containing path.
func (t *Tree) artistDir(path string) string {
	return filepath.Join(t.root, t.segments(path)[0])
}

func (t *Tree) liftSong(src string) error {
	dst := filepath.Join(t.artistDir(src), filepath.Base(src))

	taken, err := exists(dst)
	if err != nil {
		return err
	}
	if taken {
		t.logger.Warn("problems with moving song, removing it", "source", src, "destination", dst)
		if err := os.Remove(src); err != nil {
			return err
		}
		t.record(journal.KindDelete, src, "")
		t.report.Dropped++
		return nil
	}

	if err := moveFile(src, dst); err != nil {
		return err
	}
	t.record(journal.KindMove, src, dst)
	t.report.Moved++
	return nil
}

// exists reports whether path exists. Errors other than not-exist are returned.
func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return dstFile.Close()
}

// moveFile moves a file from src to dst.
// Uses os.Rename if possible, otherwise copies and deletes.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	// Fall back to copy + delete (e.g. album folder on another mount)
	if err := copyFile(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

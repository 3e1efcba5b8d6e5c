// Package library builds the per-artist song inventory of a flattened dataset
// tree and draws the class-balanced song selection from it.
package library

import (
	"os"
	"path/filepath"

	"github.com/llehouerou/songset/internal/audio"
)

// Inventory lists the songs of every artist directory under a root.
type Inventory struct {
	Root    string
	Artists []string            // artist names in walk order
	Songs   map[string][]string // artist -> song paths in walk order
}

// Build lists every artist directory directly under root along with its
// songs. The root itself is never an artist. Nested directories are not
// descended into: a flattened tree has none.
func Build(root string) (*Inventory, error) {
	root = filepath.Clean(root)
	inv := &Inventory{
		Root:  root,
		Songs: make(map[string][]string),
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "" {
			continue
		}

		dir := filepath.Join(root, name)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}

		songs := make([]string, 0, len(files))
		for _, f := range files {
			if f.IsDir() || !audio.IsSong(f.Name()) {
				continue
			}
			songs = append(songs, filepath.Join(dir, f.Name()))
		}

		inv.Artists = append(inv.Artists, name)
		inv.Songs[name] = songs
	}

	return inv, nil
}

// Count returns the number of songs of artist.
func (inv *Inventory) Count(artist string) int {
	return len(inv.Songs[artist])
}

// Counts returns the number of songs per artist.
func (inv *Inventory) Counts() map[string]int {
	counts := make(map[string]int, len(inv.Songs))
	for artist, songs := range inv.Songs {
		counts[artist] = len(songs)
	}
	return counts
}

// TotalSongs returns the number of songs across all artists.
func (inv *Inventory) TotalSongs() int {
	total := 0
	for _, songs := range inv.Songs {
		total += len(songs)
	}
	return total
}

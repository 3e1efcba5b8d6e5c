package library

import (
	"errors"
	"math/rand/v2"
)

// ErrEmptyDataset is returned when the root holds no artist directory.
var ErrEmptyDataset = errors.New("empty dataset: no artist directories")

// Selection is the balanced set of songs drawn from an inventory.
type Selection struct {
	MinCount int
	Chosen   map[string][]string // artist -> MinCount distinct song paths
}

// MinCount returns the smallest song count across all artists.
func (inv *Inventory) MinCount() (int, error) {
	if len(inv.Artists) == 0 {
		return 0, ErrEmptyDataset
	}
	minCount := inv.Count(inv.Artists[0])
	for _, artist := range inv.Artists[1:] {
		minCount = min(minCount, inv.Count(artist))
	}
	return minCount, nil
}

// Sample draws MinCount songs per artist, uniformly without replacement.
// A nil rng uses an unseeded source.
func Sample(inv *Inventory, rng *rand.Rand) (*Selection, error) {
	minCount, err := inv.MinCount()
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // sampling, not crypto
	}

	sel := &Selection{
		MinCount: minCount,
		Chosen:   make(map[string][]string, len(inv.Artists)),
	}
	for _, artist := range inv.Artists {
		songs := inv.Songs[artist]
		perm := rng.Perm(len(songs))
		chosen := make([]string, minCount)
		for i := range chosen {
			chosen[i] = songs[perm[i]]
		}
		sel.Chosen[artist] = chosen
	}
	return sel, nil
}

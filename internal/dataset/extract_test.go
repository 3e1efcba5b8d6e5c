package dataset

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/songset/internal/audio"
	"github.com/llehouerou/songset/internal/features"
)

const testRate = 8000

// fakeLoader serves sine tones; durations are keyed by path.
type fakeLoader struct {
	mu        sync.Mutex
	seconds   map[string]float64
	rate      int
	failOn    string
	loadCount int
}

func (f *fakeLoader) Load(path string) (audio.Signal, error) {
	f.mu.Lock()
	f.loadCount++
	f.mu.Unlock()

	if path == f.failOn {
		return audio.Signal{}, errors.New("corrupt frame")
	}
	rate := f.rate
	if rate == 0 {
		rate = testRate
	}
	sec, ok := f.seconds[path]
	if !ok {
		sec = 3
	}
	n := int(sec * float64(rate))
	samples := make([]float32, n)
	freq := 220.0 + float64(len(path))*10
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return audio.Signal{Samples: samples, SampleRate: rate}, nil
}

func seeded(seed uint64) RandFunc {
	return func(stream uint64) *rand.Rand {
		return rand.New(rand.NewPCG(seed, stream))
	}
}

func twoArtists() ([]string, map[string][]string) {
	artists := []string{"artist_a", "artist_b"}
	chosen := map[string][]string{
		"artist_a": {"/data/artist_a/a-one.mp3", "/data/artist_a/a-two.mp3"},
		"artist_b": {"/data/artist_b/b-one.mp3", "/data/artist_b/b-two.mp3"},
	}
	return artists, chosen
}

func TestExtract_LabelsFollowMapping(t *testing.T) {
	artists, chosen := twoArtists()
	var tracks []string
	e := &Extractor{
		Loader:           &fakeLoader{},
		SegmentsPerTrack: 3,
		SegmentDuration:  1,
		Rand:             seeded(1),
		OnTrack:          func(_, path string) { tracks = append(tracks, path) },
	}

	ds, stats, err := e.Extract(context.Background(), artists, chosen)
	require.NoError(t, err)
	require.NoError(t, ds.Validate())

	assert.Equal(t, artists, ds.Mapping)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}, ds.Labels)
	assert.Equal(t, Stats{Tracks: 4, Kept: 12}, stats)
	assert.Len(t, tracks, 4)

	// ceil(8000 / 512) frames of 13 coefficients
	for _, m := range ds.MFCC {
		require.Len(t, m, 16)
		for _, row := range m {
			assert.Len(t, row, features.NMFCC)
		}
	}
}

func TestExtract_ShortTrackSkipsSegments(t *testing.T) {
	artists := []string{"artist"}
	chosen := map[string][]string{"artist": {"short.mp3", "long.mp3"}}
	e := &Extractor{
		Loader:           &fakeLoader{seconds: map[string]float64{"short.mp3": 0.5}},
		SegmentsPerTrack: 4,
		SegmentDuration:  1,
		Rand:             seeded(7),
	}

	ds, stats, err := e.Extract(context.Background(), artists, chosen)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.OutOfRange)
	assert.Equal(t, 4, stats.Kept)
	assert.Len(t, ds.MFCC, 4)
	assert.Equal(t, []int{0, 0, 0, 0}, ds.Labels)
}

func TestExtract_DropsUnexpectedLength(t *testing.T) {
	// 8192 samples is an exact multiple of the hop, which yields one extra frame
	artists := []string{"artist"}
	chosen := map[string][]string{"artist": {"song.mp3"}}
	e := &Extractor{
		Loader:           &fakeLoader{rate: 8192},
		SegmentsPerTrack: 2,
		SegmentDuration:  1,
		Rand:             seeded(3),
	}

	ds, stats, err := e.Extract(context.Background(), artists, chosen)
	require.NoError(t, err)

	assert.Equal(t, Stats{Tracks: 1, Mismatched: 2}, stats)
	assert.Empty(t, ds.MFCC)
	assert.Empty(t, ds.Labels)
	assert.Equal(t, []string{"artist"}, ds.Mapping)
}

func TestExtract_ParallelMatchesSequential(t *testing.T) {
	artists := []string{"a", "b", "c", "d"}
	chosen := map[string][]string{
		"a": {"a-1.mp3", "a-2.mp3"},
		"b": {"b-1.mp3", "b-2.mp3"},
		"c": {"c-1.mp3", "c-2.mp3"},
		"d": {"d-1.mp3", "d-2.mp3"},
	}
	run := func(workers int) *Dataset {
		e := &Extractor{
			Loader:           &fakeLoader{},
			SegmentsPerTrack: 2,
			SegmentDuration:  1,
			Workers:          workers,
			Rand:             seeded(99),
		}
		ds, _, err := e.Extract(context.Background(), artists, chosen)
		require.NoError(t, err)
		return ds
	}

	assert.Equal(t, run(1), run(4))
}

func TestExtract_LoadFailureIsFatal(t *testing.T) {
	artists, chosen := twoArtists()
	loader := &fakeLoader{failOn: "/data/artist_b/b-one.mp3"}
	e := &Extractor{Loader: loader, SegmentsPerTrack: 1, SegmentDuration: 1, Rand: seeded(1)}

	ds, _, err := e.Extract(context.Background(), artists, chosen)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), "b-one.mp3")
}

func TestExtract_CanceledContext(t *testing.T) {
	artists, chosen := twoArtists()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := &fakeLoader{}
	e := &Extractor{Loader: loader, SegmentsPerTrack: 1, SegmentDuration: 1}

	_, _, err := e.Extract(ctx, artists, chosen)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, loader.loadCount)
}

func TestExtract_NoArtists(t *testing.T) {
	e := &Extractor{Loader: &fakeLoader{}, SegmentsPerTrack: 1, SegmentDuration: 1}

	ds, stats, err := e.Extract(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, stats)
	assert.NotNil(t, ds.MFCC)
	assert.NotNil(t, ds.Labels)
}

func TestSegmentWindow(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))

	for range 1000 {
		start, end, err := segmentWindow(rng, 25000, 8000)
		if err != nil {
			assert.ErrorIs(t, err, ErrSegmentOutOfRange)
			continue
		}
		assert.GreaterOrEqual(t, start, 0)
		assert.LessOrEqual(t, end, 25000)
		assert.Equal(t, 8000, end-start)
	}
}

func TestSegmentWindow_TooShort(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))

	for range 100 {
		_, _, err := segmentWindow(rng, 4000, 8000)
		require.ErrorIs(t, err, ErrSegmentOutOfRange)
	}
}

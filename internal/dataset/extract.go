package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/songset/internal/audio"
	"github.com/llehouerou/songset/internal/features"
)

// ErrSegmentOutOfRange is reported when a segment window cannot fit the track.
var ErrSegmentOutOfRange = errors.New("segment window out of range")

// RandFunc returns the random source of one stream. Streams let parallel
// artists draw independently while staying reproducible under a seed.
type RandFunc func(stream uint64) *rand.Rand

// Stats summarizes an extraction.
type Stats struct {
	Tracks     int // songs decoded
	Kept       int // segments appended to the dataset
	Mismatched int // segments dropped for an unexpected MFCC length
	OutOfRange int // segments dropped because the track is too short
}

func (s *Stats) add(o Stats) {
	s.Tracks += o.Tracks
	s.Kept += o.Kept
	s.Mismatched += o.Mismatched
	s.OutOfRange += o.OutOfRange
}

// Extractor turns chosen songs into labeled MFCC segments.
type Extractor struct {
	Loader           audio.Loader
	SegmentsPerTrack int
	SegmentDuration  int // seconds
	Workers          int // artists processed in parallel; <= 1 is sequential
	Rand             RandFunc
	Logger           *slog.Logger

	// OnTrack is called after each song is processed. With Workers > 1 it
	// may be called concurrently.
	OnTrack func(artist, path string)
}

type artistResult struct {
	mfcc  [][][]float32
	stats Stats
}

// Extract processes the chosen songs of every artist. Mapping follows the
// order of artists and every label is the artist's index in it.
func (e *Extractor) Extract(ctx context.Context, artists []string, chosen map[string][]string) (*Dataset, Stats, error) {
	results := make([]artistResult, len(artists))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Workers, 1))
	for i, artist := range artists {
		g.Go(func() error {
			r, err := e.extractArtist(ctx, i, artist, chosen[artist])
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	ds := &Dataset{
		Mapping: slices.Clone(artists),
		MFCC:    [][][]float32{},
		Labels:  []int{},
	}
	var stats Stats
	for label, r := range results {
		for _, m := range r.mfcc {
			ds.MFCC = append(ds.MFCC, m)
			ds.Labels = append(ds.Labels, label)
		}
		stats.add(r.stats)
	}
	return ds, stats, nil
}

func (e *Extractor) extractArtist(ctx context.Context, label int, artist string, songs []string) (artistResult, error) {
	var r artistResult
	rng := e.rand(uint64(label)) //nolint:gosec // label is a non-negative index
	analyzers := make(map[int]*features.MFCC)

	for _, path := range songs {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		sig, err := e.Loader.Load(path)
		if err != nil {
			return r, fmt.Errorf("load %s: %w", path, err)
		}
		if sig.SampleRate <= 0 {
			return r, fmt.Errorf("load %s: invalid sample rate %d", path, sig.SampleRate)
		}

		m, ok := analyzers[sig.SampleRate]
		if !ok {
			m = features.NewMFCC(sig.SampleRate)
			analyzers[sig.SampleRate] = m
		}

		segments, stats := e.extractTrack(rng, m, sig, path)
		r.mfcc = append(r.mfcc, segments...)
		r.stats.add(stats)

		if e.OnTrack != nil {
			e.OnTrack(artist, path)
		}
	}
	return r, nil
}

// extractTrack draws SegmentsPerTrack random windows from sig and keeps the
// ones whose MFCC matrix has the expected number of frames.
func (e *Extractor) extractTrack(rng *rand.Rand, m *features.MFCC, sig audio.Signal, path string) ([][][]float32, Stats) {
	stats := Stats{Tracks: 1}

	numSamples := len(sig.Samples)
	perSegment := sig.SampleRate * e.SegmentDuration
	expected := (perSegment + features.HopLength - 1) / features.HopLength

	var out [][][]float32
	for range e.SegmentsPerTrack {
		start, end, err := segmentWindow(rng, numSamples, perSegment)
		if err != nil {
			e.logger().Warn("skipping segment", "path", path, "duration", sig.Duration(), "err", err)
			stats.OutOfRange++
			continue
		}

		mfcc := m.Compute(sig.Samples[start:end])
		if len(mfcc) != expected {
			e.logger().Warn("length does not match expected", "path", path, "got", len(mfcc), "expected", expected)
			stats.Mismatched++
			continue
		}
		out = append(out, mfcc)
		stats.Kept++
	}
	return out, stats
}

// segmentWindow picks a start uniformly in [0, numSamples]. A window running
// past the end is shifted left by its own length; a window that then starts
// before the signal is rejected.
func segmentWindow(rng *rand.Rand, numSamples, perSegment int) (start, end int, err error) {
	start = rng.IntN(numSamples + 1)
	end = start + perSegment
	if end > numSamples {
		start -= perSegment
		end -= perSegment
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("%w: window [%d, %d) over %d samples", ErrSegmentOutOfRange, start, end, numSamples)
	}
	return start, end, nil
}

func (e *Extractor) rand(stream uint64) *rand.Rand {
	if e.Rand != nil {
		return e.Rand(stream)
	}
	return rand.New(rand.NewPCG(rand.Uint64(), stream)) //nolint:gosec // sampling, not crypto
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

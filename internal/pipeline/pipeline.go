// Package pipeline runs the dataset build end to end: it restructures the
// raw tree, balances the song selection and writes the MFCC dataset.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/llehouerou/songset/internal/audio"
	"github.com/llehouerou/songset/internal/config"
	"github.com/llehouerou/songset/internal/dataset"
	"github.com/llehouerou/songset/internal/errmsg"
	"github.com/llehouerou/songset/internal/library"
	"github.com/llehouerou/songset/internal/tree"
)

// samplerStream is the random stream reserved for song selection. Artist
// streams use their label.
const samplerStream = math.MaxUint64

// StageError ties a failure to the stage that produced it.
type StageError struct {
	Op  errmsg.Op
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result summarizes a finished run.
type Result struct {
	Tree     tree.Report
	Artists  []string       // mapping order
	Songs    map[string]int // songs per artist before balancing
	MinCount int
	Extract  dataset.Stats
	Segments map[string]int // kept segments per artist
	Output   string
}

// Pipeline holds everything a run needs.
type Pipeline struct {
	Config *config.Config
	Logger *slog.Logger

	// Loader decodes songs. Nil uses the MP3 decoder at Config.SampleRate.
	Loader audio.Loader
	// Recorder receives every filesystem mutation. May be nil.
	Recorder tree.Recorder

	// OnExtractStart is called with the number of songs about to be decoded.
	OnExtractStart func(songs int)
	// OnTrack is forwarded to the extractor.
	OnTrack func(artist, path string)
}

// Run executes every stage in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	logger := p.logger()
	res := &Result{Output: cfg.Output}

	t := tree.New(cfg.Root, logger, p.Recorder)
	stages := []struct {
		op  errmsg.Op
		run func() error
	}{
		{errmsg.OpSanitize, t.Sanitize},
		{errmsg.OpFlatten, t.Flatten},
		{errmsg.OpPrune, t.Prune},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := s.run()
		res.Tree = t.Report()
		if err != nil {
			return nil, &StageError{Op: s.op, Err: err}
		}
	}
	logger.Info("tree restructured",
		"renamed", res.Tree.Renamed,
		"moved", res.Tree.Moved,
		"dropped", res.Tree.Dropped,
		"pruned", res.Tree.Pruned)

	inv, err := library.Build(t.Root())
	if err != nil {
		return nil, &StageError{Op: errmsg.OpInventory, Err: err}
	}
	res.Artists = inv.Artists
	res.Songs = inv.Counts()

	randFor := RandSource(cfg.Seed)
	var sampler *rand.Rand
	if randFor != nil {
		sampler = randFor(samplerStream)
	}
	sel, err := library.Sample(inv, sampler)
	if err != nil {
		return nil, &StageError{Op: errmsg.OpSample, Err: err}
	}
	res.MinCount = sel.MinCount
	logger.Info("songs selected", "artists", len(inv.Artists), "per_artist", sel.MinCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.OnExtractStart != nil {
		p.OnExtractStart(sel.MinCount * len(inv.Artists))
	}

	ext := &dataset.Extractor{
		Loader:           p.loader(),
		SegmentsPerTrack: cfg.SegmentsPerTrack,
		SegmentDuration:  cfg.SegmentDuration,
		Workers:          cfg.WorkerCount(),
		Rand:             randFor,
		Logger:           logger,
		OnTrack:          p.OnTrack,
	}
	ds, stats, err := ext.Extract(ctx, inv.Artists, sel.Chosen)
	if err != nil {
		return nil, &StageError{Op: errmsg.OpExtract, Err: err}
	}
	res.Extract = stats
	res.Segments = ds.SegmentsPerArtist()

	if err := ds.Validate(); err != nil {
		return nil, &StageError{Op: errmsg.OpWrite, Err: err}
	}
	if err := dataset.WriteJSON(cfg.Output, ds); err != nil {
		return nil, &StageError{Op: errmsg.OpWrite, Err: err}
	}
	logger.Info("dataset written", "path", cfg.Output, "segments", len(ds.Labels))

	return res, nil
}

// RandSource returns reproducible streams for a seed, or nil when seed is
// unset so every component falls back to an unseeded source.
func RandSource(seed *uint64) dataset.RandFunc {
	if seed == nil {
		return nil
	}
	s := *seed
	return func(stream uint64) *rand.Rand {
		return rand.New(rand.NewPCG(s, stream)) //nolint:gosec // sampling, not crypto
	}
}

func (p *Pipeline) loader() audio.Loader {
	if p.Loader != nil {
		return p.Loader
	}
	return audio.MP3Loader{SampleRate: p.Config.SampleRate}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

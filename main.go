package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/llehouerou/songset/internal/config"
	"github.com/llehouerou/songset/internal/errmsg"
	"github.com/llehouerou/songset/internal/journal"
	"github.com/llehouerou/songset/internal/pipeline"
)

var (
	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type options struct {
	configFile string
	root       string
	output     string
	seed       uint64
	workers    int
	segments   int
	duration   int
	sampleRate int
	noJournal  bool
	verbose    bool
}

func parseFlags() options {
	var o options
	pflag.StringVarP(&o.configFile, "config", "c", "", "Read settings from this TOML file")
	pflag.StringVar(&o.root, "root", "", "Dataset root holding artist/album/*.mp3")
	pflag.StringVarP(&o.output, "output", "o", "", "Path of the JSON dataset to write")
	pflag.Uint64Var(&o.seed, "seed", 0, "Seed song sampling and segment offsets")
	pflag.IntVarP(&o.workers, "workers", "w", 0, "Artists extracted in parallel")
	pflag.IntVar(&o.segments, "segments", 0, "Segments drawn from every chosen song")
	pflag.IntVar(&o.duration, "duration", 0, "Segment duration in seconds")
	pflag.IntVar(&o.sampleRate, "sample-rate", 0, "Resample songs to this rate (0 keeps the native rate)")
	pflag.BoolVar(&o.noJournal, "no-journal", false, "Do not record filesystem mutations")
	pflag.BoolVarP(&o.verbose, "verbose", "v", false, "Log every mutation")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Restructures the dataset root in place, then writes a balanced MFCC dataset.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	return o
}

// apply overrides the loaded configuration with explicitly set flags.
func (o options) apply(cfg *config.Config) {
	changed := pflag.CommandLine.Changed
	if changed("root") {
		cfg.Root = o.root
	}
	if changed("output") {
		cfg.Output = o.output
	}
	if changed("seed") {
		seed := o.seed
		cfg.Seed = &seed
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("segments") {
		cfg.SegmentsPerTrack = o.segments
	}
	if changed("duration") {
		cfg.SegmentDuration = o.duration
	}
	if changed("sample-rate") {
		cfg.SampleRate = o.sampleRate
	}
	if o.noJournal {
		disabled := false
		cfg.Journal.Enabled = &disabled
	}
}

func loadConfig(o options) (*config.Config, error) {
	var extra []string
	if o.configFile != "" {
		extra = append(extra, o.configFile)
	}
	cfg, err := config.Load(extra...)
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	return cfg, cfg.Validate()
}

func openJournal(cfg *config.Config, logger *slog.Logger) (*journal.Journal, int64, error) {
	path := cfg.Journal.Path
	if path == "" {
		var err error
		if path, err = journal.DefaultPath(); err != nil {
			return nil, 0, err
		}
	}

	j, err := journal.Open(path)
	if err != nil {
		return nil, 0, err
	}
	runID, err := j.BeginRun(cfg.Root)
	if err != nil {
		j.Close()
		return nil, 0, err
	}
	logger.Debug("journal opened", "path", path, "run", runID)
	return j, runID, nil
}

func run(o options) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(o)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpConfigLoad, o.configFile, err))
	}

	p := &pipeline.Pipeline{Config: cfg, Logger: logger}

	if cfg.JournalEnabled() {
		j, runID, err := openJournal(cfg, logger)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpJournalOpen, cfg.Journal.Path, err))
		}
		defer j.Close()
		p.Recorder = j
		defer func() {
			if counts, err := j.Counts(runID); err == nil {
				logger.Info("mutations journaled", "run", runID,
					"renames", counts[journal.KindRename],
					"moves", counts[journal.KindMove],
					"deletes", counts[journal.KindDelete])
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	var bar *mpb.Bar
	p.OnExtractStart = func(songs int) {
		bar = progress.AddBar(int64(songs),
			mpb.PrependDecorators(
				decor.Name("Extracting: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}
	p.OnTrack = func(string, string) {
		bar.Increment()
	}

	res, err := p.Run(ctx)
	if bar != nil {
		if err != nil {
			bar.Abort(false)
		}
		progress.Wait()
	}
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			return errors.New(errmsg.Format(se.Op, se.Err))
		}
		return err
	}

	fmt.Println(renderSummary(res))
	return nil
}

func renderSummary(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dataset ready"))
	b.WriteString("\n\n")

	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), value)
	}

	line("Renamed", humanize.Comma(int64(res.Tree.Renamed)))
	line("Moved", humanize.Comma(int64(res.Tree.Moved)))
	if res.Tree.Dropped > 0 {
		line("Dropped", warnStyle.Render(humanize.Comma(int64(res.Tree.Dropped))))
	}
	line("Pruned dirs", humanize.Comma(int64(res.Tree.Pruned)))
	line("Artists", humanize.Comma(int64(len(res.Artists))))
	line("Songs per artist", humanize.Comma(int64(res.MinCount)))
	line("Segments kept", humanize.Comma(int64(res.Extract.Kept)))
	if skipped := res.Extract.Mismatched + res.Extract.OutOfRange; skipped > 0 {
		line("Segments skipped", warnStyle.Render(humanize.Comma(int64(skipped))))
	}

	size := "unknown"
	if info, err := os.Stat(res.Output); err == nil {
		size = humanize.IBytes(uint64(info.Size())) //nolint:gosec // file sizes are non-negative
	}
	line("Output", fmt.Sprintf("%s (%s)", res.Output, size))

	if len(res.Artists) > 0 {
		b.WriteString("\n")
		artists := append([]string(nil), res.Artists...)
		sort.Strings(artists)
		for _, a := range artists {
			line(a, fmt.Sprintf("%d songs, %d segments", res.Songs[a], res.Segments[a]))
		}
	}

	return summaryStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

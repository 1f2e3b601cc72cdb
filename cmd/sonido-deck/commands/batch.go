package commands

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/playlist"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// SidecarName is the metadata file batch writes next to the analyzed tracks
const SidecarName = "tracklist_metadata.json"

const (
	minBatchWindow = 60
	maxBatchWindow = 180
)

type batchOptions struct {
	workers  int
	seconds  float64
	output   string
	doImport bool
	progress bool
}

type batchSummary struct {
	Sidecar  string `json:"sidecar" yaml:"sidecar"`
	Total    int    `json:"total" yaml:"total"`
	Analyzed int    `json:"analyzed" yaml:"analyzed"`
	Failed   int    `json:"failed" yaml:"failed"`
	Imported int    `json:"imported" yaml:"imported"`
}

func newBatchCmd(a *app) *cobra.Command {
	opts := batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze every audio file under a folder into a sidecar",
		Long: `Analyze every supported audio file (mp3, flac, wav, m4a, ogg) under dir
with a pool of workers and write the results to a JSON sidecar.

An existing sidecar keeps its artist, title and genre metadata; only the
descriptors are refreshed. Files that fail carry an error in the sidecar.

Examples:
  sonido-deck batch ~/Music/techno
  sonido-deck batch ~/Music/techno --duration 180 --workers 4 --import`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.seconds < minBatchWindow || opts.seconds > maxBatchWindow {
				return fmt.Errorf("--duration must be between %d and %d seconds", minBatchWindow, maxBatchWindow)
			}
			a.cfg.Analysis.AnalysisDuration = time.Duration(opts.seconds * float64(time.Second))

			summary, err := runBatch(cmd, a, args[0], opts)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), summary)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "concurrent analyses")
	f.Float64Var(&opts.seconds, "duration", minBatchWindow, "seconds of audio to analyze per track (60-180)")
	f.StringVarP(&opts.output, "output", "o", "", "sidecar path (default <dir>/"+SidecarName+")")
	f.BoolVar(&opts.doImport, "import", false, "also store the analyzed tracks in the library")
	f.BoolVar(&opts.progress, "progress", true, "show a progress bar")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, dir string, opts batchOptions) (*batchSummary, error) {
	ctx := contextOf(cmd)
	logger := a.logger.WithFields(logging.Fields{"component": "batch", "dir": dir})

	files, err := collectAudio(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported audio files under %s", dir)
	}

	sidecarPath := opts.output
	if sidecarPath == "" {
		sidecarPath = filepath.Join(dir, SidecarName)
	}
	sidecar, tracks := seedSidecar(sidecarPath, files)

	analyzer := a.analyzer()
	analyzeAll(ctx, cmd, analyzer, tracks, opts)

	summary := &batchSummary{Sidecar: sidecarPath, Total: len(tracks)}
	for _, t := range tracks {
		if t.Error != "" {
			summary.Failed++
		} else {
			summary.Analyzed++
		}
	}

	// imported ids go into the sidecar so a later import updates instead of duplicating
	if opts.doImport {
		n, err := importTracks(ctx, a, tracks)
		if err != nil {
			return nil, err
		}
		summary.Imported = n
	}

	sidecar.Tracks = tracks
	if err := playlist.WriteSidecar(sidecarPath, sidecar); err != nil {
		return nil, err
	}
	logger.Info("Batch analysis finished", logging.Fields{"analyzed": summary.Analyzed, "failed": summary.Failed})
	return summary, nil
}

// analyzeAll fills the descriptors of tracks in place. Each worker writes only
// the index it was handed.
func analyzeAll(ctx context.Context, cmd *cobra.Command, analyzer *analysis.Analyzer, tracks []playlist.Track, opts batchOptions) {
	workers := opts.workers
	if workers <= 0 {
		workers = 1
	}

	var p *mpb.Progress
	var bar *mpb.Bar
	if opts.progress {
		p = mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(cmd.ErrOrStderr()))
		bar = p.AddBar(int64(len(tracks)),
			mpb.PrependDecorators(
				decor.Name("Analyzing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
		)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				res, err := analyzer.AnalyzeFile(ctx, tracks[i].FilePath)
				if err != nil {
					tracks[i].Error = err.Error()
				} else {
					applySummary(&tracks[i], res.Summary())
				}
				if bar != nil {
					bar.EwmaIncrement(time.Since(start))
				}
			}
		}()
	}

	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if p != nil {
		p.Wait()
	}
}

func applySummary(t *playlist.Track, s analysis.Summary) {
	t.Error = ""
	t.BPM = s.BPM
	t.BPMConfidence = s.BPMConfidence
	t.Key = s.Key
	t.CamelotCode = s.Camelot
	t.KeyConfidence = s.KeyConfidence
	t.EnergyLevel = s.Energy
	if t.DurationMs == 0 && s.TrackDurationSeconds > 0 {
		t.DurationMs = int64(math.Round(s.TrackDurationSeconds * 1000))
	}
}

// collectAudio returns the supported files under dir in path order
func collectAudio(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if transcode.IsSupported(transcode.FormatFromPath(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// seedSidecar loads the sidecar at path when it exists and lines its entries
// up with files by file name
func seedSidecar(path string, files []string) (*playlist.Sidecar, []playlist.Track) {
	sidecar := &playlist.Sidecar{}
	known := map[string]playlist.Track{}
	if _, err := os.Stat(path); err == nil {
		if existing, err := playlist.ReadSidecar(path); err == nil {
			sidecar = existing
			for _, t := range existing.Tracks {
				known[t.FileName()] = t
			}
		}
	}

	tracks := make([]playlist.Track, len(files))
	for i, f := range files {
		name := filepath.Base(f)
		t, ok := known[name]
		if !ok {
			t = trackFromFileName(name)
		}
		t.Position = i + 1
		t.Filename = name
		t.FilePath = f
		tracks[i] = t
	}
	return sidecar, tracks
}

// trackFromFileName splits "Artist - Title.ext"; without a separator the
// whole stem is the title
func trackFromFileName(name string) playlist.Track {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if artist, title, ok := strings.Cut(stem, " - "); ok {
		return playlist.Track{Artist: strings.TrimSpace(artist), Title: strings.TrimSpace(title)}
	}
	return playlist.Track{Title: stem}
}

// importTracks stores the analyzed tracks and writes the library ids back onto them
func importTracks(ctx context.Context, a *app, tracks []playlist.Track) (int, error) {
	lib, closeLib, err := a.openLibrary()
	if err != nil {
		return 0, err
	}
	defer closeLib()

	now := time.Now()
	var records []*library.TrackRecord
	var positions []int
	for i, t := range tracks {
		if t.Error != "" {
			continue
		}
		r := &library.TrackRecord{
			TrackID:       t.TrackID,
			Title:         t.Title,
			Path:          t.FilePath,
			DurationMs:    t.DurationMs,
			BPM:           t.BPM,
			BPMConfidence: t.BPMConfidence,
			Key:           t.Key,
			CamelotCode:   t.CamelotCode,
			KeyConfidence: t.KeyConfidence,
			EnergyLevel:   t.EnergyLevel,
			AnalyzedAt:    &now,
		}
		if t.Artist != "" {
			r.Artists = []string{t.Artist}
		}
		if t.Genre != "" {
			r.Genre = []string{t.Genre}
		}
		records = append(records, r)
		positions = append(positions, i)
	}

	if err := lib.ImportTracks(ctx, records); err != nil {
		return 0, err
	}
	for j, i := range positions {
		tracks[i].TrackID = records[j].TrackID
	}
	return len(records), nil
}

package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/tscmscan/internal/detect"
	"github.com/RMahshie/tscmscan/internal/discovery"
	"github.com/RMahshie/tscmscan/internal/metrics"
	"github.com/RMahshie/tscmscan/internal/report"
	"github.com/RMahshie/tscmscan/internal/spectrogram"
	"github.com/RMahshie/tscmscan/internal/storage"
	"github.com/RMahshie/tscmscan/internal/sweep"
	"github.com/RMahshie/tscmscan/pkg/models"
)

// Artifact name suffixes, appended to the input's base name
const (
	HeatmapSuffix   = "_heatmap.png"
	CandidateSuffix = discovery.CandidateSuffix
)

// Settings carries the analysis options for one run
type Settings struct {
	MarginDB  float64
	Reducer   detect.Reducer
	Comment   rune
	OutputDir string // empty writes artifacts beside each input
}

// Service runs the sweep log pipeline over one or many files
type Service interface {
	ProcessFile(ctx context.Context, path string) (*models.FileReport, error)
	Run(ctx context.Context, paths []string) *models.BatchSummary
}

type service struct {
	settings Settings
	detector detect.Detector
	renderer report.HeatmapRenderer
	writer   report.CandidateWriter
	store    storage.ArtifactStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService wires the pipeline stages. metrics may be nil.
func NewService(settings Settings, renderer report.HeatmapRenderer, writer report.CandidateWriter, store storage.ArtifactStore, m *metrics.Metrics) Service {
	if settings.Reducer == "" {
		settings.Reducer = detect.ReducerMean
	}
	return &service{
		settings: settings,
		detector: detect.Detector{MarginDB: settings.MarginDB, Reducer: settings.Reducer},
		renderer: renderer,
		writer:   writer,
		store:    store,
		metrics:  m,
		now:      time.Now,
	}
}

// ProcessFile parses, analyses and reports on a single sweep log. The
// returned report is never nil; on failure its status is failed and the
// error is also returned.
func (s *service) ProcessFile(ctx context.Context, path string) (*models.FileReport, error) {
	start := s.now()
	rep := &models.FileReport{
		Path:  path,
		Label: discovery.BaseName(path),
	}

	err := s.process(ctx, path, rep)
	rep.Duration = s.now().Sub(start)
	s.finish(rep, err)

	return rep, err
}

// finish records the outcome of a file on its report and in metrics
func (s *service) finish(rep *models.FileReport, err error) {
	if err != nil {
		rep.Status = models.StatusFailed
		rep.ErrorKind = models.ErrorKind(err)
		rep.ErrorMsg = err.Error()
	} else {
		rep.Status = models.StatusOK
	}
	s.metrics.ObserveFile(rep)
}

// outputDir returns the directory that receives the artifacts for path
func (s *service) outputDir(path string) string {
	if s.settings.OutputDir != "" {
		return s.settings.OutputDir
	}
	return filepath.Dir(path)
}

func (s *service) process(ctx context.Context, path string, rep *models.FileReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 1: Parse the sweep log
	rows, err := sweep.ParseFile(path, sweep.Options{Comment: s.settings.Comment})
	if err != nil {
		return err
	}

	// Step 2: Assemble the spectrogram
	sg, err := spectrogram.Build(rows)
	if err != nil {
		return fmt.Errorf("failed to build spectrogram: %w", err)
	}
	rep.Rows = sg.Sweeps()
	rep.Bins = sg.Bins()
	rep.FreqLowHz = sg.Axis[0]
	rep.FreqHighHz = sg.Axis[len(sg.Axis)-1]
	if first, last, ok := sg.TimeRange(); ok {
		rep.FirstSweep = &first
		rep.LastSweep = &last
	}

	log.Debug().
		Str("file", rep.Label).
		Int("rows", rep.Rows).
		Int("bins", rep.Bins).
		Msg("Spectrogram built")

	// Step 3: Detect candidates
	result := s.detector.Detect(sg)
	rep.BaselineDB = result.Baseline
	rep.ThresholdDB = result.Threshold
	rep.Candidates = len(result.Candidates)
	if len(result.Candidates) > 0 {
		mhz := make([]float64, len(result.Candidates))
		for i, c := range result.Candidates {
			mhz[i] = c.FrequencyMHz()
		}
		log.Debug().
			Str("file", rep.Label).
			Floats64("candidates_mhz", mhz).
			Msg("Candidates detected")
	}

	// Step 4: Render both artifacts before touching the output directory
	var png bytes.Buffer
	heatmap := report.Heatmap{
		Label: rep.Label,
		Axis:  sg.Axis,
		Power: sg.Power,
		Times: sg.Times,
	}
	if err := s.renderer.RenderHeatmap(&png, heatmap); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}

	var table bytes.Buffer
	if err := s.writer.WriteCandidates(&table, result.Candidates); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}

	// Step 5: Store
	paths, err := s.store.SaveAll(ctx, s.outputDir(path), []storage.Artifact{
		{Name: rep.Label + HeatmapSuffix, Data: png.Bytes()},
		{Name: rep.Label + CandidateSuffix, Data: table.Bytes()},
	})
	if err != nil {
		return fmt.Errorf("failed to store artifacts: %w", err)
	}
	if len(paths) == 2 {
		rep.HeatmapPath = paths[0]
		rep.CandidatePath = paths[1]
	}

	return nil
}

// Run processes paths in order. A failed file is logged and recorded and the
// next file proceeds. Cancellation is only observed between files. Inputs
// whose artifact names collide with an earlier input, such as band.csv and
// band.csv.gz, fail with ErrOutputConflict and write nothing.
func (s *service) Run(ctx context.Context, paths []string) *models.BatchSummary {
	summary := &models.BatchSummary{
		RunID:     uuid.New().String(),
		StartedAt: s.now().UTC(),
		MarginDB:  s.settings.MarginDB,
		Reducer:   string(s.settings.Reducer),
		Files:     make([]*models.FileReport, 0, len(paths)),
	}
	logger := log.With().Str("run_id", summary.RunID).Logger()
	claimed := make(map[string]string, len(paths))

	logger.Info().
		Int("files", len(paths)).
		Float64("margin_db", s.settings.MarginDB).
		Str("reducer", string(s.settings.Reducer)).
		Msg("Starting run")

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("Run cancelled")
			break
		}

		logger.Info().Str("file", path).Msg("Processing")
		var rep *models.FileReport
		var err error
		key := filepath.Join(s.outputDir(path), discovery.BaseName(path))
		if first, ok := claimed[key]; ok {
			rep = &models.FileReport{Path: path, Label: discovery.BaseName(path)}
			err = fmt.Errorf("%w: artifacts for %s are already produced by %s", models.ErrOutputConflict, filepath.Base(path), filepath.Base(first))
			s.finish(rep, err)
		} else {
			claimed[key] = path
			rep, err = s.ProcessFile(ctx, path)
		}
		summary.Add(rep)
		if err != nil {
			traced := xerrors.New(err)
			event := logger.Error()
			if errors.Is(err, models.ErrMalformedInput) || errors.Is(err, models.ErrOutputConflict) {
				event = logger.Warn()
			}
			event.
				Str("file", path).
				Str("kind", rep.ErrorKind).
				Str("detail", xerrors.Sprint(traced)).
				Err(err).
				Msg("Skipping file")
			continue
		}

		logger.Info().
			Str("file", path).
			Int("rows", rep.Rows).
			Int("bins", rep.Bins).
			Float64("baseline_db", rep.BaselineDB).
			Float64("threshold_db", rep.ThresholdDB).
			Int("candidates", rep.Candidates).
			Str("artifact", rep.HeatmapPath).
			Msg("Completed")
	}

	summary.FinishedAt = s.now().UTC()
	s.metrics.ObserveRun(summary)

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Run finished")

	return summary
}

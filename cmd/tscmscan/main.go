package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/RMahshie/tscmscan/internal/config"
	"github.com/RMahshie/tscmscan/internal/discovery"
	"github.com/RMahshie/tscmscan/internal/metrics"
	"github.com/RMahshie/tscmscan/internal/processing"
	"github.com/RMahshie/tscmscan/internal/report"
	"github.com/RMahshie/tscmscan/internal/repository/yamlfile"
	"github.com/RMahshie/tscmscan/internal/storage"
	"github.com/RMahshie/tscmscan/pkg/models"
)

const usage = `Usage:
  tscmscan file <path> [flags]     analyse a single sweep log
  tscmscan batch [folder] [flags]  analyse every sweep log in folder
                                   (default: latest folder matching --folder-pattern)

Flags:
`

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:]))
}

// run executes one invocation and returns the process exit code
func run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("tscmscan", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	runMode, paths, err := resolveInputs(cfg, fs.Args())
	if err != nil {
		log.Error().Err(err).Msg("No input")
		if errors.Is(err, errUsage) {
			fs.Usage()
		}
		return 1
	}

	m := metrics.New()
	svc := processing.NewService(
		processing.Settings{
			MarginDB:  cfg.Analysis.MarginDB,
			Reducer:   cfg.Reducer(),
			Comment:   cfg.CommentRune(),
			OutputDir: cfg.Output.Dir,
		},
		report.NewPNGRenderer(cfg.Heatmap.Width, cfg.Heatmap.Height),
		report.NewCSVWriter(),
		storage.NewFileStore(),
		m,
	)

	summary := svc.Run(ctx, paths)
	code := 0
	if runMode == modeFile && summary.Failed > 0 {
		code = 1
	}

	if cfg.Output.SummaryFile != "" {
		repo := yamlfile.NewSummaryRepository(cfg.Output.SummaryFile)
		if err := repo.Save(context.WithoutCancel(ctx), summary); err != nil {
			log.Error().Err(err).Str("file", cfg.Output.SummaryFile).Msg("Failed to write run summary")
			code = 1
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			log.Error().Err(err).Str("file", cfg.Output.MetricsFile).Msg("Failed to write metrics")
			code = 1
		}
	}

	return code
}

type mode int

const (
	modeFile mode = iota
	modeBatch
)

var errUsage = errors.New("expected 'file <path>' or 'batch [folder]'")

// resolveInputs turns the positional arguments into a list of sweep logs
func resolveInputs(cfg *config.Config, args []string) (mode, []string, error) {
	if len(args) == 0 {
		return 0, nil, errUsage
	}

	switch args[0] {
	case "file":
		if len(args) != 2 {
			return 0, nil, fmt.Errorf("file mode takes exactly one path: %w", errUsage)
		}
		path := args[1]
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return 0, nil, fmt.Errorf("sweep log %s: %w", path, models.ErrNotFound)
		}
		return modeFile, []string{path}, nil

	case "batch":
		var folder string
		switch len(args) {
		case 1:
			latest, err := discovery.LatestFolder(cfg.Discovery.SearchRoot, cfg.Discovery.FolderPattern)
			if err != nil {
				return 0, nil, err
			}
			folder = latest
		case 2:
			folder = args[1]
		default:
			return 0, nil, fmt.Errorf("batch mode takes at most one folder: %w", errUsage)
		}

		paths, err := discovery.ListInputs(folder)
		if err != nil {
			return 0, nil, err
		}
		log.Info().Str("folder", folder).Int("files", len(paths)).Msg("Resolved batch inputs")
		return modeBatch, paths, nil

	default:
		return 0, nil, fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// Command preprocessor is the first pipeline stage: it combines the raw
// activity exports found in the input directory into one intermediate
// dataset, applying the step sequence from the preprocessing config.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shiftcli/internal/config"
	"shiftcli/internal/dataset"
	"shiftcli/internal/exporter"
	"shiftcli/internal/files"
	"shiftcli/internal/infrastructure"
	"shiftcli/internal/pipeline"
	"shiftcli/internal/transform"
	"shiftcli/internal/workday"
	"shiftcli/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "stage config file (defaults to configs/preprocessing.yaml relative to executable)")
	inDir := flag.String("in", "", "input directory for raw activity exports (overrides stage config)")
	outPath := flag.String("out", "", "output path for the intermediate CSV (overrides stage config)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath("preprocess.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.WithRunID(context.Background(), infrastructure.NewRunID())

	tracer, shutdownTracing, err := infrastructure.InitializeTracing(cfg.Tracing, "preprocessor")
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	if *configPath == "" {
		*configPath = paths.GetConfigPath("preprocessing.yaml")
	}
	stage, err := pipeline.LoadStageConfig(*configPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load stage config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	inputDir := paths.Resolve(stage.Input.Path)
	if *inDir != "" {
		inputDir = *inDir
	}
	outputPath := paths.Resolve(stage.Output.Path)
	if *outPath != "" {
		outputPath = *outPath
	}

	logger.InfoContext(ctx, "Starting preprocessing stage",
		slog.String("version", contracts.GetFullVersionString()),
		slog.String("config", *configPath),
		slog.String("input_dir", inputDir),
		slog.String("output_path", outputPath))

	registry := pipeline.NewRegistry()
	transform.Register(registry)
	workday.Register(registry)

	runner := pipeline.NewRunner(registry, logger).WithTracer(tracer)
	if err := runner.ValidateSpecs(stage.Steps); err != nil {
		logger.ErrorContext(ctx, "Invalid step configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ds, err := loadRawData(ctx, logger, inputDir, stage.Input)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load raw data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	result, err := runner.Run(ctx, ds, stage.Steps)
	if err != nil {
		logger.ErrorContext(ctx, "Preprocessing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sep, err := pipeline.SeparatorRune(stage.Output.Separator)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid output separator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := exporter.WriteDataset(outputPath, result, exporter.WriteOptions{
		Separator: sep,
		BOMPrefix: stage.Output.BOM,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to write intermediate dataset", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Preprocessing complete",
		slog.Int("rows", result.NumRows()),
		slog.Int("columns", result.NumColumns()),
		slog.String("output_path", outputPath))
}

// loadRawData loads and concatenates every CSV and Excel file in the
// input directory. All files must share the same header.
func loadRawData(ctx context.Context, logger *slog.Logger, inputDir string, input pipeline.InputConfig) (*dataset.Dataset, error) {
	discovery := files.NewDiscovery(inputDir)
	found, err := discovery.FindDataFiles(".")
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &pipeline.StepError{
			Kind:    pipeline.ErrorKindValidation,
			Message: "no raw data files found in " + inputDir,
		}
	}

	sep, err := pipeline.SeparatorRune(input.Separator)
	if err != nil {
		return nil, err
	}

	datasets := make([]*dataset.Dataset, 0, len(found))
	for _, file := range found {
		logger.InfoContext(ctx, "Loading raw file",
			slog.String("file", file.Name),
			slog.Int64("size", file.Size))

		var ds *dataset.Dataset
		if strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			ds, err = dataset.LoadCSV(file.Path, dataset.LoadOptions{Separator: sep, TrimSpace: true})
		} else {
			ds, err = dataset.LoadExcel(file.Path, input.Sheet)
		}
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	combined, err := dataset.Concat(datasets...)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Raw data combined",
		slog.Int("files", len(found)),
		slog.Int("rows", combined.NumRows()))
	return combined, nil
}

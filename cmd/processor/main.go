// Command processor is the second pipeline stage: it reads the
// intermediate dataset produced by the preprocessor, applies the step
// sequence from the processing config, and writes the final dataset and
// run logs to the data directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"shiftcli/internal/config"
	"shiftcli/internal/dataset"
	"shiftcli/internal/exporter"
	"shiftcli/internal/infrastructure"
	"shiftcli/internal/pipeline"
	"shiftcli/internal/transform"
	"shiftcli/internal/workday"
	"shiftcli/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "stage config file (defaults to configs/processing.yaml relative to executable)")
	inPath := flag.String("in", "", "input path for the intermediate CSV (overrides stage config)")
	outPath := flag.String("out", "", "output path for the final CSV (overrides stage config)")
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
		cfg.Logging.FilePath = paths.GetLogPath("process.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.WithRunID(context.Background(), infrastructure.NewRunID())

	tracer, shutdownTracing, err := infrastructure.InitializeTracing(cfg.Tracing, "processor")
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	if *configPath == "" {
		*configPath = paths.GetConfigPath("processing.yaml")
	}
	stage, err := pipeline.LoadStageConfig(*configPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load stage config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	inputPath := paths.Resolve(stage.Input.Path)
	if *inPath != "" {
		inputPath = *inPath
	}
	outputPath := paths.Resolve(stage.Output.Path)
	if *outPath != "" {
		outputPath = *outPath
	}

	logger.InfoContext(ctx, "Starting processing stage",
		slog.String("version", contracts.GetFullVersionString()),
		slog.String("config", *configPath),
		slog.String("input_path", inputPath),
		slog.String("output_path", outputPath))

	registry := pipeline.NewRegistry()
	transform.Register(registry)
	workday.Register(registry)

	runner := pipeline.NewRunner(registry, logger).WithTracer(tracer)
	if err := runner.ValidateSpecs(stage.Steps); err != nil {
		logger.ErrorContext(ctx, "Invalid step configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sep, err := pipeline.SeparatorRune(stage.Input.Separator)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid input separator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	ds, err := dataset.LoadCSV(inputPath, dataset.LoadOptions{Separator: sep, TrimSpace: true})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load intermediate dataset", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Intermediate dataset loaded",
		slog.Int("rows", ds.NumRows()),
		slog.Int("columns", ds.NumColumns()))

	result, err := runner.Run(ctx, ds, stage.Steps)
	if err != nil {
		logger.ErrorContext(ctx, "Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	outSep, err := pipeline.SeparatorRune(stage.Output.Separator)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid output separator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := exporter.WriteDataset(outputPath, result, exporter.WriteOptions{
		Separator: outSep,
		BOMPrefix: stage.Output.BOM,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to write final dataset", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Processing complete",
		slog.Int("rows", result.NumRows()),
		slog.Int("columns", result.NumColumns()),
		slog.String("output_path", outputPath))
}

// Command builder downloads the factor-return source archives, joins the
// five-factor and momentum tables per universe, and writes the datasets
// under data/ with metadata sidecars under meta/. It takes no arguments;
// configuration comes from FACTOR_* environment variables or an optional
// factorcli.yaml file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"factorcli/internal/config"
	"factorcli/internal/dataset"
	"factorcli/internal/infrastructure"
	"factorcli/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		fmt.Printf("Error: failed to resolve paths: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create output directories: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.LogPath("builder.log")
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	builder := pipeline.NewBuilder(cfg, paths, logger)
	datasets := dataset.All()

	logger.Info("Starting factor dataset build",
		slog.Int("datasets", len(datasets)),
		slog.String("data_dir", paths.DataDir),
		slog.String("meta_dir", paths.MetaDir))

	if err := builder.BuildAll(context.Background(), datasets); err != nil {
		logger.Error("Build finished with failures", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}

	logger.Info("All datasets written",
		slog.String("data_dir", paths.DataDir),
		slog.String("meta_dir", paths.MetaDir))
}

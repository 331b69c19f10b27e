// Package pipeline orchestrates a single dataset build: fetch both source
// archives, extract and harmonize their monthly tables, align them on a
// month-end index, and write the joined result.
package pipeline

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"factorcli/internal/config"
	"factorcli/internal/dataprocessing"
	"factorcli/internal/dataset"
	"factorcli/internal/errors"
	"factorcli/internal/exporter"
	"factorcli/internal/fetch"
)

// Builder runs dataset builds end to end.
type Builder struct {
	fetcher *fetch.Fetcher
	paths   *config.Paths
	baseURL string
	logger  *slog.Logger
}

// NewBuilder wires a Builder from configuration.
func NewBuilder(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *Builder {
	return &Builder{
		fetcher: fetch.New(cfg.HTTP, logger),
		paths:   paths,
		baseURL: cfg.Sources.BaseURL,
		logger:  logger,
	}
}

// BuildDataset builds one dataset to completion or failure. The two source
// archives are fetched concurrently; nothing is written until the joined
// table has passed validation.
func (b *Builder) BuildDataset(ctx context.Context, ds dataset.Dataset) error {
	logger := b.logger.With(slog.String("dataset", ds.Name))
	logger.Info("Building dataset")

	var five, mom *dataprocessing.MonthlyTable

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		five, err = b.readFiveFactor(gctx, ds.FiveFactorURL(b.baseURL))
		return err
	})
	g.Go(func() error {
		var err error
		mom, err = b.readMomentum(gctx, ds.MomentumURLs(b.baseURL))
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	joined, err := dataprocessing.Join(five, mom)
	if err != nil {
		return err
	}
	joined = dataprocessing.EnsureCanonicalColumns(joined)
	if err := dataprocessing.ValidateMomentum(joined); err != nil {
		return err
	}

	logger.Info("Tables joined",
		slog.Int("rows", len(joined.Rows)),
		slog.String("first_date", joined.Rows[0].Date.Format("2006-01-02")),
		slog.String("last_date", joined.Rows[len(joined.Rows)-1].Date.Format("2006-01-02")))

	return b.writeAll(ds, joined, logger)
}

// readFiveFactor downloads and harmonizes the five-factor table.
func (b *Builder) readFiveFactor(ctx context.Context, url string) (*dataprocessing.MonthlyTable, error) {
	text, err := b.fetcher.FetchArchiveText(ctx, url)
	if err != nil {
		return nil, err
	}
	table, err := dataprocessing.ExtractMonthlyTable(text, url)
	if err != nil {
		return nil, err
	}
	return dataprocessing.HarmonizeFiveFactor(table), nil
}

// readMomentum downloads and harmonizes the momentum table, trying each
// candidate archive in order. Publishers have moved the momentum series
// between archives over the years, so a miss on one candidate falls
// through to the next; only the last failure is fatal.
func (b *Builder) readMomentum(ctx context.Context, urls []string) (*dataprocessing.MonthlyTable, error) {
	var lastErr error
	for _, url := range urls {
		table, err := b.readMomentumFrom(ctx, url)
		if err != nil {
			b.logger.Warn("Momentum source unusable, trying next candidate",
				slog.String("url", url),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		return table, nil
	}
	return nil, lastErr
}

func (b *Builder) readMomentumFrom(ctx context.Context, url string) (*dataprocessing.MonthlyTable, error) {
	text, err := b.fetcher.FetchArchiveText(ctx, url)
	if err != nil {
		return nil, err
	}
	table, err := dataprocessing.ExtractMonthlyTable(text, url)
	if err != nil {
		return nil, err
	}
	return dataprocessing.HarmonizeMomentum(table)
}

// writeAll serializes the joined table to both output formats plus the
// metadata sidecar. If any write fails, files already written for this
// dataset are removed so a failed build leaves no partial artifacts.
func (b *Builder) writeAll(ds dataset.Dataset, table *dataprocessing.MonthlyTable, logger *slog.Logger) error {
	parquetPath := b.paths.DataPath(ds.Name + ".parquet")
	csvPath := b.paths.DataPath(ds.Name + ".csv.gz")
	metaPath := b.paths.MetaPath(ds.Name + ".json")

	var written []string
	cleanup := func() {
		for _, p := range written {
			if err := os.Remove(p); err != nil {
				logger.Warn("Failed to remove partial artifact", slog.String("path", p))
			}
		}
	}

	if err := exporter.WriteParquet(parquetPath, table); err != nil {
		cleanup()
		return err
	}
	written = append(written, parquetPath)

	if err := exporter.WriteCSVGz(csvPath, table); err != nil {
		cleanup()
		return err
	}
	written = append(written, csvPath)

	meta := exporter.NewMetadata(ds.Name, table, ds.SourceLabels, ds.Notes, ds.Universe, ds.IncludesEmerging)
	if err := exporter.WriteMetadata(metaPath, meta); err != nil {
		cleanup()
		return err
	}

	logger.Info("Dataset written",
		slog.String("parquet", parquetPath),
		slog.String("csv_gz", csvPath),
		slog.String("metadata", metaPath))
	return nil
}

// BuildAll runs every dataset build in order. Builds are isolated: a
// failure in one is logged and the remaining builds still run. The
// returned error joins all build failures.
func (b *Builder) BuildAll(ctx context.Context, datasets []dataset.Dataset) error {
	var failed []error
	for _, ds := range datasets {
		if err := b.BuildDataset(ctx, ds); err != nil {
			b.logger.Error("Dataset build failed",
				slog.String("dataset", ds.Name),
				slog.String("error", err.Error()))
			failed = append(failed, err)
			continue
		}
	}
	return errors.Join(failed...)
}

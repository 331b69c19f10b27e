package exporter

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"factorcli/internal/dataprocessing"
	"factorcli/internal/errors"
)

// WriteCSVGz serializes a canonical joined table to a gzip-compressed
// delimited text file with a header row and fixed six-decimal precision.
// Missing values are written as empty cells.
func WriteCSVGz(path string, table *dataprocessing.MonthlyTable) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to create csv.gz file", err).
			WithContext("path", path)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	w := csv.NewWriter(gz)

	header := append([]string{"date"}, table.Columns...)
	if err := w.Write(header); err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to write csv header", err).
			WithContext("path", path)
	}

	for i, row := range table.Rows {
		record := make([]string, 0, len(header))
		record = append(record, formatDate(row.Date))
		for _, c := range table.Columns {
			record = append(record, formatFactor(table.Value(i, c)))
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(errors.CodeExportFailed, "failed to write csv record", err).
				WithContext("path", path).
				WithContext("row", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to flush csv writer", err).
			WithContext("path", path)
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to finalize gzip stream", err).
			WithContext("path", path)
	}
	return nil
}

// ReadCSVGz loads a csv.gz file written by WriteCSVGz back into a table.
// Used to verify round-trips.
func ReadCSVGz(path string) (*dataprocessing.MonthlyTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "failed to open csv.gz file", err).
			WithContext("path", path)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "file is not gzip compressed", err).
			WithContext("path", path)
	}
	defer gz.Close()

	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "failed to parse csv records", err).
			WithContext("path", path)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeExportFailed, "csv.gz file has no header row").
			WithContext("path", path)
	}

	columns := records[0][1:]
	table := dataprocessing.NewMonthlyTable(columns)
	for _, rec := range records[1:] {
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, errors.Wrap(errors.CodeExportFailed, "csv file carries an unparseable date", err).
				WithContext("path", path).
				WithContext("date", rec[0])
		}
		values := make(map[string]float64, len(columns))
		for i, c := range columns {
			cell := strings.TrimSpace(rec[i+1])
			if cell == "" {
				values[c] = dataprocessing.Missing()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				values[c] = dataprocessing.Missing()
				continue
			}
			values[c] = v
		}
		table.AppendRow(date, values)
	}
	return table, nil
}

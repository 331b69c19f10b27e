package exporter

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"factorcli/internal/dataprocessing"
	"factorcli/internal/errors"
)

// DatasetMetadata is the descriptive sidecar paired 1:1 with a written
// dataset. It is created at write time and never mutated afterward.
type DatasetMetadata struct {
	Dataset          string   `json:"dataset"`
	FirstDate        string   `json:"first_date"`
	LastDate         string   `json:"last_date"`
	Rows             int      `json:"rows"`
	Columns          []string `json:"columns"`
	Units            string   `json:"units"`
	Index            string   `json:"index"`
	Sources          []string `json:"sources"`
	BuiltUTC         string   `json:"built_utc"`
	Notes            string   `json:"notes"`
	Universe         string   `json:"universe,omitempty"`
	IncludesEmerging bool     `json:"includes_emerging"`
	BuildID          string   `json:"build_id"`
}

// NewMetadata builds the metadata record for a joined table about to be
// written.
func NewMetadata(name string, table *dataprocessing.MonthlyTable, sources []string, notes, universe string, includesEmerging bool) DatasetMetadata {
	meta := DatasetMetadata{
		Dataset:          name,
		Rows:             len(table.Rows),
		Columns:          append([]string(nil), table.Columns...),
		Units:            "percent",
		Index:            "month_end",
		Sources:          append([]string(nil), sources...),
		BuiltUTC:         time.Now().UTC().Format(time.RFC3339),
		Notes:            notes,
		Universe:         universe,
		IncludesEmerging: includesEmerging,
		BuildID:          uuid.New().String(),
	}
	if len(table.Rows) > 0 {
		meta.FirstDate = formatDate(table.Rows[0].Date)
		meta.LastDate = formatDate(table.Rows[len(table.Rows)-1].Date)
	}
	return meta
}

// WriteMetadata serializes a metadata record to an indented JSON file.
func WriteMetadata(path string, meta DatasetMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to marshal metadata", err).
			WithContext("path", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to write metadata file", err).
			WithContext("path", path)
	}
	return nil
}

// ReadMetadata loads a metadata record back from disk.
func ReadMetadata(path string) (DatasetMetadata, error) {
	var meta DatasetMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, errors.Wrap(errors.CodeExportFailed, "failed to read metadata file", err).
			WithContext("path", path)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, errors.Wrap(errors.CodeExportFailed, "failed to parse metadata file", err).
			WithContext("path", path)
	}
	return meta, nil
}

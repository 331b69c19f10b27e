package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorcli/internal/config"
	"factorcli/internal/dataprocessing"
	"factorcli/internal/dataset"
	"factorcli/internal/errors"
	"factorcli/internal/exporter"
)

const fiveFactorCSV = `This file was created using the 202412 CRSP database.

,Mkt-RF,SMB,HML,RMW,CMA,RF
196307,0.10,0.20,-0.10,0.05,0.03,0.01
196308,0.10,0.20,-0.10,0.05,0.03,0.01
196309,0.10,0.20,-0.10,0.05,0.03,0.01

Annual Factors: January-December
,Mkt-RF,SMB,HML,RMW,CMA,RF
1964,16.81,0.34,1.70,0.92,-1.30,3.54
`

const momentumCSV = `Monthly momentum factor.

,Mom
196308,0.50
196309,-0.30
`

func zipWithCSV(t *testing.T, content string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("factors.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// newTestBuilder wires a builder against a stub archive server and
// temporary output directories.
func newTestBuilder(t *testing.T, archives map[string][]byte) (*Builder, *config.Paths) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := archives[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	paths := &config.Paths{
		DataDir: filepath.Join(tmp, "data"),
		MetaDir: filepath.Join(tmp, "meta"),
		LogsDir: filepath.Join(tmp, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	cfg := &config.Config{
		HTTP:    config.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "factorcli-test"},
		Sources: config.SourcesConfig{BaseURL: srv.URL},
	}
	return NewBuilder(cfg, paths, slog.Default()), paths
}

func testDataset() dataset.Dataset {
	return dataset.Dataset{
		Name:              "test_ff5_mom",
		FiveFactorArchive: "five.zip",
		MomentumArchives:  []string{"mom.zip"},
		SourceLabels:      []string{"five source", "momentum source"},
		Universe:          "us",
		Notes:             "test dataset",
	}
}

func TestBuildDataset(t *testing.T) {
	b, paths := newTestBuilder(t, map[string][]byte{
		"five.zip": zipWithCSV(t, fiveFactorCSV),
		"mom.zip":  zipWithCSV(t, momentumCSV),
	})

	ds := testDataset()
	require.NoError(t, b.BuildDataset(context.Background(), ds))

	table, err := exporter.ReadParquet(paths.DataPath("test_ff5_mom.parquet"))
	require.NoError(t, err)

	assert.Equal(t, dataprocessing.CanonicalColumns, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, time.Date(1963, 7, 31, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.True(t, dataprocessing.IsMissing(table.Value(0, "Mom")))
	assert.InDelta(t, 0.5, table.Value(1, "Mom"), 1e-9)
	assert.InDelta(t, -0.3, table.Value(2, "Mom"), 1e-9)

	csvTable, err := exporter.ReadCSVGz(paths.DataPath("test_ff5_mom.csv.gz"))
	require.NoError(t, err)
	require.Len(t, csvTable.Rows, 3)

	meta, err := exporter.ReadMetadata(paths.MetaPath("test_ff5_mom.json"))
	require.NoError(t, err)
	assert.Equal(t, "test_ff5_mom", meta.Dataset)
	assert.Equal(t, "1963-07-31", meta.FirstDate)
	assert.Equal(t, "1963-09-30", meta.LastDate)
	assert.Equal(t, 3, meta.Rows)
	assert.Equal(t, []string{"five source", "momentum source"}, meta.Sources)
}

func TestBuildDatasetMomentumFallback(t *testing.T) {
	b, paths := newTestBuilder(t, map[string][]byte{
		"five.zip": zipWithCSV(t, fiveFactorCSV),
		"mom2.zip": zipWithCSV(t, momentumCSV),
	})

	ds := testDataset()
	ds.MomentumArchives = []string{"mom-gone.zip", "mom2.zip"}

	require.NoError(t, b.BuildDataset(context.Background(), ds))

	_, err := os.Stat(paths.DataPath("test_ff5_mom.parquet"))
	require.NoError(t, err)
}

func TestBuildDatasetMomentumColumnMissing(t *testing.T) {
	badMomentum := `Banner

,NotTheRightColumn
196308,0.50
`
	b, paths := newTestBuilder(t, map[string][]byte{
		"five.zip": zipWithCSV(t, fiveFactorCSV),
		"mom.zip":  zipWithCSV(t, badMomentum),
	})

	err := b.BuildDataset(context.Background(), testDataset())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeMomentumColumnNotFound))

	// A failed build leaves no artifacts behind.
	_, statErr := os.Stat(paths.DataPath("test_ff5_mom.parquet"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(paths.MetaPath("test_ff5_mom.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildDatasetFetchFailure(t *testing.T) {
	b, _ := newTestBuilder(t, map[string][]byte{
		"mom.zip": zipWithCSV(t, momentumCSV),
	})

	err := b.BuildDataset(context.Background(), testDataset())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
}

func TestBuildAllIsolatesFailures(t *testing.T) {
	b, paths := newTestBuilder(t, map[string][]byte{
		"five.zip": zipWithCSV(t, fiveFactorCSV),
		"mom.zip":  zipWithCSV(t, momentumCSV),
	})

	broken := testDataset()
	broken.Name = "broken_ff5_mom"
	broken.FiveFactorArchive = "gone.zip"

	ok := testDataset()

	err := b.BuildAll(context.Background(), []dataset.Dataset{broken, ok})
	require.Error(t, err, "one failed build makes the whole run fail")

	// The failure of the first build must not prevent the second.
	_, statErr := os.Stat(paths.DataPath("test_ff5_mom.parquet"))
	require.NoError(t, statErr)
	_, statErr = os.Stat(paths.DataPath("broken_ff5_mom.parquet"))
	assert.True(t, os.IsNotExist(statErr))
}

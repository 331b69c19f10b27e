package dataprocessing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorcli/internal/errors"
)

const fiveFactorFixture = `This file was created using the 202412 CRSP database.
Missing data are indicated by -99.99 or -999.

,Mkt-RF,SMB,HML,RMW,CMA,RF
196307,-0.39,-0.41,-0.97,0.68,-1.18,0.27
196308,5.07,-0.80,1.80,0.36,-0.35,0.25
196309,-1.57,-0.52,0.13,-0.71,0.29,0.27

Annual Factors: January-December
,Mkt-RF,SMB,HML,RMW,CMA,RF
1964,16.81,0.34,1.70,0.92,-1.30,3.54
Copyright notice and footnotes follow here.
`

func TestFindMonthlyBlock(t *testing.T) {
	lines := strings.Split(fiveFactorFixture, "\n")

	bounds, err := FindMonthlyBlock(lines)
	require.NoError(t, err)

	assert.Equal(t, 3, bounds.Header, "header is the line immediately above the first monthly row")
	assert.Equal(t, 4, bounds.DataStart)
	assert.Equal(t, 7, bounds.DataEnd, "block ends at the first non-monthly line, exclusive")
}

func TestFindMonthlyBlockSkipsBlankLinesAboveData(t *testing.T) {
	lines := []string{
		",Mkt-RF,SMB",
		"",
		"",
		"196307,1.0,2.0",
	}

	bounds, err := FindMonthlyBlock(lines)
	require.NoError(t, err)
	assert.Equal(t, 0, bounds.Header)
	assert.Equal(t, 3, bounds.DataStart)
}

func TestFindMonthlyBlockNoMonthlySection(t *testing.T) {
	lines := []string{
		"Annual Factors: January-December",
		",Mkt-RF,SMB",
		"1964,16.81,0.34",
		"1965,12.40,1.10",
	}

	_, err := FindMonthlyBlock(lines)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeBlockNotFound))
}

func TestFindMonthlyBlockNoHeaderAboveData(t *testing.T) {
	lines := []string{
		"196307,1.0,2.0",
		"196308,1.1,2.1",
	}

	_, err := FindMonthlyBlock(lines)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeHeaderNotFound))
}

func TestFindMonthlyBlockHeaderBeyondWindow(t *testing.T) {
	lines := []string{",Mkt-RF,SMB"}
	for i := 0; i < headerSearchWindow+5; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, "196307,1.0,2.0")

	_, err := FindMonthlyBlock(lines)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeHeaderNotFound))
}

func TestExtractMonthlyTable(t *testing.T) {
	table, err := ExtractMonthlyTable(fiveFactorFixture, "fixture")
	require.NoError(t, err)

	assert.Equal(t, []string{"Mkt-RF", "SMB", "HML", "RMW", "CMA", "RF"}, table.Columns)
	require.Len(t, table.Rows, 3, "annual block and footnotes must not leak into the table")

	assert.Equal(t, time.Date(1963, 7, 31, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.Equal(t, time.Date(1963, 8, 31, 0, 0, 0, 0, time.UTC), table.Rows[1].Date)
	assert.Equal(t, time.Date(1963, 9, 30, 0, 0, 0, 0, time.UTC), table.Rows[2].Date)

	assert.InDelta(t, -0.39, table.Value(0, "Mkt-RF"), 1e-9)
	assert.InDelta(t, 5.07, table.Value(1, "Mkt-RF"), 1e-9)
	assert.InDelta(t, 0.27, table.Value(2, "RF"), 1e-9)
}

func TestExtractMonthlyTableDateVariants(t *testing.T) {
	text := strings.Join([]string{
		"Banner",
		",Mom",
		"1963-07,0.5",
		"1963/08,0.6",
		"196309,0.7",
	}, "\n")

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, time.Date(1963, 7, 31, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.Equal(t, time.Date(1963, 8, 31, 0, 0, 0, 0, time.UTC), table.Rows[1].Date)
	assert.Equal(t, time.Date(1963, 9, 30, 0, 0, 0, 0, time.UTC), table.Rows[2].Date)
}

func TestExtractMonthlyTableNonNumericBecomesMissing(t *testing.T) {
	text := strings.Join([]string{
		",Mkt-RF,SMB",
		"196307,NA,0.5",
		"196308,1.2,",
	}, "\n")

	// Header is at line 0; prepend a banner so the backward scan has
	// somewhere to land.
	text = "Factors\n" + text

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.True(t, IsMissing(table.Value(0, "Mkt-RF")))
	assert.InDelta(t, 0.5, table.Value(0, "SMB"), 1e-9)
	assert.True(t, IsMissing(table.Value(1, "SMB")))
}

func TestExtractMonthlyTableDuplicateDatesKeepLast(t *testing.T) {
	text := strings.Join([]string{
		"Banner",
		",Mom",
		"196307,0.5",
		"196307,0.9",
		"196308,0.6",
	}, "\n")

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.InDelta(t, 0.9, table.Value(0, "Mom"), 1e-9)
}

func TestExtractMonthlyTableDropsUnparseableMonth(t *testing.T) {
	// Month 13 matches the lexical token pattern but is not a real
	// month; the row is dropped rather than failing the build.
	text := strings.Join([]string{
		"Banner",
		",Mom",
		"196307,0.5",
		"196313,0.9",
		"196308,0.6",
	}, "\n")

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, time.Date(1963, 7, 31, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.Equal(t, time.Date(1963, 8, 31, 0, 0, 0, 0, time.UTC), table.Rows[1].Date)
}

func TestExtractMonthlyTableSemicolonDelimited(t *testing.T) {
	text := strings.Join([]string{
		"Banner",
		";Mkt-RF;SMB",
		"196307;1.25;0.50",
		"196308;-0.75;0.25",
	}, "\n")

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mkt-RF", "SMB"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.InDelta(t, 1.25, table.Value(0, "Mkt-RF"), 1e-9)
	assert.InDelta(t, 0.25, table.Value(1, "SMB"), 1e-9)
}

func TestExtractMonthlyTableCRLF(t *testing.T) {
	text := "Banner\r\n,Mom\r\n196307,0.5\r\n196308,0.6\r\n"

	table, err := ExtractMonthlyTable(text, "fixture")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
}

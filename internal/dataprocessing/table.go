package dataprocessing

import (
	"math"
	"sort"
	"time"
)

// MonthlyTable is an ordered sequence of month-end dated rows with named
// numeric columns. Missing values are represented as NaN.
type MonthlyTable struct {
	Columns []string
	Rows    []Row
}

// Row holds one month of factor values keyed by column name.
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// Missing is the in-memory marker for an absent numeric value.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a value is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// NewMonthlyTable creates an empty table with the given column set.
func NewMonthlyTable(columns []string) *MonthlyTable {
	return &MonthlyTable{Columns: append([]string(nil), columns...)}
}

// AppendRow adds a row to the table. The values map is used as-is.
func (t *MonthlyTable) AppendRow(date time.Time, values map[string]float64) {
	t.Rows = append(t.Rows, Row{Date: date, Values: values})
}

// Value returns the value of the named column in row i, or the missing
// marker if the column is absent from that row.
func (t *MonthlyTable) Value(i int, column string) float64 {
	if v, ok := t.Rows[i].Values[column]; ok {
		return v
	}
	return Missing()
}

// HasColumn reports whether the table carries the named column.
func (t *MonthlyTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Dates returns the row dates in table order.
func (t *MonthlyTable) Dates() []time.Time {
	dates := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		dates[i] = r.Date
	}
	return dates
}

// MonthEnd floors a date to the last calendar day of its month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// Normalize floors every row date to month end, sorts rows ascending by
// date, and collapses duplicate dates keeping the last-encountered row.
func (t *MonthlyTable) Normalize() {
	for i := range t.Rows {
		t.Rows[i].Date = MonthEnd(t.Rows[i].Date)
	}

	// Stable sort preserves encounter order within equal dates, so the
	// last row of each run is the last-encountered one.
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Date.Before(t.Rows[j].Date)
	})

	deduped := t.Rows[:0]
	for i, r := range t.Rows {
		if i+1 < len(t.Rows) && t.Rows[i+1].Date.Equal(r.Date) {
			continue
		}
		deduped = append(deduped, r)
	}
	t.Rows = deduped
}

// Select returns a new table restricted to the given columns in the given
// order, applying the rename map to resolve source column names. Columns
// with no source counterpart are omitted.
func (t *MonthlyTable) Select(columns []string, renames map[string]string) *MonthlyTable {
	// Reverse view: canonical name -> source name present in this table.
	source := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		name := c
		if canonical, ok := renames[c]; ok {
			name = canonical
		}
		source[name] = c
	}

	out := NewMonthlyTable(nil)
	for _, c := range columns {
		if _, ok := source[c]; ok {
			out.Columns = append(out.Columns, c)
		}
	}

	for _, r := range t.Rows {
		values := make(map[string]float64, len(out.Columns))
		for _, c := range out.Columns {
			if v, ok := r.Values[source[c]]; ok {
				values[c] = v
			}
		}
		out.AppendRow(r.Date, values)
	}
	return out
}

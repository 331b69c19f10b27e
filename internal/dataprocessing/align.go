package dataprocessing

import (
	"factorcli/internal/errors"
)

// Join aligns a five-factor table and a momentum table on a month-end
// index. Every date of the five-factor table is retained; momentum values
// attach where a matching date exists, else stay missing. A join with zero
// shared dates is a hard failure since its output is silently useless.
func Join(five, mom *MonthlyTable) (*MonthlyTable, error) {
	// Defensive re-normalization: inputs are expected month-end and
	// deduplicated already, but the join key must be exact.
	five.Normalize()
	mom.Normalize()

	momByDate := make(map[int64]Row, len(mom.Rows))
	for _, r := range mom.Rows {
		momByDate[r.Date.Unix()] = r
	}

	overlap := 0
	for _, r := range five.Rows {
		if _, ok := momByDate[r.Date.Unix()]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return nil, errors.NewNoOverlap(len(five.Rows), len(mom.Rows))
	}

	columns := append([]string(nil), five.Columns...)
	columns = append(columns, mom.Columns...)

	out := NewMonthlyTable(columns)
	for _, r := range five.Rows {
		values := make(map[string]float64, len(columns))
		for _, c := range five.Columns {
			if v, ok := r.Values[c]; ok {
				values[c] = v
			}
		}
		if mr, ok := momByDate[r.Date.Unix()]; ok {
			for _, c := range mom.Columns {
				if v, ok := mr.Values[c]; ok {
					values[c] = v
				}
			}
		}
		out.AppendRow(r.Date, values)
	}
	return out, nil
}

// EnsureCanonicalColumns re-expands a joined table to the full canonical
// column order, inserting an all-missing column for any canonical column
// absent from the inputs. Schema completion only; data sufficiency is
// checked separately by ValidateMomentum.
func EnsureCanonicalColumns(t *MonthlyTable) *MonthlyTable {
	out := NewMonthlyTable(CanonicalColumns)
	for _, r := range t.Rows {
		values := make(map[string]float64, len(CanonicalColumns))
		for _, c := range CanonicalColumns {
			if v, ok := r.Values[c]; ok {
				values[c] = v
			} else {
				values[c] = Missing()
			}
		}
		out.AppendRow(r.Date, values)
	}
	return out
}

// ValidateMomentum fails the build when the Mom column carries zero
// non-missing values, which indicates the harmonizer matched the wrong
// column or the join misaligned dates.
func ValidateMomentum(t *MonthlyTable) error {
	for i := range t.Rows {
		if !IsMissing(t.Value(i, "Mom")) {
			return nil
		}
	}
	return errors.NewEmptyMomentum(len(t.Rows))
}

package exporter

import (
	"fmt"
	"time"

	"factorcli/internal/dataprocessing"
)

// factorPrecision is the fixed fractional-digit count of the text format.
const factorPrecision = 6

// formatFactor formats a factor value for CSV output with exactly six
// decimal places; missing values become an empty cell.
func formatFactor(v float64) string {
	if dataprocessing.IsMissing(v) {
		return ""
	}
	return fmt.Sprintf("%.*f", factorPrecision, v)
}

// formatDate formats a month-end date for CSV and metadata output.
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

package dataprocessing

import (
	"encoding/csv"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"factorcli/internal/errors"
)

// monthToken matches a four-digit year followed by a two-digit month,
// optionally separated by a dash, slash or space, terminated by a field
// boundary. Annual rows (a bare year) do not match.
var monthToken = regexp.MustCompile(`^\s*[12]\d{3}\s*[-/ ]?\s*\d{2}\s*([,;]|\s|$)`)

// yearMonth captures the year and month of a compact or separated token.
var yearMonth = regexp.MustCompile(`^(\d{4})\s*[-/ ]?\s*(\d{2})$`)

// headerSearchWindow bounds the backward scan for the header line above
// the first monthly row.
const headerSearchWindow = 60

// BlockBounds are the line indices of a located monthly block.
// DataEnd is exclusive.
type BlockBounds struct {
	Header    int
	DataStart int
	DataEnd   int
}

// FindMonthlyBlock locates the contiguous monthly section in raw archive
// text split into lines. It is a pure scan so synthetic fixtures can
// exercise the boundary heuristics directly.
func FindMonthlyBlock(lines []string) (BlockBounds, error) {
	dataStart := -1
	for i, ln := range lines {
		if monthToken.MatchString(firstField(ln)) {
			dataStart = i
			break
		}
	}
	if dataStart == -1 {
		return BlockBounds{}, errors.New(errors.CodeBlockNotFound, "monthly block not found")
	}

	header := -1
	for j := dataStart - 1; j >= 0 && j >= dataStart-headerSearchWindow; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			header = j
			break
		}
	}
	if header == -1 {
		return BlockBounds{}, errors.New(errors.CodeHeaderNotFound, "header line not found above monthly block").
			WithContext("data_start_line", dataStart)
	}

	dataEnd := dataStart
	for dataEnd < len(lines) {
		first := firstField(lines[dataEnd])
		if first == "" || !monthToken.MatchString(first) {
			break
		}
		dataEnd++
	}

	return BlockBounds{Header: header, DataStart: dataStart, DataEnd: dataEnd}, nil
}

// ExtractMonthlyTable slices the monthly block out of raw archive text and
// parses it into a MonthlyTable: labels trimmed, every non-date field
// coerced to a float with non-numeric tokens treated as missing, dates
// normalized to month end. Rows whose date fails to parse are dropped.
func ExtractMonthlyTable(text, source string) (*MonthlyTable, error) {
	lines := splitLines(text)

	bounds, err := FindMonthlyBlock(lines)
	if err != nil {
		var be *errors.BuildError
		if stderrors.As(err, &be) {
			be.WithContext("source", source)
		}
		return nil, err
	}

	headerLine := lines[bounds.Header]
	records, err := parseDelimited(headerLine, lines[bounds.DataStart:bounds.DataEnd])
	if err != nil {
		return nil, errors.Wrap(errors.CodeBlockNotFound, "monthly block is not parseable as delimited text", err).
			WithContext("source", source)
	}

	header := records[0]
	columns := make([]string, 0, len(header)-1)
	for _, label := range header[1:] {
		columns = append(columns, strings.TrimSpace(label))
	}

	table := NewMonthlyTable(columns)
	for _, rec := range records[1:] {
		date, ok := parseMonthEndDate(rec[0])
		if !ok {
			// Tolerated: stray footnote-adjacent lines carry junk dates.
			continue
		}
		values := make(map[string]float64, len(columns))
		for i, c := range columns {
			if i+1 >= len(rec) {
				values[c] = Missing()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				values[c] = Missing()
				continue
			}
			values[c] = v
		}
		table.AppendRow(date, values)
	}

	table.Normalize()
	return table, nil
}

// firstField returns the trimmed substring of a line before its first
// comma. The month-token boundary itself also accepts `;`, so semicolon
// delimited files still locate their block.
func firstField(line string) string {
	if i := strings.IndexByte(line, ','); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// parseDelimited parses the header plus data lines as delimited text,
// detecting `;` as the field separator when the header favors it.
func parseDelimited(header string, data []string) ([][]string, error) {
	delim := byte(',')
	if strings.Count(header, ";") > strings.Count(header, ",") {
		delim = ';'
	}

	r := csv.NewReader(strings.NewReader(header + "\n" + strings.Join(data, "\n")))
	r.Comma = rune(delim)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// parseMonthEndDate normalizes a date token to the last day of its month.
// Compact YYYYMM and separated YYYY-MM / YYYY/MM variants are handled
// directly; anything else is tried as a generic date and floored.
func parseMonthEndDate(token string) (time.Time, bool) {
	s := strings.TrimSpace(token)

	if m := yearMonth.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC), true
		}
		return time.Time{}, false
	}

	for _, layout := range []string{"2006-01-02", "2006/01/02", "20060102", "Jan 2006", "January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthEnd(t), true
		}
	}
	return time.Time{}, false
}

// splitLines splits archive text into lines tolerating CRLF endings.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

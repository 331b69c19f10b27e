package dataprocessing

import (
	"strings"

	"factorcli/internal/errors"
)

// Canonical column sets. Every output table conforms to CanonicalColumns
// in this exact order regardless of source-side naming or availability.
var (
	FiveFactorColumns = []string{"MKT_RF", "SMB", "HML", "RMW", "CMA", "RF"}
	CanonicalColumns  = []string{"MKT_RF", "SMB", "HML", "RMW", "CMA", "Mom", "RF"}
)

// fiveFactorRenames collapses known spelling variants of the market
// excess return column onto its canonical name.
var fiveFactorRenames = map[string]string{
	"Mkt-RF": "MKT_RF",
	"MKT-RF": "MKT_RF",
	"Mkt-Rf": "MKT_RF",
}

// HarmonizeFiveFactor restricts and renames a monthly table to the
// canonical five-factor column set, preserving canonical order. Columns
// absent from the source are simply omitted; the aligner fills them later.
func HarmonizeFiveFactor(t *MonthlyTable) *MonthlyTable {
	return t.Select(FiveFactorColumns, fiveFactorRenames)
}

// momentumRule is one predicate in the priority-ordered momentum column
// search. Rules are evaluated top to bottom across all columns; the first
// rule with a matching column wins.
type momentumRule struct {
	name  string
	match func(column string) bool
}

var momentumRules = []momentumRule{
	{"exact Mom", func(c string) bool {
		return strings.TrimSpace(c) == "Mom"
	}},
	{"contains mom", func(c string) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(c)), "mom")
	}},
	{"exact WML", func(c string) bool {
		return strings.EqualFold(strings.TrimSpace(c), "WML")
	}},
}

// HarmonizeMomentum identifies the momentum column under its several
// published spellings and returns a single-column table renamed to Mom.
func HarmonizeMomentum(t *MonthlyTable) (*MonthlyTable, error) {
	for _, rule := range momentumRules {
		for _, c := range t.Columns {
			if rule.match(c) {
				return t.Select([]string{"Mom"}, map[string]string{c: "Mom"}), nil
			}
		}
	}
	return nil, errors.NewMomentumColumnNotFound(append([]string(nil), t.Columns...))
}

// Package dataset declares the factor datasets the builder produces and
// the archives they are sourced from.
package dataset

import "strings"

// Dataset describes one output dataset and its source archives. The
// momentum series is published separately from the five-factor series,
// sometimes under more than one archive; MomentumArchives is tried in
// order and the first archive that yields a usable table wins.
type Dataset struct {
	// Name is the output file stem (data/<Name>.parquet etc).
	Name string

	// FiveFactorArchive is the archive file name of the five-factor table,
	// joined onto the configured source base URL.
	FiveFactorArchive string

	// MomentumArchives are candidate archive file names for the momentum
	// table, in preference order.
	MomentumArchives []string

	// SourceLabels describe the archives for the metadata record.
	SourceLabels []string

	Universe         string
	IncludesEmerging bool
	Notes            string
}

// FiveFactorURL joins the five-factor archive onto the base URL.
func (d Dataset) FiveFactorURL(baseURL string) string {
	return joinURL(baseURL, d.FiveFactorArchive)
}

// MomentumURLs joins every momentum archive candidate onto the base URL.
func (d Dataset) MomentumURLs(baseURL string) []string {
	urls := make([]string, len(d.MomentumArchives))
	for i, a := range d.MomentumArchives {
		urls[i] = joinURL(baseURL, a)
	}
	return urls
}

func joinURL(base, file string) string {
	return strings.TrimRight(base, "/") + "/" + file
}

// All returns the datasets built on every run, in build order.
func All() []Dataset {
	return []Dataset{
		{
			Name:              "us_ff5_mom",
			FiveFactorArchive: "F-F_Research_Data_5_Factors_2x3_CSV.zip",
			MomentumArchives:  []string{"F-F_Momentum_Factor_CSV.zip"},
			SourceLabels: []string{
				"Ken French Data Library: F-F_Research_Data_5_Factors_2x3 (Monthly)",
				"Ken French Data Library: F-F_Momentum_Factor (Monthly)",
			},
			Universe: "us",
			Notes:    "Always include columns MKT_RF, SMB, HML, RMW, CMA, Mom, RF; missing columns filled with null.",
		},
		{
			// Historically sourced from the Global ex-US archive, later
			// repointed to Developed ex-US; the output name is kept for
			// compatibility with downstream consumers.
			Name:              "global_exus_ff5_mom",
			FiveFactorArchive: "Developed_ex_US_5_Factors_CSV.zip",
			MomentumArchives: []string{
				"Developed_ex_US_Mom_Factor_CSV.zip",
				"Global_ex_US_MOM_Factor_CSV.zip",
				"Global_MOM_Factor_CSV.zip",
			},
			SourceLabels: []string{
				"Ken French Data Library: Developed_ex_US_5_Factors (Monthly)",
				"Ken French Data Library: Developed_ex_US_Mom_Factor / Global_MOM_Factor (Monthly)",
			},
			Universe:         "global_ex_us",
			IncludesEmerging: false,
			Notes:            "Always include columns MKT_RF, SMB, HML, RMW, CMA, Mom, RF; missing columns filled with null.",
		},
	}
}

package wastewater

import "github.com/roach88/buildcheck/internal/ir"

const wacURL = "https://app.leg.wa.gov/wac/default.aspx?cite=246-272A"

var (
	citeHorizontalSeparation = ir.Citation{
		Source:       "Washington Administrative Code",
		Section:      "WAC 246-272A-0210",
		Text:         "Minimum horizontal separations between on-site sewage system components and site features.",
		URL:          wacURL + "-0210",
		Jurisdiction: "WA",
	}
	citeSoilEvaluation = ir.Citation{
		Source:       "Washington Administrative Code",
		Section:      "WAC 246-272A-0220",
		Text:         "Soil and site evaluation shall be performed to determine soil type, depth and restrictive layers.",
		URL:          wacURL + "-0220",
		Jurisdiction: "WA",
	}
	citeVerticalSeparation = ir.Citation{
		Source:       "Washington Administrative Code",
		Section:      "WAC 246-272A-0230",
		Text:         "Minimum vertical separation between the infiltrative surface and the water table or restrictive layer.",
		URL:          wacURL + "-0230",
		Jurisdiction: "WA",
	}
	citeMinimumLandArea = ir.Citation{
		Source:       "Washington Administrative Code",
		Section:      "WAC 246-272A-0320",
		Text:         "Minimum land area requirements for lots served by on-site sewage systems.",
		URL:          wacURL + "-0320",
		Jurisdiction: "WA",
	}
	citeConnection = ir.Citation{
		Source:       "Washington Administrative Code",
		Section:      "WAC 246-272A-0025",
		Text:         "Connection to public sewer is required when sewer is available within the distance set by the local health officer.",
		URL:          wacURL + "-0025",
		Jurisdiction: "WA",
	}
)

// sewerCitation prefers the provider's own citation.
func sewerCitation(sewer *ir.SewerServiceArea) ir.Citation {
	if sewer != nil && sewer.Citation.Source != "" {
		return sewer.Citation
	}
	return citeConnection
}

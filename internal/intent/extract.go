package intent

import "strings"

// cue maps a set of utterance keywords to slot values. Cues are evaluated
// in declaration order and the first cue to fill a given slot wins; later
// cues may still fill other, still-empty slots.
type cue struct {
	keywords []string
	property PropertyType
	purpose  Purpose
	timeline Timeline
}

// propertyCues carry the property-type and purpose signals. Order matters:
// the narrower strategies come first so "flip an apartment" classifies the
// purpose as fix-and-flip before the multifamily cue can claim it.
var propertyCues = []cue{
	{
		keywords: []string{"fix and flip", "fix-and-flip", "flip", "rehab", "fixer"},
		property: PropertyResidential,
		purpose:  PurposeFixAndFlip,
	},
	{
		keywords: []string{"multifamily", "multi-family", "multi family", "apartment", "duplex", "triplex", "fourplex"},
		property: PropertyMultifamily,
		purpose:  PurposeRentalIncome,
	},
	{
		keywords: []string{"construction", "ground up", "ground-up", "new build", "build a"},
		purpose:  PurposeNewConstruction,
	},
	{
		keywords: []string{"commercial", "retail", "office", "warehouse", "industrial", "mixed use", "mixed-use"},
		property: PropertyCommercial,
	},
	{
		keywords: []string{"single family", "single-family", "house", "home", "townhouse", "condo"},
		property: PropertyResidential,
	},
	{
		keywords: []string{"rental", "rent it out", "rent out", "tenant", "landlord", "buy and hold", "cash flow"},
		purpose:  PurposeRentalIncome,
	},
}

// timelineCues are checked after the property/purpose cues.
var timelineCues = []cue{
	{
		keywords: []string{"short term", "short-term", "asap", "right away", "few weeks", "bridge", "12 month", "6 month"},
		timeline: TimelineShortTerm,
	},
	{
		keywords: []string{"long term", "long-term", "30 year", "30-year", "permanent", "hold for", "refinance"},
		timeline: TimelineLongTerm,
	},
}

// locations maps lower-cased city keywords to the canonical "City, ST" form
// interpolated into recommendation reasons. First match wins.
var locations = []struct {
	keyword   string
	canonical string
}{
	{"miami", "Miami, FL"},
	{"tampa", "Tampa, FL"},
	{"orlando", "Orlando, FL"},
	{"austin", "Austin, TX"},
	{"dallas", "Dallas, TX"},
	{"houston", "Houston, TX"},
	{"san antonio", "San Antonio, TX"},
	{"phoenix", "Phoenix, AZ"},
	{"atlanta", "Atlanta, GA"},
	{"charlotte", "Charlotte, NC"},
	{"raleigh", "Raleigh, NC"},
	{"nashville", "Nashville, TN"},
	{"memphis", "Memphis, TN"},
	{"denver", "Denver, CO"},
	{"columbus", "Columbus, OH"},
	{"cleveland", "Cleveland, OH"},
	{"indianapolis", "Indianapolis, IN"},
	{"kansas city", "Kansas City, MO"},
	{"las vegas", "Las Vegas, NV"},
	{"chicago", "Chicago, IL"},
}

// Extract derives an intent delta from one utterance and merges it into
// prior. Matching is plain lower-cased substring containment against the
// fixed cue tables; unrecognized text yields an all-unspecified delta and
// prior comes back unchanged.
func Extract(utterance string, prior Intent) Intent {
	u := strings.ToLower(utterance)
	delta := Empty()

	for _, c := range propertyCues {
		if !containsAny(u, c.keywords) {
			continue
		}
		if !delta.HasPropertyType() && c.property != "" {
			delta.PropertyType = c.property
		}
		if !delta.HasPurpose() && c.purpose != "" {
			delta.Purpose = c.purpose
		}
	}

	for _, c := range timelineCues {
		if delta.HasTimeline() {
			break
		}
		if containsAny(u, c.keywords) {
			delta.Timeline = c.timeline
		}
	}

	for _, loc := range locations {
		if strings.Contains(u, loc.keyword) {
			delta.Location = loc.canonical
			break
		}
	}

	return prior.Merge(delta)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

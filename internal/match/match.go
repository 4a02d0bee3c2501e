// Package match implements the product matcher: a fixed, ordered decision
// list evaluated top to bottom against the accumulated intent and the raw
// utterance. The first rule whose condition holds wins; there is no scoring
// across rules. When nothing fires the outcome asks for clarification,
// naming the intent slots still unset.
//
// A rule fires when its intent condition holds OR the raw utterance contains
// one of its keywords. The keyword fallback is kept even when intent slots
// are already set; borrowers often name the product ("bridge", "HELOC")
// without describing the deal.
package match

import (
	"strings"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
)

// Outcome is the result of one matcher pass: either a matched product with
// its score and reasons, or a clarification request listing missing slots.
type Outcome struct {
	// Product is the matched product, nil when clarification is needed.
	Product *catalog.Product
	// Rule names the decision-list rule that fired.
	Rule string
	// Score is the fixed confidence (0–100) of the winning rule.
	Score int
	// Reasons are the ordered human-readable justifications. Always
	// non-empty when Product is set.
	Reasons []string
	// MissingSlots lists the unset intent slots, in fixed priority order,
	// when no rule fired.
	MissingSlots []string
}

// Matched reports whether a product was selected.
func (o Outcome) Matched() bool { return o.Product != nil }

// Rule is one entry in the decision list.
type Rule struct {
	// Name identifies the rule in logs and metrics.
	Name string
	// ProductID is the catalog product this rule recommends.
	ProductID string
	// Score is the fixed match confidence attached to the rule.
	Score int
	// Keywords trigger the rule on raw-utterance containment.
	Keywords []string
	// Condition triggers the rule on the accumulated intent; may be nil
	// for keyword-only rules.
	Condition func(intent.Intent) bool
	// Reasons are the justification templates; "{location}" in a template
	// is replaced with the intent location, or "your area" when unset.
	Reasons []string
}

// fires evaluates the rule against intent and the lower-cased utterance.
func (r Rule) fires(in intent.Intent, lowerUtterance string) bool {
	if r.Condition != nil && r.Condition(in) {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lowerUtterance, kw) {
			return true
		}
	}
	return false
}

// rules is the decision list. Order is the priority order and must stay
// stable: fix-and-flip, multifamily, construction, line of credit,
// commercial, rental portfolio.
var rules = []Rule{
	{
		Name:      "fix-and-flip",
		ProductID: "bridge-fix-flip",
		Score:     95,
		Keywords:  []string{"flip", "bridge", "rehab"},
		Condition: func(in intent.Intent) bool { return in.Purpose == intent.PurposeFixAndFlip },
		Reasons: []string{
			"Purpose-built for fix-and-flip projects with close timelines as short as 10 days",
			"Finances the rehab budget alongside the purchase price",
			"Interest-only payments keep carrying costs down during the rehab",
			"Multiple originators actively lending in {location}",
		},
	},
	{
		Name:      "multifamily",
		ProductID: "mf-term",
		Score:     92,
		Keywords:  []string{"multifamily", "apartment", "units", "duplex"},
		Condition: func(in intent.Intent) bool { return in.PropertyType == intent.PropertyMultifamily },
		Reasons: []string{
			"Designed for stabilized multifamily with in-place rental income",
			"Long fixed terms lock in today's rate for 5 to 10 years",
			"DSCR underwriting leans on the property's income, not just yours",
			"Strong lender appetite for multifamily in {location}",
		},
	},
	{
		Name:      "construction",
		ProductID: "construction",
		Score:     90,
		Keywords:  []string{"construction", "ground up", "ground-up", "build"},
		Condition: func(in intent.Intent) bool { return in.Purpose == intent.PurposeNewConstruction },
		Reasons: []string{
			"Staged draws release funds as each build phase completes",
			"Interest-only during construction, so you pay only on drawn funds",
			"Originators experienced with ground-up projects in {location}",
		},
	},
	{
		Name:      "credit-line",
		ProductID: "credit-line",
		Score:     91,
		Keywords:  []string{"line of credit", "credit line", "heloc", "revolving"},
		Reasons: []string{
			"Revolving capital you can draw per deal without re-applying",
			"Pre-approved buying power strengthens your offers",
			"Works across property types and strategies in {location}",
		},
	},
	{
		Name:      "commercial",
		ProductID: "cre-bridge",
		Score:     87,
		Keywords:  []string{"commercial", "retail", "office", "warehouse"},
		Condition: func(in intent.Intent) bool { return in.PropertyType == intent.PropertyCommercial },
		Reasons: []string{
			"Transitional financing built for lease-up and repositioning plays",
			"Sized for commercial deals from $1M to $50M",
			"Flexible 12–36 month terms bridge you to permanent debt",
			"Commercial originators covering {location}",
		},
	},
	{
		Name:      "rental-portfolio",
		ProductID: "rental-portfolio",
		Score:     89,
		Keywords:  []string{"rental", "portfolio", "landlord", "dscr"},
		Condition: func(in intent.Intent) bool { return in.Purpose == intent.PurposeRentalIncome },
		Reasons: []string{
			"One blanket loan and one payment across your whole portfolio",
			"30-year terms built for long-term holds",
			"Qualifies on portfolio cash flow via DSCR, not personal income",
			"Portfolio lenders active in {location}",
		},
	},
}

// Rules returns a copy of the decision list in priority order. Exposed so
// the priority order is a first-class, testable artifact.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match evaluates the decision list against (intent, utterance) over the
// given catalog. Pure: identical inputs always yield identical outcomes.
func Match(in intent.Intent, utterance string, cat *catalog.Catalog) Outcome {
	lower := strings.ToLower(utterance)
	for _, r := range rules {
		if !r.fires(in, lower) {
			continue
		}
		p, ok := cat.Get(r.ProductID)
		if !ok {
			// Rule points at a product this catalog does not carry.
			continue
		}
		score, reasons := Explain(r, in)
		return Outcome{
			Product: &p,
			Rule:    r.Name,
			Score:   score,
			Reasons: reasons,
		}
	}
	return Outcome{MissingSlots: in.MissingSlots()}
}

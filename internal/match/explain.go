package match

import (
	"strings"

	"github.com/Edmonddmeng/compass-advisor/internal/intent"
)

// locationPlaceholder marks where the borrower's location is interpolated
// into exactly one reason template per rule.
const locationPlaceholder = "{location}"

// locationFallback is used when the location slot is still unset.
const locationFallback = "your area"

// Explain produces the score and rendered reason list for a winning rule.
// The score is the rule's fixed confidence; reasons are the rule templates
// with the location slot interpolated. Deterministic: the same (rule,
// intent) pair always yields the same output.
func Explain(r Rule, in intent.Intent) (int, []string) {
	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		loc = locationFallback
	}
	reasons := make([]string, len(r.Reasons))
	for i, tmpl := range r.Reasons {
		reasons[i] = strings.ReplaceAll(tmpl, locationPlaceholder, loc)
	}
	return r.Score, reasons
}

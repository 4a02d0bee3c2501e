package match

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
)

func TestRules_PriorityOrder(t *testing.T) {
	want := []string{
		"fix-and-flip", "multifamily", "construction",
		"credit-line", "commercial", "rental-portfolio",
	}
	got := make([]string, 0, len(Rules()))
	for _, r := range Rules() {
		got = append(got, r.Name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rule order = %v, want %v", got, want)
	}
}

func TestRules_ProductsExistInDefaultCatalog(t *testing.T) {
	cat := catalog.Default()
	for _, r := range Rules() {
		if _, ok := cat.Get(r.ProductID); !ok {
			t.Errorf("rule %s points at unknown product %s", r.Name, r.ProductID)
		}
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("rule %s score %d out of range", r.Name, r.Score)
		}
		if len(r.Reasons) < 3 || len(r.Reasons) > 4 {
			t.Errorf("rule %s has %d reasons, want 3-4", r.Name, len(r.Reasons))
		}
	}
}

func TestMatch_ByIntentSlot(t *testing.T) {
	cat := catalog.Default()
	cases := []struct {
		name        string
		in          intent.Intent
		wantProduct string
		wantScore   int
	}{
		{
			name:        "fix and flip",
			in:          intent.Intent{Purpose: intent.PurposeFixAndFlip},
			wantProduct: "bridge-fix-flip",
			wantScore:   95,
		},
		{
			name:        "multifamily",
			in:          intent.Intent{PropertyType: intent.PropertyMultifamily},
			wantProduct: "mf-term",
			wantScore:   92,
		},
		{
			name:        "construction",
			in:          intent.Intent{Purpose: intent.PurposeNewConstruction},
			wantProduct: "construction",
			wantScore:   90,
		},
		{
			name:        "commercial",
			in:          intent.Intent{PropertyType: intent.PropertyCommercial},
			wantProduct: "cre-bridge",
			wantScore:   87,
		},
		{
			name:        "rental income",
			in:          intent.Intent{Purpose: intent.PurposeRentalIncome},
			wantProduct: "rental-portfolio",
			wantScore:   89,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Match(tc.in, "no keywords here", cat)
			if !out.Matched() {
				t.Fatalf("expected a match, got clarification %v", out.MissingSlots)
			}
			if out.Product.ID != tc.wantProduct {
				t.Fatalf("product = %s, want %s", out.Product.ID, tc.wantProduct)
			}
			if out.Score != tc.wantScore {
				t.Fatalf("score = %d, want %d", out.Score, tc.wantScore)
			}
			if len(out.Reasons) == 0 {
				t.Fatal("match without reasons")
			}
		})
	}
}

func TestMatch_UtteranceKeywordFallback(t *testing.T) {
	cat := catalog.Default()
	cases := []struct {
		utterance   string
		wantProduct string
	}{
		{"I need a bridge loan", "bridge-fix-flip"},
		{"do you offer a heloc", "credit-line"},
		{"something like a line of credit", "credit-line"},
		{"a warehouse deal", "cre-bridge"},
		{"refinance my rental portfolio", "rental-portfolio"},
	}
	for _, tc := range cases {
		out := Match(intent.Empty(), tc.utterance, cat)
		if !out.Matched() || out.Product.ID != tc.wantProduct {
			t.Errorf("Match(%q) = %+v, want product %s", tc.utterance, out.Product, tc.wantProduct)
		}
	}
}

func TestMatch_KeywordBeatsLaterSlot(t *testing.T) {
	// The decision list is first-match-wins: the fix-and-flip rule's
	// keyword fallback fires before the rental-portfolio rule can see the
	// rental-income slot.
	cat := catalog.Default()
	in := intent.Intent{Purpose: intent.PurposeRentalIncome}
	out := Match(in, "I also saw something about a bridge option", cat)
	if !out.Matched() || out.Product.ID != "bridge-fix-flip" {
		t.Fatalf("got %+v, want bridge-fix-flip via keyword fallback", out)
	}
}

func TestMatch_Clarification(t *testing.T) {
	cat := catalog.Default()
	out := Match(intent.Empty(), "hello", cat)
	if out.Matched() {
		t.Fatalf("expected clarification, matched %s", out.Product.ID)
	}
	want := []string{
		intent.SlotPropertyType, intent.SlotPurpose,
		intent.SlotTimeline, intent.SlotLocation,
	}
	if !reflect.DeepEqual(out.MissingSlots, want) {
		t.Fatalf("missing slots = %v, want %v", out.MissingSlots, want)
	}

	// Partially filled intent only asks for the open slots.
	in := intent.Intent{PropertyType: intent.PropertyResidential, Location: "Tampa, FL"}
	out = Match(in, "hmm", cat)
	if out.Matched() {
		t.Fatalf("unexpected match %s", out.Product.ID)
	}
	want = []string{intent.SlotPurpose, intent.SlotTimeline}
	if !reflect.DeepEqual(out.MissingSlots, want) {
		t.Fatalf("missing slots = %v, want %v", out.MissingSlots, want)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	cat := catalog.Default()
	in := intent.Intent{Purpose: intent.PurposeFixAndFlip, Location: "Miami, FL"}
	first := Match(in, "flip in miami", cat)
	for i := 0; i < 25; i++ {
		again := Match(in, "flip in miami", cat)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("call %d diverged: %+v vs %+v", i, first, again)
		}
	}
}

func TestMatch_SkipsRuleMissingFromCatalog(t *testing.T) {
	// A catalog without the bridge product falls through to the next rule
	// that fires, keeping Match total and deterministic.
	small, err := catalog.New([]catalog.Product{
		{ID: "rental-portfolio", Name: "Rental Portfolio Loan", RateMax: 1, SizeMax: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := intent.Intent{Purpose: intent.PurposeFixAndFlip}
	out := Match(in, "a rental too", small)
	if !out.Matched() || out.Product.ID != "rental-portfolio" {
		t.Fatalf("got %+v, want fallthrough to rental-portfolio", out)
	}
}

func TestExplain_LocationInterpolation(t *testing.T) {
	var rule Rule
	for _, r := range Rules() {
		if r.Name == "fix-and-flip" {
			rule = r
		}
	}

	_, reasons := Explain(rule, intent.Intent{Location: "Miami, FL"})
	found := 0
	for _, r := range reasons {
		if strings.Contains(r, "Miami, FL") {
			found++
		}
		if strings.Contains(r, locationPlaceholder) {
			t.Fatalf("placeholder leaked into reason %q", r)
		}
	}
	if found != 1 {
		t.Fatalf("location interpolated into %d reasons, want exactly 1", found)
	}

	_, reasons = Explain(rule, intent.Empty())
	foundFallback := false
	for _, r := range reasons {
		if strings.Contains(r, "your area") {
			foundFallback = true
		}
	}
	if !foundFallback {
		t.Fatal("missing 'your area' fallback when location unset")
	}
}

func TestExplain_Deterministic(t *testing.T) {
	rule := Rules()[0]
	in := intent.Intent{Location: "Austin, TX"}
	s1, r1 := Explain(rule, in)
	s2, r2 := Explain(rule, in)
	if s1 != s2 || !reflect.DeepEqual(r1, r2) {
		t.Fatalf("Explain not deterministic: (%d,%v) vs (%d,%v)", s1, r1, s2, r2)
	}
}

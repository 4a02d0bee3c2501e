package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_SixValidProducts(t *testing.T) {
	c := Default()
	if c.Len() != 6 {
		t.Fatalf("default catalog size = %d, want 6", c.Len())
	}
	for _, p := range c.Products() {
		if p.ID == "" || p.Name == "" {
			t.Errorf("product %+v missing id or name", p)
		}
		if p.RateMin > p.RateMax {
			t.Errorf("product %s: rate range decreasing", p.ID)
		}
		if p.SizeMin > p.SizeMax {
			t.Errorf("product %s: size range decreasing", p.ID)
		}
		if len(p.Requirements) == 0 || len(p.Originators) == 0 {
			t.Errorf("product %s: empty requirements or originators", p.ID)
		}
	}
}

func TestNew_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name     string
		products []Product
	}{
		{"empty id", []Product{{ID: " ", Name: "x", RateMax: 1, SizeMax: 1}}},
		{"duplicate id", []Product{
			{ID: "a", Name: "x", RateMax: 1, SizeMax: 1},
			{ID: "a", Name: "y", RateMax: 1, SizeMax: 1},
		}},
		{"decreasing rate", []Product{{ID: "a", Name: "x", RateMin: 5, RateMax: 4, SizeMax: 1}}},
		{"decreasing size", []Product{{ID: "a", Name: "x", RateMax: 1, SizeMin: 10, SizeMax: 5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.products); err == nil {
				t.Fatalf("New(%s) accepted invalid catalog", tc.name)
			}
		})
	}
}

func TestGet(t *testing.T) {
	c := Default()
	p, ok := c.Get("bridge-fix-flip")
	if !ok {
		t.Fatal("bridge-fix-flip not found")
	}
	if p.Name != "Fix & Flip Bridge Loan" {
		t.Fatalf("unexpected product name %q", p.Name)
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatal("unknown id should not resolve")
	}
}

func TestProducts_ReturnsCopy(t *testing.T) {
	c := Default()
	got := c.Products()
	got[0].Name = "mutated"
	if c.Products()[0].Name == "mutated" {
		t.Fatal("Products() must not expose internal state")
	}
}

func TestRequirementsSummary(t *testing.T) {
	p := Product{Requirements: []string{"a", "b", "c", "d", "e"}}

	head, rest := p.RequirementsSummary(3)
	if len(head) != 3 || rest != 2 {
		t.Fatalf("got head=%d rest=%d, want 3 and 2", len(head), rest)
	}

	head, rest = p.RequirementsSummary(10)
	if len(head) != 5 || rest != 0 {
		t.Fatalf("cap above length: head=%d rest=%d", len(head), rest)
	}

	head, rest = p.RequirementsSummary(0)
	if len(head) != 5 || rest != 0 {
		t.Fatalf("non-positive cap should return all: head=%d rest=%d", len(head), rest)
	}
}

func TestRateRange(t *testing.T) {
	p := Product{RateMin: 9.5, RateMax: 11.5}
	if got := p.RateRange(); got != "9.5%–11.5%" {
		t.Fatalf("RateRange() = %q", got)
	}
	p = Product{RateMin: 10, RateMax: 12.25}
	if got := p.RateRange(); got != "10%–12.25%" {
		t.Fatalf("RateRange() = %q", got)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	raw, err := json.Marshal(defaultProducts)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != len(defaultProducts) {
		t.Fatalf("loaded %d products, want %d", c.Len(), len(defaultProducts))
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed JSON should error")
	}
}

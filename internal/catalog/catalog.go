// Package catalog defines the lending-product catalog consumed by the
// product advisor. The catalog is static for the lifetime of the process:
// it is loaded (or built from the compiled-in defaults) once at startup,
// validated, and never mutated afterwards, so it is safe for concurrent
// reads without locking.
//
// Match annotations (score, reasons) are intentionally NOT part of Product;
// they belong to a single recommendation result and must not leak across
// sessions or persist on the catalog entry.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Product is one lending product offered through the platform.
type Product struct {
	// ID is the stable catalog identifier, unique within a catalog.
	ID string `json:"id"`
	// Name is the display name shown to borrowers.
	Name string `json:"name"`
	// Description is a one-paragraph product summary.
	Description string `json:"description"`
	// RateMin / RateMax bound the interest rate in percent (min <= max).
	RateMin float64 `json:"rate_min"`
	RateMax float64 `json:"rate_max"`
	// Term is the human-readable term range, e.g. "12–24 months".
	Term string `json:"term"`
	// SizeMin / SizeMax bound the loan size in whole dollars (min <= max).
	SizeMin int64 `json:"size_min"`
	SizeMax int64 `json:"size_max"`
	// Requirements lists eligibility requirements in display order.
	Requirements []string `json:"requirements"`
	// Originators names the capital partners offering this product.
	Originators []string `json:"originators"`
}

// RequirementsSummary returns up to max requirements plus the count of the
// ones omitted. The UI renders the head of the list and a "+N more" badge.
func (p Product) RequirementsSummary(max int) ([]string, int) {
	if max <= 0 || len(p.Requirements) <= max {
		return p.Requirements, 0
	}
	return p.Requirements[:max], len(p.Requirements) - max
}

// RateRange formats the rate bounds for display, e.g. "9.5%–11.5%".
func (p Product) RateRange() string {
	return fmt.Sprintf("%s%%–%s%%", trimFloat(p.RateMin), trimFloat(p.RateMax))
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Catalog is an immutable, validated set of products.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

// New validates the given products and builds a Catalog. It rejects
// duplicate ids and decreasing rate or size ranges.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]Product, len(products)),
	}
	copy(c.products, products)
	for _, p := range c.products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("catalog: product %q has empty id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		if p.RateMin > p.RateMax {
			return nil, fmt.Errorf("catalog: product %q rate range decreasing (%v > %v)", p.ID, p.RateMin, p.RateMax)
		}
		if p.SizeMin > p.SizeMax {
			return nil, fmt.Errorf("catalog: product %q size range decreasing (%d > %d)", p.ID, p.SizeMin, p.SizeMax)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// Load reads a JSON product list from path and builds a Catalog.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(products)
}

// Products returns a copy of the catalog in stable (load) order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id, if present.
func (c *Catalog) Get(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// IDs returns all product ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

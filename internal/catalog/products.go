package catalog

// defaultProducts is the compiled-in catalog used when no catalog file is
// configured. Six products covering the lending strategies the advisor can
// recommend.
var defaultProducts = []Product{
	{
		ID:          "bridge-fix-flip",
		Name:        "Fix & Flip Bridge Loan",
		Description: "Short-term bridge financing for acquiring and rehabbing residential investment properties, with the rehab budget financed alongside the purchase.",
		RateMin:     9.5,
		RateMax:     11.5,
		Term:        "12–18 months",
		SizeMin:     100_000,
		SizeMax:     2_000_000,
		Requirements: []string{
			"Minimum FICO 660",
			"At least one completed flip or 2 years real estate experience",
			"10% minimum down payment",
			"Scope of work and rehab budget",
			"Proof of liquidity for 6 months of payments",
		},
		Originators: []string{"Ridgeline Capital", "Harbor Bridge Lending", "Keystone Funding"},
	},
	{
		ID:          "mf-term",
		Name:        "Stabilized Multifamily Term Loan",
		Description: "Long-term fixed-rate financing for stabilized multifamily properties of five or more units with in-place rental income.",
		RateMin:     6.25,
		RateMax:     7.75,
		Term:        "5, 7, or 10 years",
		SizeMin:     500_000,
		SizeMax:     25_000_000,
		Requirements: []string{
			"Minimum DSCR 1.25x",
			"90%+ occupancy for trailing 90 days",
			"Minimum FICO 680",
			"Two years of operating statements",
		},
		Originators: []string{"Meridian Commercial", "Crestview Capital Partners"},
	},
	{
		ID:          "construction",
		Name:        "Ground-Up Construction Loan",
		Description: "Construction financing for new residential builds with staged draws, interest-only during the build period.",
		RateMin:     10.0,
		RateMax:     12.5,
		Term:        "12–24 months",
		SizeMin:     250_000,
		SizeMax:     5_000_000,
		Requirements: []string{
			"Approved plans and permits",
			"Licensed general contractor",
			"Minimum FICO 680",
			"15% minimum equity contribution",
			"Feasibility study / appraisal subject-to-completion",
		},
		Originators: []string{"Foundry Capital", "Ridgeline Capital"},
	},
	{
		ID:          "credit-line",
		Name:        "Investor Line of Credit",
		Description: "Revolving credit line for active investors who need to move fast on acquisitions, drawable per-deal with quick approvals.",
		RateMin:     8.75,
		RateMax:     10.25,
		Term:        "24 months, renewable",
		SizeMin:     250_000,
		SizeMax:     10_000_000,
		Requirements: []string{
			"Track record of 3+ completed projects",
			"Minimum FICO 700",
			"Entity borrower (LLC or LP)",
			"Annual financial review",
		},
		Originators: []string{"Harbor Bridge Lending", "Summit Credit Group"},
	},
	{
		ID:          "cre-bridge",
		Name:        "Commercial Bridge Loan",
		Description: "Transitional financing for commercial properties — retail, office, industrial — in lease-up, repositioning, or awaiting permanent debt.",
		RateMin:     8.5,
		RateMax:     10.5,
		Term:        "12–36 months",
		SizeMin:     1_000_000,
		SizeMax:     50_000_000,
		Requirements: []string{
			"Exit strategy memorandum",
			"Sponsor net worth equal to loan amount",
			"Phase I environmental report",
			"10% minimum sponsor equity",
		},
		Originators: []string{"Meridian Commercial", "Atlas Real Estate Capital"},
	},
	{
		ID:          "rental-portfolio",
		Name:        "Rental Portfolio Loan",
		Description: "Blanket DSCR financing for portfolios of five or more rental properties under a single loan with one monthly payment.",
		RateMin:     6.75,
		RateMax:     8.25,
		Term:        "30 years",
		SizeMin:     500_000,
		SizeMax:     20_000_000,
		Requirements: []string{
			"Minimum portfolio DSCR 1.20x",
			"5+ stabilized rental units",
			"Minimum FICO 660",
			"12 months seasoning on portfolio properties",
		},
		Originators: []string{"Crestview Capital Partners", "Summit Credit Group", "Keystone Funding"},
	},
}

// Default returns the compiled-in catalog. Construction re-validates the
// data so a bad edit fails loudly at startup, not at match time.
func Default() *Catalog {
	c, err := New(defaultProducts)
	if err != nil {
		panic(err)
	}
	return c
}

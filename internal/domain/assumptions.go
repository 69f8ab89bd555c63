package domain

import "github.com/shopspring/decimal"

// ModelingAssumptions holds the global assumptions for one calculation run.
// Constructed once (file + overrides), read-only afterwards; the personalized
// benefit path derives a per-person copy via ForPerson rather than mutating
// the shared value.
//
// Defaults mirror the OECD Pensions at a Glance baseline: full career from
// age 20 to 65, 2% real wage growth, 2% inflation, 2% real discount rate,
// CPI-indexed pensions held constant in real terms.
type ModelingAssumptions struct {
	// Career profile
	EntryAge            int             `yaml:"entry_age" json:"entry_age"`
	CareerLength        decimal.Decimal `yaml:"career_length" json:"career_length"`
	ContributionDensity decimal.Decimal `yaml:"contribution_density" json:"contribution_density"`

	// Retirement ages used when country params defer to the global default
	DefaultRetirementAgeMale   int `yaml:"default_retirement_age_male" json:"default_retirement_age_male"`
	DefaultRetirementAgeFemale int `yaml:"default_retirement_age_female" json:"default_retirement_age_female"`

	// Wage trajectory
	RealWageGrowth decimal.Decimal  `yaml:"real_wage_growth" json:"real_wage_growth"`
	Inflation      decimal.Decimal  `yaml:"inflation" json:"inflation"`
	WageGrowth     *decimal.Decimal `yaml:"wage_growth,omitempty" json:"wage_growth,omitempty"`

	// Present-value discount
	DiscountRate decimal.Decimal `yaml:"discount_rate" json:"discount_rate"`

	// Post-retirement indexation
	PensionIndexationType string          `yaml:"pension_indexation_type" json:"pension_indexation_type"`
	PensionIndexationRate decimal.Decimal `yaml:"pension_indexation_rate" json:"pension_indexation_rate"`

	// DC accumulation
	DCRealReturnNetOfFees decimal.Decimal `yaml:"dc_real_return_net_of_fees" json:"dc_real_return_net_of_fees"`

	// Life expectancy fallbacks when UN life tables are unavailable
	LifeExpectancyAtRetirementMale   decimal.Decimal `yaml:"life_expectancy_at_retirement_male" json:"life_expectancy_at_retirement_male"`
	LifeExpectancyAtRetirementFemale decimal.Decimal `yaml:"life_expectancy_at_retirement_female" json:"life_expectancy_at_retirement_female"`
	MaxAgeForWealth                  int             `yaml:"max_age_for_wealth" json:"max_age_for_wealth"`

	// Evaluation grid
	EarningsMultiples []decimal.Decimal `yaml:"earnings_multiples" json:"earnings_multiples"`

	// Default modeling sex
	Sex string `yaml:"sex" json:"sex"`

	// WPP quinquennial start year for UN life-table queries
	WPPYear int `yaml:"wpp_year" json:"wpp_year"`
}

// DefaultAssumptions returns the OECD-style baseline.
func DefaultAssumptions() ModelingAssumptions {
	return ModelingAssumptions{
		EntryAge:                         20,
		CareerLength:                     decimal.NewFromInt(40),
		ContributionDensity:              decimal.NewFromInt(1),
		DefaultRetirementAgeMale:         65,
		DefaultRetirementAgeFemale:       65,
		RealWageGrowth:                   decimal.NewFromFloat(0.02),
		Inflation:                        decimal.NewFromFloat(0.02),
		DiscountRate:                     decimal.NewFromFloat(0.02),
		PensionIndexationType:            "CPI",
		PensionIndexationRate:            decimal.Zero,
		DCRealReturnNetOfFees:            decimal.NewFromFloat(0.03),
		LifeExpectancyAtRetirementMale:   decimal.NewFromInt(20),
		LifeExpectancyAtRetirementFemale: decimal.NewFromInt(25),
		MaxAgeForWealth:                  110,
		EarningsMultiples: []decimal.Decimal{
			decimal.NewFromFloat(0.5),
			decimal.NewFromFloat(0.75),
			decimal.NewFromInt(1),
			decimal.NewFromFloat(1.5),
			decimal.NewFromInt(2),
			decimal.NewFromFloat(2.5),
		},
		Sex:     SexMale,
		WPPYear: 2020,
	}
}

// EffectiveWageGrowth returns the nominal wage growth: the explicit value if
// configured, else real wage growth plus inflation.
func (a *ModelingAssumptions) EffectiveWageGrowth() decimal.Decimal {
	if a.WageGrowth != nil {
		return *a.WageGrowth
	}
	return a.RealWageGrowth.Add(a.Inflation)
}

// LifeExpectancyAtRetirement returns the fallback remaining life expectancy
// for the given sex.
func (a *ModelingAssumptions) LifeExpectancyAtRetirement(sex string) decimal.Decimal {
	if IsFemale(sex) {
		return a.LifeExpectancyAtRetirementFemale
	}
	return a.LifeExpectancyAtRetirementMale
}

// DefaultRetirementAge returns the sex-specific default NRA.
func (a *ModelingAssumptions) DefaultRetirementAge(sex string) int {
	if IsFemale(sex) {
		return a.DefaultRetirementAgeFemale
	}
	return a.DefaultRetirementAgeMale
}

// ForPerson derives a per-person copy with the career profile replaced by the
// person's actual service history. Service years already account for career
// gaps, so density is pinned to 1. The receiver is never modified.
func (a *ModelingAssumptions) ForPerson(serviceYears decimal.Decimal, sex string) ModelingAssumptions {
	derived := *a
	derived.CareerLength = serviceYears
	derived.ContributionDensity = decimal.NewFromInt(1)
	derived.Sex = NormalizeSex(sex)
	derived.EarningsMultiples = append([]decimal.Decimal(nil), a.EarningsMultiples...)
	return derived
}

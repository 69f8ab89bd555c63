package domain

import "github.com/shopspring/decimal"

// PensionResult holds all indicators for one earnings multiple. It is a plain
// value record: constructed once by the engine and never mutated, except for
// the explicit post-hoc wealth adjustment performed by
// PensionWealthCalculator.ApplyToResults.
type PensionResult struct {
	EarningsMultiple decimal.Decimal `json:"earnings_multiple"`
	IndividualWage   decimal.Decimal `json:"individual_wage"` // annual, national currency
	AverageWage      decimal.Decimal `json:"average_wage"`    // annual, national currency

	GrossBenefit decimal.Decimal `json:"gross_benefit"` // annual gross pension
	NetBenefit   decimal.Decimal `json:"net_benefit"`   // annual net pension

	GrossReplacementRate decimal.Decimal `json:"gross_replacement_rate"` // gross / individual wage
	NetReplacementRate   decimal.Decimal `json:"net_replacement_rate"`

	GrossPensionLevel decimal.Decimal `json:"gross_pension_level"` // gross / average wage
	NetPensionLevel   decimal.Decimal `json:"net_pension_level"`

	GrossPensionWealth decimal.Decimal `json:"gross_pension_wealth"` // PV(gross) / average wage
	NetPensionWealth   decimal.Decimal `json:"net_pension_wealth"`

	// ComponentBreakdown maps scheme_id to annual gross amount. Its values
	// sum to GrossBenefit after minimum-guarantee aggregation.
	ComponentBreakdown map[string]decimal.Decimal `json:"component_breakdown"`
}

// EligibilityResult is the eligibility assessment for one person.
type EligibilityResult struct {
	IsEligible           bool             `json:"is_eligible"`
	Missing              []string         `json:"missing"` // human-readable deficits
	NormalRetirementAge  decimal.Decimal  `json:"normal_retirement_age"`
	EarlyRetirementAge   *decimal.Decimal `json:"early_retirement_age,omitempty"`
	VestingYears         *decimal.Decimal `json:"vesting_years,omitempty"`
	YearsToNRA           decimal.Decimal  `json:"years_to_nra"` // negative once past NRA
}

// ReasoningStep is one line of the personalised calculation trace.
type ReasoningStep struct {
	Label    string `json:"label"`
	Formula  string `json:"formula"`
	Value    string `json:"value"`
	Citation string `json:"citation,omitempty"`
}

// BenefitResult is the complete personalised calculation outcome.
type BenefitResult struct {
	WorkerTypeID string            `json:"worker_type_id"`
	Person       PersonProfile     `json:"person"`
	Eligibility  EligibilityResult `json:"eligibility"`

	GrossBenefit         decimal.Decimal `json:"gross_benefit"`
	NetBenefit           decimal.Decimal `json:"net_benefit"`
	GrossReplacementRate decimal.Decimal `json:"gross_replacement_rate"`
	NetReplacementRate   decimal.Decimal `json:"net_replacement_rate"`
	GrossPensionLevel    decimal.Decimal `json:"gross_pension_level"`
	NetPensionLevel      decimal.Decimal `json:"net_pension_level"`

	ComponentBreakdown map[string]decimal.Decimal `json:"component_breakdown"`
	ReasoningTrace     []ReasoningStep            `json:"reasoning_trace"`
	Warnings           []string                   `json:"warnings"`
}

// LifeTableRow is one age of a UN WPP life table. Lx is the survivor function
// (radix 100 000); Ex is remaining life expectancy at exact age.
type LifeTableRow struct {
	Age int             `json:"age"`
	Lx  decimal.Decimal `json:"lx"`
	Ex  decimal.Decimal `json:"ex"`
}

// SurvivalPoint is a conditional survival probability t years after
// retirement: S(t) = lx(r+t) / lx(r).
type SurvivalPoint struct {
	T            int             `json:"t"`
	Age          int             `json:"age"`
	Lx           decimal.Decimal `json:"lx"`
	SurvivalProb decimal.Decimal `json:"survival_prob"`
}

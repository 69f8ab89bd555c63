package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SchemeType identifies the benefit formula family of a scheme component.
type SchemeType string

const (
	SchemeBasic    SchemeType = "basic"    // universal flat-rate
	SchemeTargeted SchemeType = "targeted" // means-tested / social assistance
	SchemeMinimum  SchemeType = "minimum"  // minimum-pension guarantee (top-up)
	SchemeDB       SchemeType = "DB"       // defined-benefit earnings-related
	SchemePoints   SchemeType = "points"   // points / notional-unit system
	SchemeNDC      SchemeType = "NDC"      // non-financial (notional) defined contribution
	SchemeDC       SchemeType = "DC"       // financial defined contribution
)

// NormalizeSchemeType maps case-insensitive spellings onto the canonical enum.
func NormalizeSchemeType(s string) (SchemeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return SchemeBasic, true
	case "targeted":
		return SchemeTargeted, true
	case "minimum":
		return SchemeMinimum, true
	case "db":
		return SchemeDB, true
	case "points":
		return SchemePoints, true
	case "ndc":
		return SchemeNDC, true
	case "dc":
		return SchemeDC, true
	}
	return "", false
}

// SchemeTier is the pillar a scheme belongs to.
type SchemeTier string

const (
	TierFirst  SchemeTier = "first"
	TierSecond SchemeTier = "second"
	TierThird  SchemeTier = "third"
)

// EligibilityRules holds retirement ages and contribution requirements.
type EligibilityRules struct {
	NormalRetirementAgeMale   *SourcedValue `yaml:"normal_retirement_age_male" json:"normal_retirement_age_male"`
	NormalRetirementAgeFemale *SourcedValue `yaml:"normal_retirement_age_female" json:"normal_retirement_age_female"`
	EarlyRetirementAgeMale    *SourcedValue `yaml:"early_retirement_age_male,omitempty" json:"early_retirement_age_male,omitempty"`
	EarlyRetirementAgeFemale  *SourcedValue `yaml:"early_retirement_age_female,omitempty" json:"early_retirement_age_female,omitempty"`
	LateRetirementAgeMale     *SourcedValue `yaml:"late_retirement_age_male,omitempty" json:"late_retirement_age_male,omitempty"`
	LateRetirementAgeFemale   *SourcedValue `yaml:"late_retirement_age_female,omitempty" json:"late_retirement_age_female,omitempty"`
	VestingYears              *SourcedValue `yaml:"vesting_years,omitempty" json:"vesting_years,omitempty"`
	MinimumContributionYears  *SourcedValue `yaml:"minimum_contribution_years,omitempty" json:"minimum_contribution_years,omitempty"`
	Notes                     string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// NormalRetirementAge returns the sex-specific NRA parameter.
func (e *EligibilityRules) NormalRetirementAge(sex string) *SourcedValue {
	if e == nil {
		return nil
	}
	if IsFemale(sex) {
		return e.NormalRetirementAgeFemale
	}
	return e.NormalRetirementAgeMale
}

// EarlyRetirementAge returns the sex-specific early retirement age parameter.
func (e *EligibilityRules) EarlyRetirementAge(sex string) *SourcedValue {
	if e == nil {
		return nil
	}
	if IsFemale(sex) {
		return e.EarlyRetirementAgeFemale
	}
	return e.EarlyRetirementAgeMale
}

// ContributionRules describes who pays what into a scheme.
// At least one of the three rates must be present.
type ContributionRules struct {
	EmployeeRate                  *SourcedValue `yaml:"employee_rate,omitempty" json:"employee_rate,omitempty"`
	EmployerRate                  *SourcedValue `yaml:"employer_rate,omitempty" json:"employer_rate,omitempty"`
	TotalRate                     *SourcedValue `yaml:"total_rate,omitempty" json:"total_rate,omitempty"`
	ContributionCeilingAWMultiple *SourcedValue `yaml:"contribution_ceiling_aw_multiple,omitempty" json:"contribution_ceiling_aw_multiple,omitempty"`
	ContributionFloorAWMultiple   *SourcedValue `yaml:"contribution_floor_aw_multiple,omitempty" json:"contribution_floor_aw_multiple,omitempty"`
	ContributionBase              string        `yaml:"contribution_base,omitempty" json:"contribution_base,omitempty"`
	Notes                         string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// EffectiveTotalRate is the combined contribution rate: the explicit total
// when present, otherwise the sum of employee and employer rates.
func (c *ContributionRules) EffectiveTotalRate() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	if total, ok := c.TotalRate.Decimal(); ok {
		return total
	}
	rate := decimal.Zero
	if emp, ok := c.EmployeeRate.Decimal(); ok {
		rate = rate.Add(emp)
	}
	if er, ok := c.EmployerRate.Decimal(); ok {
		rate = rate.Add(er)
	}
	return rate
}

// BenefitRules is the superset of benefit-formula parameters across all seven
// scheme types. A formula consults only the fields relevant to its type.
type BenefitRules struct {
	// DB accrual
	AccrualRatePerYear   *SourcedValue `yaml:"accrual_rate_per_year,omitempty" json:"accrual_rate_per_year,omitempty"`
	ReferenceWage        string        `yaml:"reference_wage,omitempty" json:"reference_wage,omitempty"`
	AveragingWindowYears *SourcedValue `yaml:"averaging_window_years,omitempty" json:"averaging_window_years,omitempty"`
	Valorization         string        `yaml:"valorization,omitempty" json:"valorization,omitempty"`

	// Points system
	PointValue *SourcedValue `yaml:"point_value,omitempty" json:"point_value,omitempty"`
	PointCost  *SourcedValue `yaml:"point_cost,omitempty" json:"point_cost,omitempty"`

	// NDC
	NotionalInterestRate string        `yaml:"notional_interest_rate,omitempty" json:"notional_interest_rate,omitempty"`
	AnnuityDivisorAtNRA  *SourcedValue `yaml:"annuity_divisor_at_nra,omitempty" json:"annuity_divisor_at_nra,omitempty"`

	// DC payout
	DCDrawdownType string `yaml:"dc_drawdown_type,omitempty" json:"dc_drawdown_type,omitempty"`

	// Basic / flat rate
	FlatRateAWMultiple *SourcedValue `yaml:"flat_rate_aw_multiple,omitempty" json:"flat_rate_aw_multiple,omitempty"`
	FlatRateAbsolute   *SourcedValue `yaml:"flat_rate_absolute,omitempty" json:"flat_rate_absolute,omitempty"`

	// Common constraints
	Indexation               string        `yaml:"indexation,omitempty" json:"indexation,omitempty"`
	MinimumBenefitAWMultiple *SourcedValue `yaml:"minimum_benefit_aw_multiple,omitempty" json:"minimum_benefit_aw_multiple,omitempty"`
	MaximumBenefitAWMultiple *SourcedValue `yaml:"maximum_benefit_aw_multiple,omitempty" json:"maximum_benefit_aw_multiple,omitempty"`
	MinimumBenefitAbsolute   *SourcedValue `yaml:"minimum_benefit_absolute,omitempty" json:"minimum_benefit_absolute,omitempty"`
	MaximumBenefitAbsolute   *SourcedValue `yaml:"maximum_benefit_absolute,omitempty" json:"maximum_benefit_absolute,omitempty"`
	Notes                    string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// PayoutRules covers decumulation, mainly for DC and NDC schemes.
type PayoutRules struct {
	Type           string        `yaml:"type,omitempty" json:"type,omitempty"`
	AnnuityFeeRate *SourcedValue `yaml:"annuity_fee_rate,omitempty" json:"annuity_fee_rate,omitempty"`
	WithdrawalRate *SourcedValue `yaml:"withdrawal_rate,omitempty" json:"withdrawal_rate,omitempty"`
	Notes          string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// SchemeComponent is one pillar/component of a country's pension system.
type SchemeComponent struct {
	SchemeID      string             `yaml:"scheme_id" json:"scheme_id"`
	Name          string             `yaml:"name" json:"name"`
	Tier          SchemeTier         `yaml:"tier" json:"tier"`
	Type          SchemeType         `yaml:"type" json:"type"`
	Coverage      string             `yaml:"coverage" json:"coverage"`
	Eligibility   EligibilityRules   `yaml:"eligibility" json:"eligibility"`
	Contributions *ContributionRules `yaml:"contributions,omitempty" json:"contributions,omitempty"`
	Benefits      BenefitRules       `yaml:"benefits" json:"benefits"`
	Payout        *PayoutRules       `yaml:"payout,omitempty" json:"payout,omitempty"`
	Active        *bool              `yaml:"active,omitempty" json:"active"`
	Notes         string             `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IsActive reports whether the scheme participates in calculations.
// Schemes are active unless the file says otherwise.
func (s *SchemeComponent) IsActive() bool {
	return s.Active == nil || *s.Active
}

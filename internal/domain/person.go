package domain

import "github.com/shopspring/decimal"

// Wage units accepted on a PersonProfile.
const (
	WageUnitCurrency   = "currency"    // annual wage in national currency
	WageUnitAWMultiple = "aw_multiple" // wage as a multiple of the average wage
)

// PersonProfile describes the individual for whom a benefit is computed.
type PersonProfile struct {
	Sex          string          `yaml:"sex" json:"sex"`
	Age          decimal.Decimal `yaml:"age" json:"age"`
	ServiceYears decimal.Decimal `yaml:"service_years" json:"service_years"`
	Wage         decimal.Decimal `yaml:"wage" json:"wage"`
	WageUnit     string          `yaml:"wage_unit" json:"wage_unit"`
	WorkerTypeID string          `yaml:"worker_type_id" json:"worker_type_id"`

	// ContributionYears overrides ServiceYears for the eligibility check when
	// contributions were paid over a different span than service.
	ContributionYears *decimal.Decimal `yaml:"contribution_years,omitempty" json:"contribution_years,omitempty"`
	// DCAccountBalance optionally overrides the accumulated DC balance.
	DCAccountBalance *decimal.Decimal `yaml:"dc_account_balance,omitempty" json:"dc_account_balance,omitempty"`
}

// EffectiveContributionYears returns contribution years for the eligibility
// check, falling back to service years.
func (p *PersonProfile) EffectiveContributionYears() decimal.Decimal {
	if p.ContributionYears != nil {
		return *p.ContributionYears
	}
	return p.ServiceYears
}

package compare

import (
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// CountryColumn holds one country's indicator grid for a comparison run.
type CountryColumn struct {
	ISO3         string `json:"iso3"`
	CountryName  string `json:"country_name"`
	CurrencyCode string `json:"currency_code"`

	AverageWage       decimal.Decimal `json:"average_wage"`
	AverageWageSource string          `json:"average_wage_source,omitempty"`

	Results []domain.PensionResult `json:"results"`
}

// ResultAt returns the result computed for the given earnings multiple.
func (c *CountryColumn) ResultAt(multiple decimal.Decimal) (domain.PensionResult, bool) {
	for _, r := range c.Results {
		if r.EarningsMultiple.Equal(multiple) {
			return r, true
		}
	}
	return domain.PensionResult{}, false
}

// BaselineDelta is one country's indicator gap against the baseline country,
// measured at the benchmark earnings multiple. Rates are expressed as
// fractions, wealth as average-wage multiples.
type BaselineDelta struct {
	ISO3 string `json:"iso3"`

	NetReplacementRateDiff decimal.Decimal `json:"net_replacement_rate_diff"`
	NetPensionLevelDiff    decimal.Decimal `json:"net_pension_level_diff"`
	NetPensionWealthDiff   decimal.Decimal `json:"net_pension_wealth_diff"`
}

// SkippedCountry records a country file that failed to load or compute and
// was dropped from the run.
type SkippedCountry struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ComparisonSet is the outcome of a multi-country comparison. The first
// country file passed to the engine becomes the baseline; every delta is
// relative to it. A failure in any other country removes that country from
// the set rather than aborting the run.
type ComparisonSet struct {
	Sex               string          `json:"sex"`
	BenchmarkMultiple decimal.Decimal `json:"benchmark_multiple"`

	Baseline CountryColumn    `json:"baseline"`
	Others   []CountryColumn  `json:"others"`
	Deltas   []BaselineDelta  `json:"deltas"`
	Skipped  []SkippedCountry `json:"skipped,omitempty"`
}

// Columns returns the baseline followed by the remaining countries.
func (cs *ComparisonSet) Columns() []CountryColumn {
	out := make([]CountryColumn, 0, len(cs.Others)+1)
	out = append(out, cs.Baseline)
	out = append(out, cs.Others...)
	return out
}

func computeDeltas(baseline CountryColumn, others []CountryColumn, benchmark decimal.Decimal) []BaselineDelta {
	base, ok := baseline.ResultAt(benchmark)
	if !ok {
		return nil
	}
	deltas := make([]BaselineDelta, 0, len(others))
	for _, col := range others {
		r, ok := col.ResultAt(benchmark)
		if !ok {
			continue
		}
		deltas = append(deltas, BaselineDelta{
			ISO3:                   col.ISO3,
			NetReplacementRateDiff: r.NetReplacementRate.Sub(base.NetReplacementRate),
			NetPensionLevelDiff:    r.NetPensionLevel.Sub(base.NetPensionLevel),
			NetPensionWealthDiff:   r.NetPensionWealth.Sub(base.NetPensionWealth),
		})
	}
	return deltas
}

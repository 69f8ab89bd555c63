package calculation

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// TaxEngine converts a gross annual pension into a net one. Implementations
// must be deterministic and side-effect free; the individual wage is passed
// for engines whose treatment depends on pre-retirement earnings.
type TaxEngine interface {
	NetPension(gross, individualWage decimal.Decimal) decimal.Decimal
	// EffectiveRate is the total deduction share, (gross - net) / gross,
	// zero on a zero gross.
	EffectiveRate(gross, individualWage decimal.Decimal) decimal.Decimal
}

// SimpleTaxEngine applies a single effective deduction rate to the gross
// pension. It is the cross-country default: one comparable knob instead of a
// full tax schedule.
type SimpleTaxEngine struct {
	NetRate decimal.Decimal
	Log     zerolog.Logger
}

// NewSimpleTaxEngine reads the simplified net rate from the country's tax
// block. A missing rate means pensions are untaxed; a rate outside [0, 1] is
// clamped with a warning rather than rejected, so a calculation always
// completes.
func NewSimpleTaxEngine(taxes *domain.TaxAndContrib, log zerolog.Logger) *SimpleTaxEngine {
	rate := decimal.Zero
	if taxes != nil {
		if r, ok := taxes.SimplifiedNetRate.Decimal(); ok {
			rate = r
		}
	}
	if rate.IsNegative() || rate.GreaterThan(one) {
		log.Warn().Str("simplified_net_rate", rate.String()).
			Msg("simplified net rate outside [0, 1]; clamping")
		rate = decimal.Max(decimal.Zero, decimal.Min(one, rate))
	}
	return &SimpleTaxEngine{NetRate: rate, Log: log}
}

// NetPension returns gross x (1 - net rate).
func (t *SimpleTaxEngine) NetPension(gross, _ decimal.Decimal) decimal.Decimal {
	return gross.Mul(one.Sub(t.NetRate))
}

// EffectiveRate is the flat net rate regardless of the gross amount.
func (t *SimpleTaxEngine) EffectiveRate(_, _ decimal.Decimal) decimal.Decimal {
	return t.NetRate
}

// TaxBracket is one marginal band: income up to Upper (nil for the top band)
// is taxed at Rate.
type TaxBracket struct {
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// BracketTaxEngine runs a pension through a marginal bracket schedule after
// an allowance, then deducts pensioner social contributions on the full gross
// amount. It serves countries where the flat simplified rate is too coarse.
type BracketTaxEngine struct {
	Allowance         decimal.Decimal
	Brackets          []TaxBracket
	SocialContribRate decimal.Decimal
}

// NewBracketTaxEngine sorts the brackets ascending by upper bound, with the
// open-ended band last.
func NewBracketTaxEngine(allowance decimal.Decimal, brackets []TaxBracket, socialContribRate decimal.Decimal) *BracketTaxEngine {
	sorted := make([]TaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Upper == nil {
			return false
		}
		if sorted[j].Upper == nil {
			return true
		}
		return sorted[i].Upper.LessThan(*sorted[j].Upper)
	})
	return &BracketTaxEngine{
		Allowance:         allowance,
		Brackets:          sorted,
		SocialContribRate: socialContribRate,
	}
}

// NetPension computes gross minus income tax minus social contributions.
// Income tax applies to max(0, gross - allowance) band by band; social
// contributions apply to the gross amount. The result never goes below zero.
func (t *BracketTaxEngine) NetPension(gross, _ decimal.Decimal) decimal.Decimal {
	taxable := decimal.Max(decimal.Zero, gross.Sub(t.Allowance))

	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range t.Brackets {
		if taxable.LessThanOrEqual(lower) {
			break
		}
		upper := taxable
		if b.Upper != nil {
			upper = decimal.Min(taxable, *b.Upper)
		}
		if upper.GreaterThan(lower) {
			tax = tax.Add(upper.Sub(lower).Mul(b.Rate))
		}
		if b.Upper == nil {
			break
		}
		lower = *b.Upper
	}

	contrib := gross.Mul(t.SocialContribRate)
	return decimal.Max(decimal.Zero, gross.Sub(tax).Sub(contrib))
}

// EffectiveRate is the realized deduction share after allowance and brackets.
func (t *BracketTaxEngine) EffectiveRate(gross, individualWage decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return gross.Sub(t.NetPension(gross, individualWage)).Div(gross)
}

// Tax treatment codes for the contribution, accumulation, and payout phases.
const (
	TaxTreatmentEET = "EET" // contributions and returns exempt, benefits taxed
	TaxTreatmentTEE = "TEE" // contributions taxed, returns and benefits exempt
	TaxTreatmentTTE = "TTE" // contributions and returns taxed, benefits exempt
)

// WorkerTaxEngine interprets the worker-phase treatment code: under TEE and
// TTE the payout leg is exempt, so benefits pass through untouched; under EET
// (and anything unrecognized) it defers to the wrapped engine.
type WorkerTaxEngine struct {
	Treatment string
	Payout    TaxEngine
}

func (t *WorkerTaxEngine) NetPension(gross, individualWage decimal.Decimal) decimal.Decimal {
	if !t.IsBenefitTaxed() || t.Payout == nil {
		return gross
	}
	return t.Payout.NetPension(gross, individualWage)
}

// EffectiveRate mirrors NetPension: zero for exempt payout legs.
func (t *WorkerTaxEngine) EffectiveRate(gross, individualWage decimal.Decimal) decimal.Decimal {
	if !t.IsBenefitTaxed() || t.Payout == nil {
		return decimal.Zero
	}
	return t.Payout.EffectiveRate(gross, individualWage)
}

// TaxTreatmentCode returns the normalized three-letter code, defaulting to EET.
func (t *WorkerTaxEngine) TaxTreatmentCode() string {
	code := strings.ToUpper(strings.TrimSpace(t.Treatment))
	switch code {
	case TaxTreatmentTEE, TaxTreatmentTTE:
		return code
	default:
		return TaxTreatmentEET
	}
}

// IsContributionExempt reports whether the contribution phase is untaxed (the
// leading E of the code).
func (t *WorkerTaxEngine) IsContributionExempt() bool {
	return t.TaxTreatmentCode() == TaxTreatmentEET
}

// IsBenefitTaxed reports whether the payout phase is taxed (the trailing T of
// the code).
func (t *WorkerTaxEngine) IsBenefitTaxed() bool {
	return t.TaxTreatmentCode() == TaxTreatmentEET
}

package calculation

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// PensionEngine computes gross and net pension indicators for one country.
//
// It dispatches every active scheme component to its type-specific formula,
// aggregates the results with the minimum-guarantee top-up rule, applies the
// tax engine, and derives replacement rates, pension levels, and pension
// wealth per earnings multiple.
//
// An engine holds only read-only references; instantiate one per country per
// run. It performs no I/O: the survival factor, when available, is computed
// upstream by PensionWealthCalculator.
type PensionEngine struct {
	Params  *domain.CountryParams
	Asmp    *domain.ModelingAssumptions
	AvgWage decimal.Decimal

	// SurvivalFactor is a pre-computed survival-weighted annuity factor.
	// When nil, a closed-form level annuity over the assumed life
	// expectancy is used instead.
	SurvivalFactor *decimal.Decimal

	// TaxCalc converts gross to net benefits; defaults to SimpleTaxEngine.
	TaxCalc TaxEngine

	Log zerolog.Logger
}

// NewPensionEngine creates an engine for one country.
func NewPensionEngine(params *domain.CountryParams, asmp *domain.ModelingAssumptions, averageWage decimal.Decimal) *PensionEngine {
	e := &PensionEngine{
		Params:  params,
		Asmp:    asmp,
		AvgWage: averageWage,
		Log:     zerolog.Nop(),
	}
	e.TaxCalc = NewSimpleTaxEngine(&params.Taxes, e.Log)
	return e
}

// WithSurvivalFactor sets a pre-computed annuity factor and returns the engine.
func (e *PensionEngine) WithSurvivalFactor(af decimal.Decimal) *PensionEngine {
	e.SurvivalFactor = &af
	return e
}

// WithLogger attaches a logger and returns the engine.
func (e *PensionEngine) WithLogger(log zerolog.Logger) *PensionEngine {
	e.Log = log
	if simple, ok := e.TaxCalc.(*SimpleTaxEngine); ok {
		simple.Log = log
	}
	return e
}

// Compute calculates all indicators for one earnings multiple.
// Sex defaults to the assumptions' modeling sex when empty.
func (e *PensionEngine) Compute(earningsMultiple decimal.Decimal, sex string) domain.PensionResult {
	if sex == "" {
		sex = e.Asmp.Sex
	}
	sex = domain.NormalizeSex(sex)
	individualWage := earningsMultiple.Mul(e.AvgWage)

	breakdown := map[string]decimal.Decimal{}
	for _, scheme := range e.Params.ActiveSchemes() {
		benefit := e.dispatch(scheme, individualWage, sex, e.Asmp)
		breakdown[scheme.SchemeID] = decimal.Max(decimal.Zero, benefit)
	}

	grossBenefit := e.aggregate(breakdown)
	netBenefit := e.TaxCalc.NetPension(grossBenefit, individualWage)

	result := domain.PensionResult{
		EarningsMultiple:   earningsMultiple,
		IndividualWage:     individualWage,
		AverageWage:        e.AvgWage,
		GrossBenefit:       grossBenefit,
		NetBenefit:         netBenefit,
		ComponentBreakdown: breakdown,
	}
	if individualWage.IsPositive() {
		result.GrossReplacementRate = grossBenefit.Div(individualWage)
		result.NetReplacementRate = netBenefit.Div(individualWage)
	}
	if e.AvgWage.IsPositive() {
		result.GrossPensionLevel = grossBenefit.Div(e.AvgWage)
		result.NetPensionLevel = netBenefit.Div(e.AvgWage)
	}

	af := e.annuityFactor(sex)
	result.GrossPensionWealth = result.GrossPensionLevel.Mul(af)
	result.NetPensionWealth = result.NetPensionLevel.Mul(af)

	return result
}

// RunAllMultiples computes results for every configured earnings multiple,
// preserving order. Pass a non-nil slice to override the configured grid.
func (e *PensionEngine) RunAllMultiples(multiples []decimal.Decimal, sex string) []domain.PensionResult {
	if multiples == nil {
		multiples = e.Asmp.EarningsMultiples
	}
	results := make([]domain.PensionResult, 0, len(multiples))
	for _, m := range multiples {
		results = append(results, e.Compute(m, sex))
	}
	return results
}

// aggregate combines scheme benefits with the minimum-guarantee rule.
// MINIMUM schemes never add to the main total; the largest one defines a
// floor instead. When the floor binds, the first MINIMUM scheme (in scheme
// order) is credited with the shortfall and the rest are zeroed, so the
// breakdown always sums to the returned gross benefit.
func (e *PensionEngine) aggregate(breakdown map[string]decimal.Decimal) decimal.Decimal {
	return e.aggregateFor(e.Params.ActiveSchemes(), breakdown)
}

// dispatch routes a scheme to its type-specific formula. Unknown types are a
// data-quality issue, not a failure: they log and contribute zero.
func (e *PensionEngine) dispatch(scheme *domain.SchemeComponent, wage decimal.Decimal, sex string, asmp *domain.ModelingAssumptions) decimal.Decimal {
	switch scheme.Type {
	case domain.SchemeDB:
		return e.computeDB(scheme, wage, asmp)
	case domain.SchemePoints:
		return e.computePoints(scheme, wage, asmp)
	case domain.SchemeNDC:
		return e.computeNDC(scheme, wage, sex, asmp)
	case domain.SchemeDC:
		return e.computeDC(scheme, wage, sex, asmp)
	case domain.SchemeBasic:
		return e.computeBasic(scheme)
	case domain.SchemeTargeted:
		return e.computeTargeted(scheme, wage)
	case domain.SchemeMinimum:
		return e.computeMinimum(scheme)
	default:
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).Str("type", string(scheme.Type)).
			Msg("unsupported scheme type; contributing zero")
		return decimal.Zero
	}
}

// annuityFactor returns the PV per unit of annual pension: the pre-computed
// survival-weighted factor when available, else the closed-form level annuity
// over the assumed life expectancy at retirement.
func (e *PensionEngine) annuityFactor(sex string) decimal.Decimal {
	if e.SurvivalFactor != nil {
		return *e.SurvivalFactor
	}
	le := e.Asmp.LifeExpectancyAtRetirement(sex)
	return FallbackAnnuityFactor(le, e.Asmp.DiscountRate, e.Asmp.PensionIndexationRate)
}

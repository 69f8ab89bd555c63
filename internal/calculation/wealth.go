package calculation

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// LifeTableSource provides cohort survival probabilities from a retirement
// age onward. Implementations may hit the network; the calculator caches
// their output per (sex, retirement age).
type LifeTableSource interface {
	SurvivalProbabilities(ctx context.Context, iso3 string, sex string, retirementAge, maxAge int) ([]domain.SurvivalPoint, error)
}

// PensionWealthCalculator turns an annual pension into pension wealth: the
// present value of the benefit stream at retirement, expressed as a multiple
// of the average wage.
//
// With a life-table source it discounts each future year by the probability
// of surviving to it; without one, or when the source fails, it degrades to a
// level annuity over the assumed life expectancy. Annuity factors are cached
// per (sex, retirement age); the calculator is safe for concurrent use.
type PensionWealthCalculator struct {
	Asmp   *domain.ModelingAssumptions
	ISO3   string
	Tables LifeTableSource
	Log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]decimal.Decimal
}

// NewPensionWealthCalculator builds a calculator for one country. Tables may
// be nil, in which case every factor comes from the fallback annuity.
func NewPensionWealthCalculator(asmp *domain.ModelingAssumptions, iso3 string, tables LifeTableSource) *PensionWealthCalculator {
	return &PensionWealthCalculator{
		Asmp:   asmp,
		ISO3:   iso3,
		Tables: tables,
		Log:    zerolog.Nop(),
		cache:  map[string]decimal.Decimal{},
	}
}

// ComputeAnnuityFactor returns the survival-weighted present value of a unit
// pension starting at the sex-specific retirement age:
//
//	sum over t of S(t) x ((1+g)/(1+d))^t
//
// where S(t) is the probability of surviving t years past retirement, g the
// pension indexation rate, and d the discount rate. Missing or failing life
// tables fall back to the closed-form level annuity.
func (w *PensionWealthCalculator) ComputeAnnuityFactor(ctx context.Context, sex string) decimal.Decimal {
	return w.ComputeAnnuityFactorAt(ctx, sex, 0)
}

// ComputeAnnuityFactorAt is ComputeAnnuityFactor for an explicit retirement
// age; a non-positive age falls back to the sex-specific default.
func (w *PensionWealthCalculator) ComputeAnnuityFactorAt(ctx context.Context, sex string, retirementAge int) decimal.Decimal {
	sex = domain.NormalizeSex(sex)
	retAge := retirementAge
	if retAge <= 0 {
		retAge = w.Asmp.DefaultRetirementAge(sex)
	}

	key := fmt.Sprintf("%s:%d", sex, retAge)
	w.mu.Lock()
	if af, ok := w.cache[key]; ok {
		w.mu.Unlock()
		return af
	}
	w.mu.Unlock()

	af := w.computeUncached(ctx, sex, retAge)

	w.mu.Lock()
	w.cache[key] = af
	w.mu.Unlock()
	return af
}

func (w *PensionWealthCalculator) computeUncached(ctx context.Context, sex string, retAge int) decimal.Decimal {
	if w.Tables == nil {
		return w.fallback(sex)
	}

	points, err := w.Tables.SurvivalProbabilities(ctx, w.ISO3, sex, retAge, w.Asmp.MaxAgeForWealth)
	if err != nil || len(points) == 0 {
		w.Log.Warn().Err(err).Str("iso3", w.ISO3).Str("sex", sex).Int("retirement_age", retAge).
			Msg("life table unavailable; using fallback annuity factor")
		return w.fallback(sex)
	}

	// Per-year discount on an indexed pension: (1+g)/(1+d).
	ratio := one.Add(w.Asmp.PensionIndexationRate).Div(one.Add(w.Asmp.DiscountRate))

	factor := decimal.Zero
	for _, p := range points {
		factor = factor.Add(p.SurvivalProb.Mul(ratio.Pow(decimal.NewFromInt(int64(p.T)))))
	}
	return factor
}

// fallback is the closed-form level annuity over assumed life expectancy at
// the indexation-adjusted real discount rate.
func (w *PensionWealthCalculator) fallback(sex string) decimal.Decimal {
	le := w.Asmp.LifeExpectancyAtRetirement(sex)
	return FallbackAnnuityFactor(le, w.Asmp.DiscountRate, w.Asmp.PensionIndexationRate)
}

// FallbackAnnuityFactor is the level-annuity present value of a unit pension
// indexed at g and discounted at d over le years. The two rates combine into
// a real discount rate (1+d)/(1+g) - 1; when that is effectively zero the
// factor is simply le.
func FallbackAnnuityFactor(le, discount, indexation decimal.Decimal) decimal.Decimal {
	if !le.IsPositive() {
		return decimal.Zero
	}
	realDiscount := one.Add(discount).Div(one.Add(indexation)).Sub(one)
	if realDiscount.Abs().LessThan(decimal.New(1, -9)) {
		return le
	}
	pv := one.Sub(one.Add(realDiscount).Pow(le.Neg()))
	return pv.Div(realDiscount)
}

// ComputePensionWealth expresses an annual pension as wealth in average-wage
// units: (pension / average wage) x annuity factor. A non-positive average
// wage yields zero.
func (w *PensionWealthCalculator) ComputePensionWealth(ctx context.Context, annualPension, averageWage decimal.Decimal, sex string) decimal.Decimal {
	return w.ComputePensionWealthAt(ctx, annualPension, averageWage, sex, 0)
}

// ComputePensionWealthAt is ComputePensionWealth for an explicit retirement
// age; a non-positive age falls back to the sex-specific default.
func (w *PensionWealthCalculator) ComputePensionWealthAt(ctx context.Context, annualPension, averageWage decimal.Decimal, sex string, retirementAge int) decimal.Decimal {
	if !averageWage.IsPositive() {
		return decimal.Zero
	}
	af := w.ComputeAnnuityFactorAt(ctx, sex, retirementAge)
	return annualPension.Div(averageWage).Mul(af)
}

// ApplyToResults recomputes the wealth fields of already-computed results
// with this calculator's (typically survival-weighted) annuity factor,
// replacing whatever factor the engine used. Results are updated in place.
func (w *PensionWealthCalculator) ApplyToResults(ctx context.Context, results []domain.PensionResult, sex string) {
	af := w.ComputeAnnuityFactor(ctx, sex)
	for i := range results {
		results[i].GrossPensionWealth = results[i].GrossPensionLevel.Mul(af)
		results[i].NetPensionWealth = results[i].NetPensionLevel.Mul(af)
	}
}

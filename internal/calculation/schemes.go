package calculation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// effectiveYears is career length scaled by contribution density; every
// earnings-related formula accrues over this, not raw career length.
func effectiveYears(asmp *domain.ModelingAssumptions) decimal.Decimal {
	return asmp.CareerLength.Mul(asmp.ContributionDensity)
}

// computeDB values a defined-benefit scheme as
// accrual rate x effective years x reference wage.
//
// Final-salary, career-average, and best-years bases all collapse to the
// steady-state wage: under flat-multiple earnings every averaging window
// revalues to the same number. A contribution ceiling, when set, caps the
// reference wage at ceiling x average wage.
func (e *PensionEngine) computeDB(scheme *domain.SchemeComponent, wage decimal.Decimal, asmp *domain.ModelingAssumptions) decimal.Decimal {
	accrual, ok := scheme.Benefits.AccrualRatePerYear.Decimal()
	if !ok {
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).Msg("DB scheme missing accrual rate; contributing zero")
		return decimal.Zero
	}

	refWage := wage
	if scheme.Contributions != nil {
		if ceiling, ok := scheme.Contributions.ContributionCeilingAWMultiple.Decimal(); ok {
			refWage = decimal.Min(refWage, ceiling.Mul(e.AvgWage))
		}
	}

	benefit := accrual.Mul(effectiveYears(asmp)).Mul(refWage)
	return e.applyBounds(scheme, benefit)
}

// computePoints values a points scheme: points earned over the career times
// the value of a point at retirement.
//
// A configured point value below 5 is read as an average-wage multiple,
// otherwise as a currency amount. Without a point value, the point cost
// (purchase price as an AW multiple) stands in; without either, each point is
// worth 1% of the average wage.
func (e *PensionEngine) computePoints(scheme *domain.SchemeComponent, wage decimal.Decimal, asmp *domain.ModelingAssumptions) decimal.Decimal {
	points := wage.Div(e.AvgWage).Mul(effectiveYears(asmp))

	var pointValue decimal.Decimal
	if pv, ok := scheme.Benefits.PointValue.Decimal(); ok {
		if pv.LessThan(decimal.NewFromInt(5)) {
			pointValue = pv.Mul(e.AvgWage)
		} else {
			pointValue = pv
		}
	} else if pc, ok := scheme.Benefits.PointCost.Decimal(); ok {
		pointValue = pc.Mul(e.AvgWage)
	} else {
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).
			Msg("points scheme missing point value and point cost; assuming 1% of average wage per point")
		pointValue = decimal.NewFromFloat(0.01).Mul(e.AvgWage)
	}

	benefit := points.Mul(pointValue)
	return e.applyBounds(scheme, benefit)
}

// computeNDC values a notional defined-contribution scheme: contributions
// accumulate at the notional interest rate into a notional account, which an
// annuity divisor converts to an annual pension. The divisor defaults to life
// expectancy at retirement when not configured.
func (e *PensionEngine) computeNDC(scheme *domain.SchemeComponent, wage decimal.Decimal, sex string, asmp *domain.ModelingAssumptions) decimal.Decimal {
	totalRate := scheme.Contributions.EffectiveTotalRate()
	if totalRate.IsZero() {
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).Msg("NDC scheme has no contribution rate; contributing zero")
		return decimal.Zero
	}

	rate := e.notionalRate(scheme, asmp)
	annualContribution := totalRate.Mul(wage).Mul(asmp.ContributionDensity)
	account := annualContribution.Mul(fvAnnuityFactor(rate, asmp.CareerLength))

	divisor, ok := scheme.Benefits.AnnuityDivisorAtNRA.Decimal()
	if !ok || !divisor.IsPositive() {
		divisor = asmp.LifeExpectancyAtRetirement(sex)
	}
	if !divisor.IsPositive() {
		return decimal.Zero
	}

	benefit := account.Div(divisor)
	return e.applyBounds(scheme, benefit)
}

// computeDC values a funded defined-contribution scheme: contributions
// accumulate at the real return net of fees, and the balance is annuitized
// over life expectancy at the discount rate.
func (e *PensionEngine) computeDC(scheme *domain.SchemeComponent, wage decimal.Decimal, sex string, asmp *domain.ModelingAssumptions) decimal.Decimal {
	totalRate := scheme.Contributions.EffectiveTotalRate()
	if totalRate.IsZero() {
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).Msg("DC scheme has no contribution rate; contributing zero")
		return decimal.Zero
	}

	annualContribution := totalRate.Mul(wage).Mul(asmp.ContributionDensity)
	balance := annualContribution.Mul(fvAnnuityFactor(asmp.DCRealReturnNetOfFees, asmp.CareerLength))

	le := asmp.LifeExpectancyAtRetirement(sex)
	factor := levelAnnuityFactor(le, asmp.DiscountRate)
	if !factor.IsPositive() {
		return decimal.Zero
	}

	benefit := balance.Div(factor)
	return e.applyBounds(scheme, benefit)
}

// computeBasic values a flat-rate universal benefit. The AW-multiple rate
// wins over an absolute amount; a minimum-benefit multiple is accepted as a
// last-resort stand-in for sparsely parameterized countries.
func (e *PensionEngine) computeBasic(scheme *domain.SchemeComponent) decimal.Decimal {
	b := &scheme.Benefits
	if mult, ok := b.FlatRateAWMultiple.Decimal(); ok {
		return e.applyBounds(scheme, mult.Mul(e.AvgWage))
	}
	if abs, ok := b.FlatRateAbsolute.Decimal(); ok {
		return e.applyBounds(scheme, abs)
	}
	if mult, ok := b.MinimumBenefitAWMultiple.Decimal(); ok {
		return e.applyBounds(scheme, mult.Mul(e.AvgWage))
	}
	e.Log.Warn().Str("scheme_id", scheme.SchemeID).Msg("basic scheme has no flat rate; contributing zero")
	return decimal.Zero
}

// computeTargeted values a means-tested benefit withdrawn against own income
// at a 50% taper: max(0, maximum benefit - 0.5 x wage). Bounds are not
// re-applied because the formula is self-bounding.
func (e *PensionEngine) computeTargeted(scheme *domain.SchemeComponent, wage decimal.Decimal) decimal.Decimal {
	b := &scheme.Benefits
	var maxBenefit decimal.Decimal
	if mult, ok := b.MaximumBenefitAWMultiple.Decimal(); ok {
		maxBenefit = mult.Mul(e.AvgWage)
	} else if abs, ok := b.MaximumBenefitAbsolute.Decimal(); ok {
		maxBenefit = abs
	} else if mult, ok := b.MinimumBenefitAWMultiple.Decimal(); ok {
		maxBenefit = mult.Mul(e.AvgWage)
	} else {
		e.Log.Warn().Str("scheme_id", scheme.SchemeID).Msg("targeted scheme has no maximum benefit; contributing zero")
		return decimal.Zero
	}
	return decimal.Max(decimal.Zero, maxBenefit.Sub(half.Mul(wage)))
}

// computeMinimum returns the guarantee level. The value does not enter the
// component sum directly; aggregation turns it into a floor on the total.
func (e *PensionEngine) computeMinimum(scheme *domain.SchemeComponent) decimal.Decimal {
	b := &scheme.Benefits
	if mult, ok := b.MinimumBenefitAWMultiple.Decimal(); ok {
		return mult.Mul(e.AvgWage)
	}
	if abs, ok := b.MinimumBenefitAbsolute.Decimal(); ok {
		return abs
	}
	return decimal.Zero
}

// applyBounds clamps an earnings-related benefit to the scheme's configured
// floor and ceiling. All four bounds apply independently, so a scheme carrying
// both an AW-multiple and an absolute floor gets the tighter of the two.
func (e *PensionEngine) applyBounds(scheme *domain.SchemeComponent, benefit decimal.Decimal) decimal.Decimal {
	b := &scheme.Benefits
	if mult, ok := b.MinimumBenefitAWMultiple.Decimal(); ok {
		benefit = decimal.Max(benefit, mult.Mul(e.AvgWage))
	}
	if abs, ok := b.MinimumBenefitAbsolute.Decimal(); ok {
		benefit = decimal.Max(benefit, abs)
	}
	if mult, ok := b.MaximumBenefitAWMultiple.Decimal(); ok {
		benefit = decimal.Min(benefit, mult.Mul(e.AvgWage))
	}
	if abs, ok := b.MaximumBenefitAbsolute.Decimal(); ok {
		benefit = decimal.Min(benefit, abs)
	}
	return benefit
}

// notionalRate resolves an NDC scheme's crediting rate. The configured value
// may be numeric, a percentage string like "1.6%", or the keywords "wage"
// (economy-wide wage growth) and "cpi" (price inflation); anything else
// falls back to real wage growth.
func (e *PensionEngine) notionalRate(scheme *domain.SchemeComponent, asmp *domain.ModelingAssumptions) decimal.Decimal {
	raw := strings.ToLower(strings.TrimSpace(scheme.Benefits.NotionalInterestRate))
	if raw == "" {
		return asmp.EffectiveWageGrowth()
	}
	if r, err := decimal.NewFromString(raw); err == nil {
		return r
	}
	switch {
	case strings.Contains(raw, "wage"):
		return asmp.EffectiveWageGrowth()
	case strings.Contains(raw, "cpi") || strings.Contains(raw, "price"):
		return asmp.Inflation
	case strings.HasSuffix(raw, "%"):
		if f, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64); err == nil {
			return decimal.NewFromFloat(f / 100)
		}
	}
	e.Log.Warn().Str("scheme_id", scheme.SchemeID).Str("notional_rate", raw).
		Msg("unrecognized notional interest rate; using real wage growth")
	return asmp.RealWageGrowth
}

// fvAnnuityFactor is the future value of a unit annuity paid annually for n
// years at rate r: ((1+r)^n - 1) / r, degrading to n when r is not positive.
func fvAnnuityFactor(rate, years decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return years
	}
	growth := one.Add(rate).Pow(years)
	return growth.Sub(one).Div(rate)
}

// levelAnnuityFactor is the present value of a unit annuity paid for le years
// discounted at d: (1 - (1+d)^-le) / d, degrading to le when d is not
// positive.
func levelAnnuityFactor(le, discount decimal.Decimal) decimal.Decimal {
	if !discount.IsPositive() {
		return le
	}
	pv := one.Sub(one.Add(discount).Pow(le.Neg()))
	return pv.Div(discount)
}

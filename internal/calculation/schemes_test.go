package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// singleSchemeEngine wraps one scheme in an otherwise empty, untaxed system.
func singleSchemeEngine(t *testing.T, scheme domain.SchemeComponent) *PensionEngine {
	t.Helper()
	params := &domain.CountryParams{
		Metadata: domain.CountryMetadata{CountryName: "Testland", ISO3: "TST", CurrencyCode: "TSM"},
		Schemes:  []domain.SchemeComponent{scheme},
	}
	asmp := domain.DefaultAssumptions()
	return NewPensionEngine(params, &asmp, decimal.NewFromInt(10000))
}

func TestComputePoints(t *testing.T) {
	tests := []struct {
		name     string
		benefits domain.BenefitRules
		multiple decimal.Decimal
		want     decimal.Decimal
	}{
		{
			// 40 points, point value 0.02 AW = 200 each.
			name:     "point value as AW multiple",
			benefits: domain.BenefitRules{PointValue: domain.Sourced(0.02, "cit")},
			multiple: decimal.NewFromInt(1),
			want:     d(8000),
		},
		{
			// Values of 5 and above are currency amounts: 40 x 150.
			name:     "point value as currency amount",
			benefits: domain.BenefitRules{PointValue: domain.Sourced(150, "cit")},
			multiple: decimal.NewFromInt(1),
			want:     d(6000),
		},
		{
			// Point cost stands in: 40 x (0.01 x 10 000).
			name:     "point cost fallback",
			benefits: domain.BenefitRules{PointCost: domain.Sourced(0.01, "cit")},
			multiple: decimal.NewFromInt(1),
			want:     d(4000),
		},
		{
			// Nothing configured: 1% of AW per point.
			name:     "default point value",
			benefits: domain.BenefitRules{},
			multiple: decimal.NewFromInt(1),
			want:     d(4000),
		},
		{
			// Half the wage means half the points.
			name:     "points scale with earnings",
			benefits: domain.BenefitRules{PointValue: domain.Sourced(0.02, "cit")},
			multiple: d(0.5),
			want:     d(4000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := singleSchemeEngine(t, domain.SchemeComponent{
				SchemeID: "pts", Type: domain.SchemePoints, Benefits: tt.benefits,
			})
			res := e.Compute(tt.multiple, domain.SexMale)
			assert.True(t, res.GrossBenefit.Equal(tt.want), "got %s want %s", res.GrossBenefit, tt.want)
		})
	}
}

func TestComputeNDC(t *testing.T) {
	scheme := domain.SchemeComponent{
		SchemeID: "ndc",
		Type:     domain.SchemeNDC,
		Contributions: &domain.ContributionRules{
			TotalRate: domain.Sourced(0.16, "cit"),
		},
		Benefits: domain.BenefitRules{
			NotionalInterestRate: "2%",
			AnnuityDivisorAtNRA:  domain.Sourced(20, "cit"),
		},
	}
	e := singleSchemeEngine(t, scheme)
	res := e.Compute(decimal.NewFromInt(1), domain.SexMale)

	// 1 600/yr at 2% over 40 years = 1 600 x 60.402 = 96 643; / 20 = 4 832.
	assert.InDelta(t, 4832.16, res.GrossBenefit.InexactFloat64(), 0.5)
}

func TestComputeNDCNoContributionRate(t *testing.T) {
	e := singleSchemeEngine(t, domain.SchemeComponent{
		SchemeID: "ndc", Type: domain.SchemeNDC,
		Benefits: domain.BenefitRules{AnnuityDivisorAtNRA: domain.Sourced(20, "cit")},
	})
	res := e.Compute(decimal.NewFromInt(1), domain.SexMale)
	assert.True(t, res.GrossBenefit.IsZero())
}

func TestComputeNDCDivisorDefaultsToLifeExpectancy(t *testing.T) {
	scheme := domain.SchemeComponent{
		SchemeID: "ndc",
		Type:     domain.SchemeNDC,
		Contributions: &domain.ContributionRules{
			TotalRate: domain.Sourced(0.16, "cit"),
		},
		Benefits: domain.BenefitRules{NotionalInterestRate: "0%"},
	}
	e := singleSchemeEngine(t, scheme)

	// Zero notional rate: account = 1 600 x 40 = 64 000. Divisors are the
	// sex-specific fallback life expectancies, 20 and 25 years.
	male := e.Compute(decimal.NewFromInt(1), domain.SexMale)
	assert.True(t, male.GrossBenefit.Equal(d(3200)), "got %s", male.GrossBenefit)
	female := e.Compute(decimal.NewFromInt(1), domain.SexFemale)
	assert.True(t, female.GrossBenefit.Equal(d(2560)), "got %s", female.GrossBenefit)
}

func TestComputeDC(t *testing.T) {
	scheme := domain.SchemeComponent{
		SchemeID: "dc",
		Type:     domain.SchemeDC,
		Contributions: &domain.ContributionRules{
			EmployeeRate: domain.Sourced(0.04, "cit"),
			EmployerRate: domain.Sourced(0.06, "cit"),
		},
	}
	e := singleSchemeEngine(t, scheme)
	res := e.Compute(decimal.NewFromInt(1), domain.SexMale)

	// 1 000/yr at 3% over 40 years = 75 401; annuitized over 20 years at 2%
	// (factor 16.351) = 4 611.
	assert.InDelta(t, 4611.4, res.GrossBenefit.InexactFloat64(), 1.0)
}

func TestComputeBasic(t *testing.T) {
	tests := []struct {
		name     string
		benefits domain.BenefitRules
		want     decimal.Decimal
	}{
		{"AW multiple", domain.BenefitRules{FlatRateAWMultiple: domain.Sourced(0.2, "cit")}, d(2000)},
		{"absolute amount", domain.BenefitRules{FlatRateAbsolute: domain.Sourced(1800, "cit")}, d(1800)},
		{"minimum stands in", domain.BenefitRules{MinimumBenefitAWMultiple: domain.Sourced(0.15, "cit")}, d(1500)},
		{"nothing configured", domain.BenefitRules{}, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := singleSchemeEngine(t, domain.SchemeComponent{
				SchemeID: "basic", Type: domain.SchemeBasic, Benefits: tt.benefits,
			})
			// Flat benefits must not vary with earnings.
			for _, m := range []decimal.Decimal{d(0.5), decimal.NewFromInt(1), decimal.NewFromInt(2)} {
				res := e.Compute(m, domain.SexMale)
				assert.True(t, res.GrossBenefit.Equal(tt.want), "multiple %s: got %s want %s", m, res.GrossBenefit, tt.want)
			}
		})
	}
}

func TestComputeTargetedTaper(t *testing.T) {
	e := singleSchemeEngine(t, domain.SchemeComponent{
		SchemeID: "saspa", Type: domain.SchemeTargeted,
		Benefits: domain.BenefitRules{MaximumBenefitAWMultiple: domain.Sourced(0.3, "cit")},
	})

	tests := []struct {
		multiple decimal.Decimal
		want     decimal.Decimal
	}{
		{decimal.Zero, d(3000)},          // full benefit with no income
		{d(0.2), d(2000)},                // 3 000 - 0.5 x 2 000
		{d(0.6), decimal.Zero},           // fully withdrawn at exactly 2x the max
		{decimal.NewFromInt(2), decimal.Zero}, // never negative
	}
	for _, tt := range tests {
		res := e.Compute(tt.multiple, domain.SexMale)
		assert.True(t, res.GrossBenefit.Equal(tt.want), "multiple %s: got %s want %s", tt.multiple, res.GrossBenefit, tt.want)
	}
}

func TestDBContributionCeilingCapsReferenceWage(t *testing.T) {
	e := singleSchemeEngine(t, domain.SchemeComponent{
		SchemeID: "db", Type: domain.SchemeDB,
		Contributions: &domain.ContributionRules{
			TotalRate:                     domain.Sourced(0.2, "cit"),
			ContributionCeilingAWMultiple: domain.Sourced(2, "cit"),
		},
		Benefits: domain.BenefitRules{AccrualRatePerYear: domain.Sourced(0.02, "cit")},
	})

	// Below the ceiling the benefit is linear in earnings; above it the
	// reference wage is pinned at 2x the average wage.
	at2 := e.Compute(decimal.NewFromInt(2), domain.SexMale)
	at3 := e.Compute(decimal.NewFromInt(3), domain.SexMale)
	assert.True(t, at2.GrossBenefit.Equal(d(16000)), "got %s", at2.GrossBenefit)
	assert.True(t, at3.GrossBenefit.Equal(at2.GrossBenefit), "ceiling ignored: %s vs %s", at3.GrossBenefit, at2.GrossBenefit)
}

func TestApplyBoundsClampsBenefit(t *testing.T) {
	e := singleSchemeEngine(t, domain.SchemeComponent{
		SchemeID: "db", Type: domain.SchemeDB,
		Benefits: domain.BenefitRules{
			AccrualRatePerYear:       domain.Sourced(0.02, "cit"),
			MinimumBenefitAWMultiple: domain.Sourced(0.2, "cit"),
			MaximumBenefitAWMultiple: domain.Sourced(1, "cit"),
		},
	})

	low := e.Compute(d(0.1), domain.SexMale)
	assert.True(t, low.GrossBenefit.Equal(d(2000)), "floor not applied: %s", low.GrossBenefit)

	high := e.Compute(decimal.NewFromInt(3), domain.SexMale)
	assert.True(t, high.GrossBenefit.Equal(d(10000)), "ceiling not applied: %s", high.GrossBenefit)
}

func TestApplyBoundsBothFormsApply(t *testing.T) {
	// AW-multiple and absolute bounds are independent clamps, so when a
	// scheme carries both the tighter one wins.
	e := singleSchemeEngine(t, domain.SchemeComponent{
		SchemeID: "db", Type: domain.SchemeDB,
		Benefits: domain.BenefitRules{
			AccrualRatePerYear:       domain.Sourced(0.02, "cit"),
			MinimumBenefitAWMultiple: domain.Sourced(0.1, "cit"), // floor 1000
			MinimumBenefitAbsolute:   domain.Sourced(5000, "cit"),
			MaximumBenefitAWMultiple: domain.Sourced(1, "cit"), // cap 10000
			MaximumBenefitAbsolute:   domain.Sourced(9000, "cit"),
		},
	})

	// Raw benefit 40: the AW floor lifts it to 1000, the absolute floor to 5000.
	low := e.Compute(d(0.005), domain.SexMale)
	assert.True(t, low.GrossBenefit.Equal(d(5000)), "absolute floor not applied: %s", low.GrossBenefit)

	// Raw benefit 24000: the AW cap cuts to 10000, the absolute cap to 9000.
	high := e.Compute(decimal.NewFromInt(3), domain.SexMale)
	assert.True(t, high.GrossBenefit.Equal(d(9000)), "absolute ceiling not applied: %s", high.GrossBenefit)
}

func TestNotionalRateResolution(t *testing.T) {
	asmp := domain.DefaultAssumptions()
	wageGrowth := asmp.EffectiveWageGrowth()

	tests := []struct {
		raw  string
		want decimal.Decimal
	}{
		{"", wageGrowth},
		{"wage", wageGrowth},
		{"wage growth", wageGrowth},
		{"cpi", asmp.Inflation},
		{"price inflation", asmp.Inflation},
		{"1.6%", d(0.016)},
		{"0.016", d(0.016)},
		{"gdp", asmp.RealWageGrowth}, // unrecognized falls back
	}

	e := singleSchemeEngine(t, domain.SchemeComponent{SchemeID: "ndc", Type: domain.SchemeNDC})
	for _, tt := range tests {
		scheme := &domain.SchemeComponent{
			SchemeID: "ndc", Type: domain.SchemeNDC,
			Benefits: domain.BenefitRules{NotionalInterestRate: tt.raw},
		}
		got := e.notionalRate(scheme, &asmp)
		assert.True(t, got.Equal(tt.want), "raw %q: got %s want %s", tt.raw, got, tt.want)
	}
}

func TestFvAnnuityFactor(t *testing.T) {
	years := decimal.NewFromInt(40)

	// Zero or negative rates degrade to simple accumulation.
	assert.True(t, fvAnnuityFactor(decimal.Zero, years).Equal(years))
	assert.True(t, fvAnnuityFactor(d(-0.01), years).Equal(years))

	got := fvAnnuityFactor(d(0.02), years)
	assert.InDelta(t, 60.402, got.InexactFloat64(), 0.001)
}

func TestLevelAnnuityFactor(t *testing.T) {
	le := decimal.NewFromInt(20)

	assert.True(t, levelAnnuityFactor(le, decimal.Zero).Equal(le))

	got := levelAnnuityFactor(le, d(0.02))
	assert.InDelta(t, 16.351, got.InexactFloat64(), 0.001)

	// A higher discount rate always shrinks the factor.
	higher := levelAnnuityFactor(le, d(0.04))
	require.True(t, higher.LessThan(got))
}

package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// DefaultWorkerTypeID is the worker category assumed when none is given.
// Countries without a worker_types block implicitly treat everyone this way.
const DefaultWorkerTypeID = "private_employee"

// Actuarial reduction per month of early retirement.
var earlyReductionPerMonth = decimal.NewFromFloat(0.005)

// ComputeBenefit runs the personalised calculation for one person: resolve
// the worker type, check eligibility, value the worker type's applicable
// schemes over the person's actual service history, apply any early
// retirement reduction, and net out taxes. Recoverable data problems become
// warnings on the result; the calculation always completes.
func (e *PensionEngine) ComputeBenefit(person domain.PersonProfile) domain.BenefitResult {
	result := domain.BenefitResult{
		Person:             person,
		ComponentBreakdown: map[string]decimal.Decimal{},
	}

	// Resolve the individual wage first so every later step can cite it.
	wage, step := e.resolveWage(person)
	result.ReasoningTrace = append(result.ReasoningTrace, step)

	wtID := person.WorkerTypeID
	if wtID == "" {
		wtID = DefaultWorkerTypeID
	}
	result.WorkerTypeID = wtID

	var wt domain.WorkerTypeRules
	if e.Params.HasWorkerType(wtID) {
		resolved, err := e.Params.ResolveWorkerType(wtID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("worker type %q could not be resolved: %v; treating as fully covered", wtID, err))
		} else {
			wt = resolved
		}
	} else if wtID != DefaultWorkerTypeID {
		result.Warnings = append(result.Warnings, fmt.Sprintf("worker type %q not defined for %s; applying all active schemes", wtID, e.Params.Metadata.ISO3))
	}

	if wt.CoverageStatus == domain.CoverageExcluded {
		result.Warnings = append(result.Warnings, fmt.Sprintf("worker type %q is excluded from mandatory coverage; no benefit accrues", wtID))
		result.ReasoningTrace = append(result.ReasoningTrace, domain.ReasoningStep{
			Label: "Coverage", Formula: "coverage_status = excluded", Value: "0",
		})
		return result
	}

	applicable := e.applicableSchemes(wt)
	if len(applicable) == 0 {
		result.Warnings = append(result.Warnings, "no applicable schemes; benefit is zero")
		return result
	}

	result.Eligibility = e.assessEligibility(person, wt, applicable[0])
	result.ReasoningTrace = append(result.ReasoningTrace, domain.ReasoningStep{
		Label:   "Normal retirement age",
		Formula: fmt.Sprintf("age %s vs NRA %s", person.Age, result.Eligibility.NormalRetirementAge),
		Value:   fmt.Sprintf("eligible=%t", result.Eligibility.IsEligible),
	})

	// A person's service years replace the stylised full career; density is
	// irrelevant once service is measured directly.
	asmp := e.Asmp.ForPerson(person.ServiceYears, person.Sex)
	sex := asmp.Sex

	breakdown := map[string]decimal.Decimal{}
	for _, scheme := range applicable {
		benefit := decimal.Max(decimal.Zero, e.dispatch(scheme, wage, sex, &asmp))
		breakdown[scheme.SchemeID] = benefit
		result.ReasoningTrace = append(result.ReasoningTrace, domain.ReasoningStep{
			Label:    scheme.Name,
			Formula:  fmt.Sprintf("%s scheme %s over %s service years", scheme.Type, scheme.SchemeID, person.ServiceYears),
			Value:    benefit.StringFixed(2),
			Citation: scheme.Benefits.AccrualRatePerYear.Citation(),
		})
	}

	gross := e.aggregateFor(applicable, breakdown)

	multiplier := e.earlyRetirementMultiplier(person, &result)
	if !multiplier.Equal(one) {
		gross = gross.Mul(multiplier)
		for sid, v := range breakdown {
			breakdown[sid] = v.Mul(multiplier)
		}
	}

	net := e.TaxCalc.NetPension(gross, wage)

	result.ComponentBreakdown = breakdown
	result.GrossBenefit = gross
	result.NetBenefit = net
	if wage.IsPositive() {
		result.GrossReplacementRate = gross.Div(wage)
		result.NetReplacementRate = net.Div(wage)
	}
	if e.AvgWage.IsPositive() {
		result.GrossPensionLevel = gross.Div(e.AvgWage)
		result.NetPensionLevel = net.Div(e.AvgWage)
	}

	result.ReasoningTrace = append(result.ReasoningTrace,
		domain.ReasoningStep{
			Label:   "Gross annual benefit",
			Formula: "sum of scheme components with minimum guarantee",
			Value:   gross.StringFixed(2),
		},
		domain.ReasoningStep{
			Label:   "Net annual benefit",
			Formula: "gross after simplified taxes and contributions",
			Value:   net.StringFixed(2),
		},
	)

	return result
}

// resolveWage converts the person's wage to national currency.
func (e *PensionEngine) resolveWage(person domain.PersonProfile) (decimal.Decimal, domain.ReasoningStep) {
	if person.WageUnit == domain.WageUnitAWMultiple {
		wage := person.Wage.Mul(e.AvgWage)
		return wage, domain.ReasoningStep{
			Label:   "Individual wage",
			Formula: fmt.Sprintf("%s x average wage %s", person.Wage, e.AvgWage.StringFixed(2)),
			Value:   wage.StringFixed(2),
		}
	}
	return person.Wage, domain.ReasoningStep{
		Label:   "Individual wage",
		Formula: "annual wage in national currency",
		Value:   person.Wage.StringFixed(2),
	}
}

// applicableSchemes intersects the active schemes with the worker type's
// scheme list. An unrestricted worker type gets every active scheme.
func (e *PensionEngine) applicableSchemes(wt domain.WorkerTypeRules) []*domain.SchemeComponent {
	active := e.Params.ActiveSchemes()
	if len(wt.SchemeIDs) == 0 {
		return active
	}
	allowed := map[string]bool{}
	for _, sid := range wt.SchemeIDs {
		allowed[sid] = true
	}
	var out []*domain.SchemeComponent
	for _, s := range active {
		if allowed[s.SchemeID] {
			out = append(out, s)
		}
	}
	return out
}

// assessEligibility checks the person against retirement age and minimum
// contribution rules, taking parameters from the worker type's eligibility
// override when present, else from the reference scheme (the first
// applicable one).
func (e *PensionEngine) assessEligibility(person domain.PersonProfile, wt domain.WorkerTypeRules, ref *domain.SchemeComponent) domain.EligibilityResult {
	sex := domain.NormalizeSex(person.Sex)

	nraParam := wt.EligibilityOverride.NormalRetirementAge(sex)
	if nraParam == nil {
		nraParam = ref.Eligibility.NormalRetirementAge(sex)
	}
	nra := decimal.NewFromInt(int64(e.Asmp.DefaultRetirementAge(sex)))
	if v, ok := nraParam.Decimal(); ok {
		nra = v
	}

	eraParam := wt.EligibilityOverride.EarlyRetirementAge(sex)
	if eraParam == nil {
		eraParam = ref.Eligibility.EarlyRetirementAge(sex)
	}
	var era *decimal.Decimal
	if v, ok := eraParam.Decimal(); ok {
		era = &v
	}

	minContribParam := ref.Eligibility.MinimumContributionYears
	if wt.EligibilityOverride != nil && wt.EligibilityOverride.MinimumContributionYears != nil {
		minContribParam = wt.EligibilityOverride.MinimumContributionYears
	}
	minContrib := decimal.Zero
	if v, ok := minContribParam.Decimal(); ok {
		minContrib = v
	}

	vestingParam := ref.Eligibility.VestingYears
	if wt.EligibilityOverride != nil && wt.EligibilityOverride.VestingYears != nil {
		vestingParam = wt.EligibilityOverride.VestingYears
	}
	var vesting *decimal.Decimal
	if v, ok := vestingParam.Decimal(); ok {
		vesting = &v
	}

	res := domain.EligibilityResult{
		IsEligible:          true,
		NormalRetirementAge: nra,
		EarlyRetirementAge:  era,
		VestingYears:        vesting,
		YearsToNRA:          nra.Sub(person.Age),
	}

	if person.Age.LessThan(nra) {
		res.IsEligible = false
		res.Missing = append(res.Missing, fmt.Sprintf("%s more years until normal retirement age %s", nra.Sub(person.Age), nra))
	}
	contribYears := person.EffectiveContributionYears()
	if contribYears.LessThan(minContrib) {
		res.IsEligible = false
		res.Missing = append(res.Missing, fmt.Sprintf("%s more contribution years needed (minimum %s)", minContrib.Sub(contribYears), minContrib))
	}

	return res
}

// earlyRetirementMultiplier is the actuarial reduction for claiming between
// the early and normal retirement ages: 0.5% per month early, floored at
// zero. Claiming before the early age, or where no early age exists, earns
// no benefit adjustment here; eligibility already flags it.
func (e *PensionEngine) earlyRetirementMultiplier(person domain.PersonProfile, result *domain.BenefitResult) decimal.Decimal {
	el := &result.Eligibility
	if person.Age.GreaterThanOrEqual(el.NormalRetirementAge) {
		return one
	}
	if el.EarlyRetirementAge == nil || person.Age.LessThan(*el.EarlyRetirementAge) {
		return one
	}
	monthsEarly := el.NormalRetirementAge.Sub(person.Age).Mul(decimal.NewFromInt(12))
	multiplier := decimal.Max(decimal.Zero, one.Sub(earlyReductionPerMonth.Mul(monthsEarly)))
	result.ReasoningTrace = append(result.ReasoningTrace, domain.ReasoningStep{
		Label:   "Early retirement reduction",
		Formula: fmt.Sprintf("1 - 0.005 x %s months early", monthsEarly),
		Value:   multiplier.StringFixed(4),
	})
	return multiplier
}

// aggregateFor applies the minimum-guarantee aggregation over an explicit
// scheme subset; the full-population aggregate delegates here with every
// active scheme.
func (e *PensionEngine) aggregateFor(schemes []*domain.SchemeComponent, breakdown map[string]decimal.Decimal) decimal.Decimal {
	mainTotal := decimal.Zero
	minGuarantee := decimal.Zero
	var minSchemeIDs []string

	for _, scheme := range schemes {
		val, ok := breakdown[scheme.SchemeID]
		if !ok {
			continue
		}
		if scheme.Type == domain.SchemeMinimum {
			minSchemeIDs = append(minSchemeIDs, scheme.SchemeID)
			minGuarantee = decimal.Max(minGuarantee, val)
		} else {
			mainTotal = mainTotal.Add(val)
		}
	}

	if minGuarantee.GreaterThan(mainTotal) && len(minSchemeIDs) > 0 {
		breakdown[minSchemeIDs[0]] = minGuarantee.Sub(mainTotal)
		for _, sid := range minSchemeIDs[1:] {
			breakdown[sid] = decimal.Zero
		}
	} else {
		for _, sid := range minSchemeIDs {
			breakdown[sid] = decimal.Zero
		}
	}

	return decimal.Max(mainTotal, minGuarantee)
}

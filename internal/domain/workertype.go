package domain

import "fmt"

// CoverageStatus describes how a worker category is covered by the system.
type CoverageStatus string

const (
	CoverageMandatory CoverageStatus = "mandatory"
	CoverageVoluntary CoverageStatus = "voluntary"
	CoverageExcluded  CoverageStatus = "excluded"
	CoverageUnknown   CoverageStatus = "unknown"
)

// WorkerTypeEligibilityOverride replaces scheme-level eligibility rules for a
// worker type. It is applied whole, not merged field by field with the scheme.
type WorkerTypeEligibilityOverride struct {
	NormalRetirementAgeMale   *SourcedValue `yaml:"normal_retirement_age_male,omitempty" json:"normal_retirement_age_male,omitempty"`
	NormalRetirementAgeFemale *SourcedValue `yaml:"normal_retirement_age_female,omitempty" json:"normal_retirement_age_female,omitempty"`
	EarlyRetirementAgeMale    *SourcedValue `yaml:"early_retirement_age_male,omitempty" json:"early_retirement_age_male,omitempty"`
	EarlyRetirementAgeFemale  *SourcedValue `yaml:"early_retirement_age_female,omitempty" json:"early_retirement_age_female,omitempty"`
	VestingYears              *SourcedValue `yaml:"vesting_years,omitempty" json:"vesting_years,omitempty"`
	MinimumContributionYears  *SourcedValue `yaml:"minimum_contribution_years,omitempty" json:"minimum_contribution_years,omitempty"`
	Notes                     string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// NormalRetirementAge returns the sex-specific NRA override.
func (o *WorkerTypeEligibilityOverride) NormalRetirementAge(sex string) *SourcedValue {
	if o == nil {
		return nil
	}
	if IsFemale(sex) {
		return o.NormalRetirementAgeFemale
	}
	return o.NormalRetirementAgeMale
}

// EarlyRetirementAge returns the sex-specific early retirement age override.
func (o *WorkerTypeEligibilityOverride) EarlyRetirementAge(sex string) *SourcedValue {
	if o == nil {
		return nil
	}
	if IsFemale(sex) {
		return o.EarlyRetirementAgeFemale
	}
	return o.EarlyRetirementAgeMale
}

// WorkerTypeContribOverride replaces scheme-level contribution rules.
type WorkerTypeContribOverride struct {
	EmployeeRate                  *SourcedValue `yaml:"employee_rate,omitempty" json:"employee_rate,omitempty"`
	EmployerRate                  *SourcedValue `yaml:"employer_rate,omitempty" json:"employer_rate,omitempty"`
	TotalRate                     *SourcedValue `yaml:"total_rate,omitempty" json:"total_rate,omitempty"`
	ContributionCeilingAWMultiple *SourcedValue `yaml:"contribution_ceiling_aw_multiple,omitempty" json:"contribution_ceiling_aw_multiple,omitempty"`
	Notes                         string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// SpecialProvisions records lump-sum, survivor, and similar side benefits.
type SpecialProvisions struct {
	LumpSum           string `yaml:"lump_sum,omitempty" json:"lump_sum,omitempty"`
	SurvivorBenefit   string `yaml:"survivor_benefit,omitempty" json:"survivor_benefit,omitempty"`
	DisabilityBenefit string `yaml:"disability_benefit,omitempty" json:"disability_benefit,omitempty"`
	PartialPension    string `yaml:"partial_pension,omitempty" json:"partial_pension,omitempty"`
	Notes             string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// WorkerTypeRules governs how one worker category is treated. A worker type
// may inherit from another via the Inherit field; descendants override the
// ancestor field by field on resolution.
type WorkerTypeRules struct {
	Label                 string                         `yaml:"label" json:"label"`
	CoverageStatus        CoverageStatus                 `yaml:"coverage_status" json:"coverage_status"`
	SchemeIDs             []string                       `yaml:"scheme_ids,omitempty" json:"scheme_ids,omitempty"`
	EligibilityOverride   *WorkerTypeEligibilityOverride `yaml:"eligibility_override,omitempty" json:"eligibility_override,omitempty"`
	ContributionsOverride *WorkerTypeContribOverride     `yaml:"contributions_override,omitempty" json:"contributions_override,omitempty"`
	SpecialProvisions     *SpecialProvisions             `yaml:"special_provisions,omitempty" json:"special_provisions,omitempty"`
	Inherit               string                         `yaml:"inherit,omitempty" json:"inherit,omitempty"`
	SourceCitation        string                         `yaml:"source_citation,omitempty" json:"source_citation,omitempty"`
	SourceURL             string                         `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	Notes                 string                         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// ResolveWorkerType returns a fully resolved copy of a worker type, folding
// the inherit chain root to leaf. Scalar fields on a descendant override the
// ancestor only when non-empty; scheme_ids and the nested override objects
// replace wholesale (last writer wins), never merge per sub-field. The
// resolved copy has Inherit cleared.
func (cp *CountryParams) ResolveWorkerType(wtID string) (WorkerTypeRules, error) {
	wt := cp.WorkerTypes
	if _, ok := wt[wtID]; !ok {
		return WorkerTypeRules{}, fmt.Errorf("worker_type %q not found", wtID)
	}

	// Resolution order: deepest ancestor first. The seen set guards against
	// cycles that slipped past load-time validation.
	var order []string
	seen := map[string]bool{}
	for current := wtID; current != "" && !seen[current]; {
		seen[current] = true
		order = append([]string{current}, order...)
		current = wt[current].Inherit
	}

	resolved := wt[order[0]]
	for _, tid := range order[1:] {
		resolved = overlayWorkerType(resolved, wt[tid])
	}
	resolved.Inherit = ""
	return resolved, nil
}

// overlayWorkerType folds one descendant onto an already-resolved base,
// producing a fresh value. Prefer the child's field when set, else keep the
// parent's.
func overlayWorkerType(base, child WorkerTypeRules) WorkerTypeRules {
	out := base
	if child.Label != "" {
		out.Label = child.Label
	}
	if child.CoverageStatus != "" {
		out.CoverageStatus = child.CoverageStatus
	}
	if child.SourceCitation != "" {
		out.SourceCitation = child.SourceCitation
	}
	if child.SourceURL != "" {
		out.SourceURL = child.SourceURL
	}
	if child.Notes != "" {
		out.Notes = child.Notes
	}
	if len(child.SchemeIDs) > 0 {
		out.SchemeIDs = append([]string(nil), child.SchemeIDs...)
	}
	if child.EligibilityOverride != nil {
		out.EligibilityOverride = child.EligibilityOverride
	}
	if child.ContributionsOverride != nil {
		out.ContributionsOverride = child.ContributionsOverride
	}
	if child.SpecialProvisions != nil {
		out.SpecialProvisions = child.SpecialProvisions
	}
	return out
}

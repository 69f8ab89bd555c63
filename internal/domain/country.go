package domain

import "strings"

// Modeling sexes. Life tables and retirement ages are sex-specific.
const (
	SexMale   = "male"
	SexFemale = "female"
	SexTotal  = "total"
)

// NormalizeSex maps common spellings onto the canonical sex constants.
func NormalizeSex(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "female", "women":
		return SexFemale
	case "t", "total", "both":
		return SexTotal
	default:
		return SexMale
	}
}

// IsFemale reports whether a sex string denotes female.
func IsFemale(sex string) bool { return NormalizeSex(sex) == SexFemale }

// CountryMetadata identifies a country parameter file.
type CountryMetadata struct {
	CountryName   string   `yaml:"country_name" json:"country_name"`
	ISO3          string   `yaml:"iso3" json:"iso3"`
	ISO2          string   `yaml:"iso2,omitempty" json:"iso2,omitempty"`
	Currency      string   `yaml:"currency" json:"currency"`
	CurrencyCode  string   `yaml:"currency_code" json:"currency_code"`
	ReferenceYear int      `yaml:"reference_year" json:"reference_year"`
	WBRegion      string   `yaml:"wb_region,omitempty" json:"wb_region,omitempty"`
	WBIncomeLevel string   `yaml:"wb_income_level,omitempty" json:"wb_income_level,omitempty"`
	UNLocationID  int      `yaml:"un_location_id,omitempty" json:"un_location_id,omitempty"`
	Sources       []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	LastReviewed  string   `yaml:"last_reviewed,omitempty" json:"last_reviewed,omitempty"`
}

// TaxAndContrib is the simplified tax treatment of pensions and contributions.
// SimplifiedNetRate is the primary knob: the effective combined tax plus
// employee-contribution rate on pension income (0.08 means 8% deducted).
type TaxAndContrib struct {
	WorkerSocialContribRate      *SourcedValue `yaml:"worker_social_contrib_rate,omitempty" json:"worker_social_contrib_rate,omitempty"`
	WorkerIncomeTaxTreatment     string        `yaml:"worker_income_tax_treatment,omitempty" json:"worker_income_tax_treatment,omitempty"`
	IncomeTaxOnPension           string        `yaml:"income_tax_on_pension,omitempty" json:"income_tax_on_pension,omitempty"`
	PensionerSocialContribRate   *SourcedValue `yaml:"pensioner_social_contrib_rate,omitempty" json:"pensioner_social_contrib_rate,omitempty"`
	PensionSpecificExemption     string        `yaml:"pension_specific_exemption,omitempty" json:"pension_specific_exemption,omitempty"`
	PensionTaxAllowanceAWMult    *SourcedValue `yaml:"pension_tax_allowance_aw_multiple,omitempty" json:"pension_tax_allowance_aw_multiple,omitempty"`
	SimplifiedNetRate            *SourcedValue `yaml:"simplified_net_rate,omitempty" json:"simplified_net_rate,omitempty"`
	Notes                        string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// AverageEarnings specifies where the average-wage numeraire comes from:
// an ILOSTAT series, a manual value, or both (series preferred).
type AverageEarnings struct {
	ILOStatSeriesID       string   `yaml:"ilostat_series_id,omitempty" json:"ilostat_series_id,omitempty"`
	ILOStatRefArea        string   `yaml:"ilostat_ref_area,omitempty" json:"ilostat_ref_area,omitempty"`
	ILOStatTransformation string   `yaml:"ilostat_transformation,omitempty" json:"ilostat_transformation,omitempty"`
	ManualValue           *float64 `yaml:"manual_value,omitempty" json:"manual_value,omitempty"`
	Currency              string   `yaml:"currency,omitempty" json:"currency,omitempty"`
	Year                  int      `yaml:"year,omitempty" json:"year,omitempty"`
	SourceCitation        string   `yaml:"source_citation" json:"source_citation"`
	SourceURL             string   `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	Notes                 string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// CountryParams is the root of a validated country parameter file. It is
// immutable for the duration of a calculation run.
type CountryParams struct {
	Metadata        CountryMetadata            `yaml:"metadata" json:"metadata"`
	Schemes         []SchemeComponent          `yaml:"schemes" json:"schemes"`
	Taxes           TaxAndContrib              `yaml:"taxes" json:"taxes"`
	AverageEarnings AverageEarnings            `yaml:"average_earnings" json:"average_earnings"`
	WorkerTypes     map[string]WorkerTypeRules `yaml:"worker_types,omitempty" json:"worker_types,omitempty"`
	Notes           string                     `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// SchemeByID returns the scheme with the given id, or nil.
func (cp *CountryParams) SchemeByID(id string) *SchemeComponent {
	for i := range cp.Schemes {
		if cp.Schemes[i].SchemeID == id {
			return &cp.Schemes[i]
		}
	}
	return nil
}

// ActiveSchemes returns the active schemes in file order.
func (cp *CountryParams) ActiveSchemes() []*SchemeComponent {
	var out []*SchemeComponent
	for i := range cp.Schemes {
		if cp.Schemes[i].IsActive() {
			out = append(out, &cp.Schemes[i])
		}
	}
	return out
}

// HasWorkerType reports whether the file defines the given worker type.
func (cp *CountryParams) HasWorkerType(id string) bool {
	_, ok := cp.WorkerTypes[id]
	return ok
}

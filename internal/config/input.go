package config

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

var decimalOne = decimal.NewFromInt(1)

// InputParser loads and validates country parameter files and modeling
// assumptions. Decoding is strict: unknown keys are an error, so typos in a
// hand-curated YAML file surface at load time instead of silently dropping a
// parameter.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadCountryParams loads one country parameter file.
func (ip *InputParser) LoadCountryParams(filename string) (*domain.CountryParams, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseCountryParams(data)
}

// ParseCountryParams decodes and validates raw YAML country parameters.
func (ip *InputParser) ParseCountryParams(data []byte) (*domain.CountryParams, error) {
	var params domain.CountryParams
	if err := strictDecode(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Scheme types are spelled inconsistently across sources; normalize
	// before validation so the enum check sees canonical values.
	for i := range params.Schemes {
		if canonical, ok := domain.NormalizeSchemeType(string(params.Schemes[i].Type)); ok {
			params.Schemes[i].Type = canonical
		}
	}

	if err := ip.ValidateCountryParams(&params); err != nil {
		return nil, fmt.Errorf("country parameter validation failed: %w", err)
	}
	return &params, nil
}

// LoadAssumptions loads modeling assumptions layered over the baseline:
// fields absent from the file keep their default values. An empty filename
// returns the pure baseline.
func (ip *InputParser) LoadAssumptions(filename string) (*domain.ModelingAssumptions, error) {
	asmp := domain.DefaultAssumptions()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		if err := strictDecode(data, &asmp); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := ip.ValidateAssumptions(&asmp); err != nil {
		return nil, fmt.Errorf("assumptions validation failed: %w", err)
	}
	return &asmp, nil
}

// ValidateCountryParams enforces the structural contract of a country file.
func (ip *InputParser) ValidateCountryParams(params *domain.CountryParams) error {
	if err := ip.validateMetadata(&params.Metadata); err != nil {
		return err
	}
	if len(params.Schemes) == 0 {
		return fmt.Errorf("at least one scheme is required")
	}

	seen := map[string]bool{}
	for i := range params.Schemes {
		scheme := &params.Schemes[i]
		if err := ip.validateScheme(scheme); err != nil {
			return fmt.Errorf("scheme %d (%s): %w", i, scheme.SchemeID, err)
		}
		if seen[scheme.SchemeID] {
			return fmt.Errorf("duplicate scheme_id %q", scheme.SchemeID)
		}
		seen[scheme.SchemeID] = true
	}

	if params.AverageEarnings.ILOStatSeriesID == "" && params.AverageEarnings.ManualValue == nil {
		return fmt.Errorf("average_earnings must name an ILOSTAT series or carry a manual_value")
	}

	if err := ip.validateWorkerTypes(params); err != nil {
		return err
	}

	if err := validateCitations(reflect.ValueOf(params), "country"); err != nil {
		return err
	}
	return nil
}

func (ip *InputParser) validateMetadata(md *domain.CountryMetadata) error {
	if md.CountryName == "" {
		return fmt.Errorf("metadata.country_name is required")
	}
	if len(md.ISO3) != 3 {
		return fmt.Errorf("metadata.iso3 must be a 3-letter code, got %q", md.ISO3)
	}
	if len(md.CurrencyCode) != 3 {
		return fmt.Errorf("metadata.currency_code must be a 3-letter code, got %q", md.CurrencyCode)
	}
	return nil
}

func (ip *InputParser) validateScheme(scheme *domain.SchemeComponent) error {
	if scheme.SchemeID == "" {
		return fmt.Errorf("scheme_id is required")
	}
	if strings.ContainsAny(scheme.SchemeID, " \t") {
		return fmt.Errorf("scheme_id %q must not contain whitespace", scheme.SchemeID)
	}
	if _, ok := domain.NormalizeSchemeType(string(scheme.Type)); !ok {
		return fmt.Errorf("unknown scheme type %q", scheme.Type)
	}

	// A declared contributions block needs at least one rate, whatever the
	// scheme type.
	if c := scheme.Contributions; c != nil {
		if c.EmployeeRate == nil && c.EmployerRate == nil && c.TotalRate == nil {
			return fmt.Errorf("contributions block requires employee_rate, employer_rate, or total_rate")
		}
	}

	// NDC and DC accumulate contributions, so the combined rate must also be
	// non-zero for the benefit to be computable.
	switch scheme.Type {
	case domain.SchemeNDC, domain.SchemeDC:
		if scheme.Contributions.EffectiveTotalRate().IsZero() {
			return fmt.Errorf("%s scheme requires at least one contribution rate", scheme.Type)
		}
	}
	return nil
}

func (ip *InputParser) validateWorkerTypes(params *domain.CountryParams) error {
	wt := params.WorkerTypes
	if len(wt) == 0 {
		return nil
	}
	if _, ok := wt["self_employed"]; !ok {
		return fmt.Errorf("worker_types must describe self_employed when present")
	}

	for id, rules := range wt {
		for _, sid := range rules.SchemeIDs {
			if params.SchemeByID(sid) == nil {
				return fmt.Errorf("worker_type %q references unknown scheme %q", id, sid)
			}
		}
		if rules.Inherit != "" {
			if _, ok := wt[rules.Inherit]; !ok {
				return fmt.Errorf("worker_type %q inherits from unknown type %q", id, rules.Inherit)
			}
		}
	}

	// Reject inheritance cycles up front; resolution guards against them
	// too, but a cycle is always an authoring mistake.
	for id := range wt {
		seen := map[string]bool{}
		for current := id; current != ""; current = wt[current].Inherit {
			if seen[current] {
				return fmt.Errorf("worker_type inheritance cycle through %q", current)
			}
			seen[current] = true
		}
	}
	return nil
}

// ValidateAssumptions sanity-checks the modeling baseline.
func (ip *InputParser) ValidateAssumptions(asmp *domain.ModelingAssumptions) error {
	if !asmp.CareerLength.IsPositive() {
		return fmt.Errorf("career_length must be positive")
	}
	if !asmp.ContributionDensity.IsPositive() || asmp.ContributionDensity.GreaterThan(decimalOne) {
		return fmt.Errorf("contribution_density must be in (0, 1]")
	}
	if asmp.DiscountRate.IsNegative() {
		return fmt.Errorf("discount_rate must not be negative")
	}
	if len(asmp.EarningsMultiples) == 0 {
		return fmt.Errorf("earnings_multiples must not be empty")
	}
	for _, m := range asmp.EarningsMultiples {
		if !m.IsPositive() {
			return fmt.Errorf("earnings_multiples must be positive, got %s", m)
		}
	}
	if asmp.DefaultRetirementAgeMale <= 0 || asmp.DefaultRetirementAgeFemale <= 0 {
		return fmt.Errorf("default retirement ages must be positive")
	}
	return nil
}

// strictDecode unmarshals YAML rejecting unknown fields.
func strictDecode(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// validateCitations walks the parameter tree and enforces the provenance
// contract on every SourcedValue it finds.
func validateCitations(v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if sv, ok := v.Interface().(*domain.SourcedValue); ok {
			if err := sv.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		}
		return validateCitations(v.Elem(), path)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			name := strings.SplitN(t.Field(i).Tag.Get("yaml"), ",", 2)[0]
			if name == "" {
				name = t.Field(i).Name
			}
			if err := validateCitations(v.Field(i), path+"."+name); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateCitations(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if err := validateCitations(v.MapIndex(key), fmt.Sprintf("%s[%v]", path, key.Interface())); err != nil {
				return err
			}
		}
	}
	return nil
}

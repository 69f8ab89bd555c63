package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

const validCountryYAML = `
metadata:
  country_name: Testland
  iso3: TST
  currency: Testmark
  currency_code: TSM
  reference_year: 2023
schemes:
  - scheme_id: db_main
    name: Earnings-related pension
    tier: first
    type: db
    coverage: employees
    eligibility:
      normal_retirement_age_male:
        value: 65
        source_citation: "Pension Act art. 8"
      normal_retirement_age_female:
        value: 65
        source_citation: "Pension Act art. 8"
      minimum_contribution_years:
        value: 15
        source_citation: "Pension Act art. 10"
    contributions:
      total_rate:
        value: 0.22
        source_citation: "Pension Act art. 20"
    benefits:
      accrual_rate_per_year:
        value: 0.02
        source_citation: "Pension Act art. 12"
  - scheme_id: min_guarantee
    name: Minimum pension
    tier: first
    type: minimum
    coverage: residents
    eligibility: {}
    benefits:
      minimum_benefit_aw_multiple:
        value: 0.25
        source_citation: "Pension Act art. 30"
taxes:
  simplified_net_rate:
    value: 0.1
    source_citation: "Tax Code art. 5"
average_earnings:
  ilostat_series_id: EAR_4MTH_SEX_ECO_CUR_NB
  ilostat_ref_area: TST
  source_citation: "ILOSTAT"
worker_types:
  private_employee:
    label: Private-sector employee
    coverage_status: mandatory
  self_employed:
    label: Self-employed
    coverage_status: voluntary
    inherit: private_employee
    scheme_ids: [db_main]
`

func parseValid(t *testing.T, mutate func(string) string) (*domain.CountryParams, error) {
	t.Helper()
	doc := validCountryYAML
	if mutate != nil {
		doc = mutate(doc)
	}
	return NewInputParser().ParseCountryParams([]byte(doc))
}

func TestParseCountryParams(t *testing.T) {
	params, err := parseValid(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "Testland", params.Metadata.CountryName)
	assert.Equal(t, "TST", params.Metadata.ISO3)
	require.Len(t, params.Schemes, 2)

	// Lowercase "db" in the file normalizes to the canonical enum.
	assert.Equal(t, domain.SchemeDB, params.Schemes[0].Type)
	assert.Equal(t, domain.SchemeMinimum, params.Schemes[1].Type)

	accrual, ok := params.Schemes[0].Benefits.AccrualRatePerYear.Decimal()
	require.True(t, ok)
	assert.Equal(t, "0.02", accrual.String())
	assert.Equal(t, "Pension Act art. 12", params.Schemes[0].Benefits.AccrualRatePerYear.SourceCitation)

	require.Contains(t, params.WorkerTypes, "self_employed")
	assert.Equal(t, "private_employee", params.WorkerTypes["self_employed"].Inherit)
}

func TestParseCountryParamsRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "unknown top-level key",
			mutate:  func(s string) string { return s + "\nextra_section: {}\n" },
			wantErr: "field extra_section not found",
		},
		{
			name:    "missing citation",
			mutate:  func(s string) string { return strings.Replace(s, `source_citation: "Pension Act art. 12"`, `source_citation: ""`, 1) },
			wantErr: "source_citation",
		},
		{
			name:    "duplicate scheme id",
			mutate:  func(s string) string { return strings.Replace(s, "scheme_id: min_guarantee", "scheme_id: db_main", 1) },
			wantErr: "duplicate scheme_id",
		},
		{
			name:    "whitespace in scheme id",
			mutate:  func(s string) string { return strings.Replace(s, "scheme_id: db_main", `scheme_id: "db main"`, 1) },
			wantErr: "whitespace",
		},
		{
			name:    "bad iso3",
			mutate:  func(s string) string { return strings.Replace(s, "iso3: TST", "iso3: TESTLAND", 1) },
			wantErr: "iso3",
		},
		{
			name:    "unknown scheme type",
			mutate:  func(s string) string { return strings.Replace(s, "type: db", "type: provident", 1) },
			wantErr: "unknown scheme type",
		},
		{
			name: "contributions block without any rate",
			mutate: func(s string) string {
				return strings.Replace(s, "total_rate:", "contribution_ceiling_aw_multiple:", 1)
			},
			wantErr: "contributions block requires",
		},
		{
			name: "no earnings source",
			mutate: func(s string) string {
				return strings.Replace(s, "ilostat_series_id: EAR_4MTH_SEX_ECO_CUR_NB", "ilostat_transformation: monthly_x12", 1)
			},
			wantErr: "average_earnings",
		},
		{
			name:    "worker type references unknown scheme",
			mutate:  func(s string) string { return strings.Replace(s, "scheme_ids: [db_main]", "scheme_ids: [ghost]", 1) },
			wantErr: "unknown scheme",
		},
		{
			name:    "inherit target missing",
			mutate:  func(s string) string { return strings.Replace(s, "inherit: private_employee", "inherit: nobody", 1) },
			wantErr: "inherits from unknown type",
		},
		{
			name: "self_employed required",
			mutate: func(s string) string {
				i := strings.Index(s, "  self_employed:")
				return s[:i]
			},
			wantErr: "self_employed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseValid(t, tt.mutate)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCountryParamsInheritanceCycle(t *testing.T) {
	mutate := func(s string) string {
		return s + `  looper:
    label: Looper
    coverage_status: mandatory
    inherit: looper
`
	}
	_, err := parseValid(t, mutate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestLoadCountryParamsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tst.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validCountryYAML), 0o644))

	params, err := NewInputParser().LoadCountryParams(path)
	require.NoError(t, err)
	assert.Equal(t, "TST", params.Metadata.ISO3)

	_, err = NewInputParser().LoadCountryParams(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAssumptionsDefaults(t *testing.T) {
	asmp, err := NewInputParser().LoadAssumptions("")
	require.NoError(t, err)
	assert.Equal(t, "40", asmp.CareerLength.String())
	assert.Equal(t, 65, asmp.DefaultRetirementAgeMale)
	assert.Len(t, asmp.EarningsMultiples, 6)
}

func TestLoadAssumptionsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asmp.yaml")
	doc := `
career_length: 45
discount_rate: 0.03
sex: female
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	asmp, err := NewInputParser().LoadAssumptions(path)
	require.NoError(t, err)

	assert.Equal(t, "45", asmp.CareerLength.String())
	assert.Equal(t, "0.03", asmp.DiscountRate.String())
	assert.Equal(t, "female", asmp.Sex)

	// Untouched fields keep the baseline.
	assert.Equal(t, "0.02", asmp.RealWageGrowth.String())
	assert.Equal(t, 110, asmp.MaxAgeForWealth)
}

func TestValidateAssumptions(t *testing.T) {
	parser := NewInputParser()

	asmp := domain.DefaultAssumptions()
	assert.NoError(t, parser.ValidateAssumptions(&asmp))

	bad := domain.DefaultAssumptions()
	bad.CareerLength = bad.CareerLength.Neg()
	assert.Error(t, parser.ValidateAssumptions(&bad))

	bad = domain.DefaultAssumptions()
	bad.ContributionDensity = decimalOne.Add(decimalOne)
	assert.Error(t, parser.ValidateAssumptions(&bad))

	bad = domain.DefaultAssumptions()
	bad.EarningsMultiples = nil
	assert.Error(t, parser.ValidateAssumptions(&bad))
}

package compare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func column(iso3, name string, nrrAtBenchmark float64) CountryColumn {
	return CountryColumn{
		ISO3:         iso3,
		CountryName:  name,
		CurrencyCode: "TSM",
		AverageWage:  d(10000),
		Results: []domain.PensionResult{
			{
				EarningsMultiple:     d(0.5),
				NetReplacementRate:   d(nrrAtBenchmark + 0.1),
				NetPensionLevel:      d((nrrAtBenchmark + 0.1) / 2),
				NetPensionWealth:     d(8),
				GrossReplacementRate: d(nrrAtBenchmark + 0.15),
			},
			{
				EarningsMultiple:     d(1),
				NetReplacementRate:   d(nrrAtBenchmark),
				NetPensionLevel:      d(nrrAtBenchmark),
				NetPensionWealth:     d(nrrAtBenchmark * 16),
				GrossReplacementRate: d(nrrAtBenchmark + 0.08),
				GrossPensionLevel:    d(nrrAtBenchmark + 0.08),
				GrossPensionWealth:   d((nrrAtBenchmark + 0.08) * 16),
			},
		},
	}
}

func sampleSet() *ComparisonSet {
	set := &ComparisonSet{
		Sex:               domain.SexMale,
		BenchmarkMultiple: decimal.NewFromInt(1),
		Baseline:          column("TST", "Testland", 0.72),
		Others: []CountryColumn{
			column("NBR", "Neighboria", 0.60),
		},
	}
	set.Deltas = computeDeltas(set.Baseline, set.Others, set.BenchmarkMultiple)
	return set
}

func TestResultAt(t *testing.T) {
	col := column("TST", "Testland", 0.72)

	r, ok := col.ResultAt(decimal.NewFromInt(1))
	require.True(t, ok)
	assert.True(t, r.NetReplacementRate.Equal(d(0.72)))

	_, ok = col.ResultAt(d(2.5))
	assert.False(t, ok)
}

func TestComputeDeltas(t *testing.T) {
	set := sampleSet()
	require.Len(t, set.Deltas, 1)

	delta := set.Deltas[0]
	assert.Equal(t, "NBR", delta.ISO3)
	assert.True(t, delta.NetReplacementRateDiff.Equal(d(-0.12)),
		"got %s", delta.NetReplacementRateDiff)
	assert.True(t, delta.NetPensionLevelDiff.Equal(d(-0.12)))
	// wealth scales with the rate in the fixture: (0.60-0.72)*16
	assert.True(t, delta.NetPensionWealthDiff.Equal(d(-1.92)),
		"got %s", delta.NetPensionWealthDiff)
}

func TestComputeDeltasMissingBenchmark(t *testing.T) {
	baseline := column("TST", "Testland", 0.72)
	baseline.Results = baseline.Results[:1] // drop the 1x AW row

	assert.Nil(t, computeDeltas(baseline, []CountryColumn{column("NBR", "Neighboria", 0.60)}, decimal.NewFromInt(1)))
}

func TestFormatTable(t *testing.T) {
	out, err := FormatSet(sampleSet(), "console")
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "Testland")
	assert.Contains(t, text, "Neighboria")
	assert.Contains(t, text, "72.0%")
	assert.Contains(t, text, "60.0%")
	assert.Contains(t, text, "VS TST")
	assert.Contains(t, text, "-12.0%")
}

func TestFormatCSV(t *testing.T) {
	out, err := FormatSet(sampleSet(), "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	// header + 2 rows per country
	require.Len(t, lines, 5)
	assert.Equal(t, "iso3,country,sex,earnings_multiple,gross_replacement_rate,net_replacement_rate,gross_pension_level,net_pension_level,gross_pension_wealth,net_pension_wealth", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "TST,Testland,male,0.5,"))
	assert.True(t, strings.HasPrefix(lines[3], "NBR,Neighboria,male,"))

	again, err := FormatSet(sampleSet(), "csv")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestFormatJSONAndUnknown(t *testing.T) {
	out, err := FormatSet(sampleSet(), "json")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"benchmark_multiple"`)

	_, err = FormatSet(sampleSet(), "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

const compareCountryYAML = `
metadata:
  country_name: %s
  iso3: %s
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
    contributions:
      total_rate:
        value: 0.22
        source_citation: "Pension Act art. 20"
    benefits:
      accrual_rate_per_year:
        value: %s
        source_citation: "Pension Act art. 12"
taxes:
  simplified_net_rate:
    value: 0.1
    source_citation: "Tax Code art. 5"
average_earnings:
  manual_value: 10000
  source_citation: "Statistics office yearbook 2023"
`

func writeCountryFile(t *testing.T, dir, name, iso3, accrual string) string {
	t.Helper()
	path := filepath.Join(dir, iso3+".yaml")
	doc := fmt.Sprintf(compareCountryYAML, name, iso3, accrual)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestCompareEndToEnd(t *testing.T) {
	dir := t.TempDir()
	base := writeCountryFile(t, dir, "Testland", "TST", "0.02")
	other := writeCountryFile(t, dir, "Neighboria", "NBR", "0.015")

	asmp := domain.DefaultAssumptions()
	engine := NewCompareEngine(nil, &asmp)

	set, err := engine.Compare(context.Background(), []string{base, other}, domain.SexMale)
	require.NoError(t, err)

	assert.Equal(t, "TST", set.Baseline.ISO3)
	require.Len(t, set.Others, 1)
	assert.Equal(t, "NBR", set.Others[0].ISO3)
	assert.True(t, set.Baseline.AverageWage.Equal(d(10000)))

	// 40y x 0.02 = 0.80 GRR vs 40y x 0.015 = 0.60 GRR at every multiple.
	baseR, ok := set.Baseline.ResultAt(decimal.NewFromInt(1))
	require.True(t, ok)
	assert.True(t, baseR.GrossReplacementRate.Equal(d(0.8)), "got %s", baseR.GrossReplacementRate)

	otherR, ok := set.Others[0].ResultAt(decimal.NewFromInt(1))
	require.True(t, ok)
	assert.True(t, otherR.GrossReplacementRate.Equal(d(0.6)), "got %s", otherR.GrossReplacementRate)

	// net rates carry the 10% simplified tax: 0.72 - 0.54 = 0.18 gap
	require.Len(t, set.Deltas, 1)
	assert.True(t, set.Deltas[0].NetReplacementRateDiff.Equal(d(-0.18)),
		"got %s", set.Deltas[0].NetReplacementRateDiff)
}

func TestCompareSkipsFailingCountry(t *testing.T) {
	dir := t.TempDir()
	base := writeCountryFile(t, dir, "Testland", "TST", "0.02")
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("metadata: {country_name: Brokenia}\n"), 0o644))
	other := writeCountryFile(t, dir, "Neighboria", "NBR", "0.015")

	asmp := domain.DefaultAssumptions()
	engine := NewCompareEngine(nil, &asmp)

	set, err := engine.Compare(context.Background(), []string{base, broken, other}, domain.SexMale)
	require.NoError(t, err, "one bad country must not abort the run")

	require.Len(t, set.Others, 1)
	assert.Equal(t, "NBR", set.Others[0].ISO3)
	require.Len(t, set.Skipped, 1)
	assert.Equal(t, broken, set.Skipped[0].File)
	assert.NotEmpty(t, set.Skipped[0].Reason)

	out, err := FormatSet(set, "console")
	require.NoError(t, err)
	assert.Contains(t, string(out), "SKIPPED")
	assert.Contains(t, string(out), "broken.yaml")
}

func TestCompareBaselineFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("metadata: {country_name: Brokenia}\n"), 0o644))
	other := writeCountryFile(t, dir, "Neighboria", "NBR", "0.015")

	asmp := domain.DefaultAssumptions()
	engine := NewCompareEngine(nil, &asmp)

	_, err := engine.Compare(context.Background(), []string{broken, other}, domain.SexMale)
	assert.ErrorContains(t, err, "baseline country")
}

func TestCompareNeedsTwoFiles(t *testing.T) {
	asmp := domain.DefaultAssumptions()
	engine := NewCompareEngine(nil, &asmp)

	_, err := engine.Compare(context.Background(), []string{"only-one.yaml"}, domain.SexMale)
	assert.ErrorContains(t, err, "at least two country files")
}

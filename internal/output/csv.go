package output

import (
	"bytes"
	"encoding/csv"
	"sort"
)

// CSVFormatter writes one row per earnings multiple, suitable for pasting
// into cross-country comparison sheets.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) FormatCountry(report *CountryReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{
		"iso3", "country", "sex", "earnings_multiple", "individual_wage", "average_wage",
		"gross_benefit", "net_benefit",
		"gross_replacement_rate", "net_replacement_rate",
		"gross_pension_level", "net_pension_level",
		"gross_pension_wealth", "net_pension_wealth",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range report.Results {
		row := []string{
			report.Country.ISO3,
			report.Country.CountryName,
			report.Sex,
			r.EarningsMultiple.String(),
			r.IndividualWage.StringFixed(2),
			r.AverageWage.StringFixed(2),
			r.GrossBenefit.StringFixed(2),
			r.NetBenefit.StringFixed(2),
			r.GrossReplacementRate.StringFixed(4),
			r.NetReplacementRate.StringFixed(4),
			r.GrossPensionLevel.StringFixed(4),
			r.NetPensionLevel.StringFixed(4),
			r.GrossPensionWealth.StringFixed(4),
			r.NetPensionWealth.StringFixed(4),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (CSVFormatter) FormatBenefit(report *BenefitReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	res := &report.Result
	if err := w.Write([]string{"field", "value"}); err != nil {
		return nil, err
	}
	rows := [][]string{
		{"iso3", report.Country.ISO3},
		{"worker_type", res.WorkerTypeID},
		{"eligible", boolString(res.Eligibility.IsEligible)},
		{"gross_benefit", res.GrossBenefit.StringFixed(2)},
		{"net_benefit", res.NetBenefit.StringFixed(2)},
		{"gross_replacement_rate", res.GrossReplacementRate.StringFixed(4)},
		{"net_replacement_rate", res.NetReplacementRate.StringFixed(4)},
	}

	// Deterministic component ordering keeps diffs stable.
	sids := make([]string, 0, len(res.ComponentBreakdown))
	for sid := range res.ComponentBreakdown {
		sids = append(sids, sid)
	}
	sort.Strings(sids)
	for _, sid := range sids {
		rows = append(rows, []string{"component:" + sid, res.ComponentBreakdown[sid].StringFixed(2)})
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

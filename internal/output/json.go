package output

import (
	json "github.com/goccy/go-json"
)

// JSONFormatter emits machine-readable reports for downstream tooling.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) FormatCountry(report *CountryReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func (JSONFormatter) FormatBenefit(report *BenefitReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

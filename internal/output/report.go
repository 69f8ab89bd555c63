package output

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// CountryReport is everything a formatter needs to render one country run.
type CountryReport struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Country     domain.CountryMetadata `json:"country"`

	AverageWage       decimal.Decimal `json:"average_wage"`
	AverageWageYear   int             `json:"average_wage_year,omitempty"`
	AverageWageSource string          `json:"average_wage_source,omitempty"`

	Sex     string                `json:"sex"`
	Results []domain.PensionResult `json:"results"`
}

// BenefitReport wraps a personalised calculation for rendering.
type BenefitReport struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Country     domain.CountryMetadata `json:"country"`
	AverageWage decimal.Decimal        `json:"average_wage"`
	Result      domain.BenefitResult   `json:"result"`
}

// NewCountryReport stamps a country run with identity and time.
func NewCountryReport(country domain.CountryMetadata, sex string, averageWage decimal.Decimal, results []domain.PensionResult) *CountryReport {
	return &CountryReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Country:     country,
		AverageWage: averageWage,
		Sex:         sex,
		Results:     results,
	}
}

// NewBenefitReport stamps a personalised run with identity and time.
func NewBenefitReport(country domain.CountryMetadata, averageWage decimal.Decimal, result domain.BenefitResult) *BenefitReport {
	return &BenefitReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Country:     country,
		AverageWage: averageWage,
		Result:      result,
	}
}

// Formatter renders reports into one output format.
type Formatter interface {
	Name() string
	FormatCountry(report *CountryReport) ([]byte, error)
	FormatBenefit(report *BenefitReport) ([]byte, error)
}

// NewFormatter returns the formatter for a format name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "console", "":
		return ConsoleFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (want console, csv, or json)", format)
	}
}

// FormatPercent renders a decimal ratio as a percentage with one decimal.
func FormatPercent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatAmount renders a currency amount with thousands grouping.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart := s[:len(s)-3]
	frac := s[len(s)-3:]

	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}
	out := string(grouped) + frac
	if neg {
		out = "-" + out
	}
	return out
}

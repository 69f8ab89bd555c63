package compare

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/output"
)

// FormatSet renders a comparison set in the named format.
func FormatSet(set *ComparisonSet, format string) ([]byte, error) {
	switch format {
	case "console", "":
		return []byte(formatTable(set)), nil
	case "csv":
		return formatCSV(set)
	case "json":
		return json.MarshalIndent(set, "", "  ")
	default:
		return nil, fmt.Errorf("unknown output format %q (want console, csv, or json)", format)
	}
}

func formatTable(set *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("CROSS-COUNTRY PENSION COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 86) + "\n")
	sb.WriteString(fmt.Sprintf("Baseline: %s (%s)   sex: %s   benchmark earner: %s x AW\n\n",
		set.Baseline.CountryName, set.Baseline.ISO3, set.Sex, set.BenchmarkMultiple))

	nameWidth := 24
	numWidth := 11
	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s\n",
		nameWidth, "Country",
		numWidth, "Gross RR",
		numWidth, "Net RR",
		numWidth, "Gross PL",
		numWidth, "Net PL",
		numWidth, "Net PW"))
	sb.WriteString(strings.Repeat("-", 86) + "\n")

	for _, col := range set.Columns() {
		r, ok := col.ResultAt(set.BenchmarkMultiple)
		if !ok {
			sb.WriteString(fmt.Sprintf("%-*s %s\n", nameWidth, col.CountryName, "(no benchmark result)"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s\n",
			nameWidth, truncate(col.CountryName, nameWidth),
			numWidth, output.FormatPercent(r.GrossReplacementRate),
			numWidth, output.FormatPercent(r.NetReplacementRate),
			numWidth, output.FormatPercent(r.GrossPensionLevel),
			numWidth, output.FormatPercent(r.NetPensionLevel),
			numWidth, r.NetPensionWealth.StringFixed(2)))
	}
	sb.WriteString(strings.Repeat("=", 86) + "\n")

	if len(set.Deltas) > 0 {
		sb.WriteString(fmt.Sprintf("\nVS %s\n", set.Baseline.ISO3))
		sb.WriteString(strings.Repeat("-", 86) + "\n")
		for _, d := range set.Deltas {
			sb.WriteString(fmt.Sprintf("%s:\n", d.ISO3))
			sb.WriteString(fmt.Sprintf("  Net replacement rate: %s%s\n",
				deltaSymbol(d.NetReplacementRateDiff), output.FormatPercent(d.NetReplacementRateDiff.Abs())))
			sb.WriteString(fmt.Sprintf("  Net pension level:    %s%s\n",
				deltaSymbol(d.NetPensionLevelDiff), output.FormatPercent(d.NetPensionLevelDiff.Abs())))
			sb.WriteString(fmt.Sprintf("  Net pension wealth:   %s%s x AW\n",
				deltaSymbol(d.NetPensionWealthDiff), d.NetPensionWealthDiff.Abs().StringFixed(2)))
		}
	}

	if len(set.Skipped) > 0 {
		sb.WriteString("\nSKIPPED\n")
		for _, s := range set.Skipped {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", s.File, s.Reason))
		}
	}

	return sb.String()
}

func formatCSV(set *ComparisonSet) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{
		"iso3", "country", "sex", "earnings_multiple",
		"gross_replacement_rate", "net_replacement_rate",
		"gross_pension_level", "net_pension_level",
		"gross_pension_wealth", "net_pension_wealth",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, col := range set.Columns() {
		for _, r := range col.Results {
			row := []string{
				col.ISO3,
				col.CountryName,
				set.Sex,
				r.EarningsMultiple.String(),
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
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func deltaSymbol(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-"
	}
	return "+"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

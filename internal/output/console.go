package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// ConsoleFormatter renders human-readable terminal reports.
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

// FormatCountry renders the indicator table across earnings multiples.
func (ConsoleFormatter) FormatCountry(report *CountryReport) ([]byte, error) {
	var b bytes.Buffer

	title := fmt.Sprintf("%s (%s) pension indicators", report.Country.CountryName, report.Country.ISO3)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("average wage %s %s (%s), sex %s, run %s",
		FormatAmount(report.AverageWage), report.Country.CurrencyCode, report.AverageWageSource, report.Sex, report.RunID)))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%-10s %14s %14s %8s %8s %8s %8s %8s %8s",
		"multiple", "gross", "net", "GRR", "NRR", "GPL", "NPL", "GPW", "NPW")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, r := range report.Results {
		row := fmt.Sprintf("%-10s %14s %14s %8s %8s %8s %8s %8s %8s",
			r.EarningsMultiple.String(),
			FormatAmount(r.GrossBenefit),
			FormatAmount(r.NetBenefit),
			FormatPercent(r.GrossReplacementRate),
			FormatPercent(r.NetReplacementRate),
			FormatPercent(r.GrossPensionLevel),
			FormatPercent(r.NetPensionLevel),
			r.GrossPensionWealth.StringFixed(2),
			r.NetPensionWealth.StringFixed(2),
		)
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("GRR/NRR: replacement rates; GPL/NPL: pension levels vs average wage; GPW/NPW: pension wealth in average-wage units"))
	b.WriteString("\n")

	return b.Bytes(), nil
}

// FormatBenefit renders the personalised result with its reasoning trace.
func (ConsoleFormatter) FormatBenefit(report *BenefitReport) ([]byte, error) {
	var b bytes.Buffer
	res := &report.Result

	title := fmt.Sprintf("%s (%s) personal benefit estimate", report.Country.CountryName, report.Country.ISO3)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("worker type %s, run %s", res.WorkerTypeID, report.RunID)))
	b.WriteString("\n\n")

	if res.Eligibility.IsEligible {
		b.WriteString(okStyle.Render("Eligible for benefits"))
	} else {
		b.WriteString(pendingStyle.Render("Not yet eligible"))
		for _, m := range res.Eligibility.Missing {
			b.WriteString("\n  " + pendingStyle.Render("- "+m))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Annual benefit"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  gross %s %s, net %s %s\n",
		FormatAmount(res.GrossBenefit), report.Country.CurrencyCode,
		FormatAmount(res.NetBenefit), report.Country.CurrencyCode)
	fmt.Fprintf(&b, "  replacement rate %s gross / %s net\n",
		FormatPercent(res.GrossReplacementRate), FormatPercent(res.NetReplacementRate))

	if len(res.ComponentBreakdown) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Components"))
		b.WriteString("\n")
		sids := make([]string, 0, len(res.ComponentBreakdown))
		for sid := range res.ComponentBreakdown {
			sids = append(sids, sid)
		}
		sort.Strings(sids)
		for _, sid := range sids {
			fmt.Fprintf(&b, "  %-24s %14s\n", sid, FormatAmount(res.ComponentBreakdown[sid]))
		}
	}

	if len(res.ReasoningTrace) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("How this was calculated"))
		b.WriteString("\n")
		for i, step := range res.ReasoningTrace {
			fmt.Fprintf(&b, "  %2d. %s: %s = %s\n", i+1, step.Label, step.Formula, step.Value)
			if step.Citation != "" {
				b.WriteString(dimStyle.Render(fmt.Sprintf("      source: %s", step.Citation)))
				b.WriteString("\n")
			}
		}
	}

	for _, w := range res.Warnings {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("warning: " + w))
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\n")
	}

	return b.Bytes(), nil
}

// RenderValidation prints a validation verdict for the validate command.
func RenderValidation(path string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s\n  %s\n", pendingStyle.Render("INVALID"), path, strings.TrimSpace(err.Error()))
	}
	return fmt.Sprintf("%s %s\n", okStyle.Render("OK"), path)
}

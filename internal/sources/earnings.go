package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// AverageWage is a resolved average-wage numeraire with its provenance.
type AverageWage struct {
	Value    decimal.Decimal
	Year     int
	Source   string
	Citation string
}

// ResolveAverageWage produces the annual average wage for a country. The
// ILOSTAT series is authoritative when configured; a failed fetch falls back
// to the curated manual value. A country with neither cannot be calculated,
// so that is the one fatal error in the data layer.
func ResolveAverageWage(ctx context.Context, params *domain.CountryParams, ilo *ILOStatClient, log zerolog.Logger) (AverageWage, error) {
	cfg := &params.AverageEarnings

	if cfg.ILOStatSeriesID != "" && ilo != nil {
		refArea := cfg.ILOStatRefArea
		if refArea == "" {
			refArea = params.Metadata.ISO3
		}
		obs, err := ilo.LatestEarnings(ctx, cfg.ILOStatSeriesID, refArea)
		if err == nil {
			annual, terr := applyTransformation(obs.Value, cfg.ILOStatTransformation)
			if terr != nil {
				return AverageWage{}, fmt.Errorf("average_earnings transformation: %w", terr)
			}
			return AverageWage{
				Value:    annual,
				Year:     obs.Year,
				Source:   fmt.Sprintf("ILOSTAT %s", cfg.ILOStatSeriesID),
				Citation: cfg.SourceCitation,
			}, nil
		}
		log.Warn().Err(err).Str("iso3", params.Metadata.ISO3).Str("series", cfg.ILOStatSeriesID).
			Msg("ILOSTAT fetch failed; falling back to manual average wage")
	}

	if cfg.ManualValue != nil {
		return AverageWage{
			Value:    decimal.NewFromFloat(*cfg.ManualValue),
			Year:     cfg.Year,
			Source:   "manual",
			Citation: cfg.SourceCitation,
		}, nil
	}

	return AverageWage{}, fmt.Errorf("average wage for %s unresolvable: no ILOSTAT data and no manual_value", params.Metadata.ISO3)
}

// applyTransformation converts a raw series value to annual terms from an
// expression like "x * 12" (monthly series) or "x / 1000" (series published
// in thousands). An empty expression is the identity.
func applyTransformation(value decimal.Decimal, expr string) (decimal.Decimal, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return value, nil
	}

	fields := strings.Fields(expr)
	if len(fields) != 3 || !strings.EqualFold(fields[0], "x") {
		return decimal.Decimal{}, fmt.Errorf("unsupported expression %q (want e.g. %q)", expr, "x * 12")
	}
	operand, err := decimal.NewFromString(fields[2])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad operand in %q: %w", expr, err)
	}

	switch fields[1] {
	case "*":
		return value.Mul(operand), nil
	case "/":
		if operand.IsZero() {
			return decimal.Decimal{}, fmt.Errorf("division by zero in %q", expr)
		}
		return value.Div(operand), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported operator %q in %q", fields[1], expr)
	}
}

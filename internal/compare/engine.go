package compare

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/calculation"
	"github.com/ramyzeid/pensions-panorama/internal/config"
	"github.com/ramyzeid/pensions-panorama/internal/domain"
	"github.com/ramyzeid/pensions-panorama/internal/sources"
)

// benchmarkMultiple is the earnings multiple at which countries are compared
// head to head: the average-wage worker.
var benchmarkMultiple = decimal.NewFromInt(1)

// CompareEngine runs the full indicator pipeline for several countries and
// lines the results up against a baseline.
type CompareEngine struct {
	Parser *config.InputParser
	Hub    *sources.Hub
	Asmp   *domain.ModelingAssumptions
	Log    zerolog.Logger
}

// NewCompareEngine creates a comparison engine. hub may be nil, in which case
// average wages must come from manual values and annuity factors fall back to
// life-expectancy approximations.
func NewCompareEngine(hub *sources.Hub, asmp *domain.ModelingAssumptions) *CompareEngine {
	return &CompareEngine{
		Parser: config.NewInputParser(),
		Hub:    hub,
		Asmp:   asmp,
		Log:    zerolog.Nop(),
	}
}

// Compare loads each country file, computes its indicator grid, and returns
// the set with deltas against the first file's country.
func (ce *CompareEngine) Compare(ctx context.Context, paths []string, sex string) (*ComparisonSet, error) {
	if len(paths) < 2 {
		return nil, fmt.Errorf("comparison needs at least two country files, got %d", len(paths))
	}
	sex = domain.NormalizeSex(sex)

	// The baseline anchors every delta, so its failure is fatal; any other
	// country failing is skipped with a warning and the run continues.
	baseline, err := ce.runCountry(ctx, paths[0], sex)
	if err != nil {
		return nil, fmt.Errorf("baseline country %s: %w", paths[0], err)
	}

	set := &ComparisonSet{
		Sex:               sex,
		BenchmarkMultiple: benchmarkMultiple,
		Baseline:          baseline,
	}
	for _, path := range paths[1:] {
		col, err := ce.runCountry(ctx, path, sex)
		if err != nil {
			ce.Log.Warn().Err(err).Str("file", path).Msg("skipping country")
			set.Skipped = append(set.Skipped, SkippedCountry{File: path, Reason: err.Error()})
			continue
		}
		set.Others = append(set.Others, col)
	}
	set.Deltas = computeDeltas(set.Baseline, set.Others, benchmarkMultiple)
	return set, nil
}

func (ce *CompareEngine) runCountry(ctx context.Context, path, sex string) (CountryColumn, error) {
	params, err := ce.Parser.LoadCountryParams(path)
	if err != nil {
		return CountryColumn{}, err
	}

	var ilo *sources.ILOStatClient
	var tables calculation.LifeTableSource
	if ce.Hub != nil {
		ilo = ce.Hub.ILOStat
		tables = ce.Hub.UNData
	}

	aw, err := sources.ResolveAverageWage(ctx, params, ilo, ce.Log)
	if err != nil {
		return CountryColumn{}, err
	}

	wealthCalc := calculation.NewPensionWealthCalculator(ce.Asmp, params.Metadata.ISO3, tables)
	wealthCalc.Log = ce.Log

	engine := calculation.NewPensionEngine(params, ce.Asmp, aw.Value).
		WithLogger(ce.Log).
		WithSurvivalFactor(wealthCalc.ComputeAnnuityFactor(ctx, sex))

	return CountryColumn{
		ISO3:              params.Metadata.ISO3,
		CountryName:       params.Metadata.CountryName,
		CurrencyCode:      params.Metadata.CurrencyCode,
		AverageWage:       aw.Value,
		AverageWageSource: aw.Source,
		Results:           engine.RunAllMultiples(nil, sex),
	}, nil
}

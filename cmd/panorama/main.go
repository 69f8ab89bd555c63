package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ramyzeid/pensions-panorama/internal/calculation"
	"github.com/ramyzeid/pensions-panorama/internal/compare"
	"github.com/ramyzeid/pensions-panorama/internal/config"
	"github.com/ramyzeid/pensions-panorama/internal/domain"
	"github.com/ramyzeid/pensions-panorama/internal/output"
	"github.com/ramyzeid/pensions-panorama/internal/sources"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "panorama",
	Short: "Comparative pension benefit indicators",
	Long: "panorama computes cross-country pension indicators (replacement rates,\n" +
		"pension levels, pension wealth) and personalised benefit estimates from\n" +
		"curated country parameter files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func main() {
	// A .env next to the binary sets PANORAMA_* without polluting the shell.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("assumptions", "", "modeling assumptions YAML (defaults to the built-in baseline)")
	rootCmd.PersistentFlags().String("format", "console", "output format: console, csv, or json")
	rootCmd.PersistentFlags().Bool("offline", os.Getenv("PANORAMA_OFFLINE") != "", "never touch the network; use cached API responses only")

	calculateCmd.Flags().String("sex", "", "modeling sex: male or female")
	calculateCmd.Flags().String("multiples", "", "comma-separated earnings multiples (e.g. 0.5,1,2)")
	calculateCmd.Flags().String("output", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(calculateCmd)

	benefitCmd.Flags().String("sex", "male", "sex: male or female")
	benefitCmd.Flags().Float64("age", 65, "current age in years")
	benefitCmd.Flags().Float64("service-years", 40, "years of service")
	benefitCmd.Flags().Float64("wage", 1, "wage (interpreted per --wage-unit)")
	benefitCmd.Flags().String("wage-unit", domain.WageUnitAWMultiple, "wage unit: currency or aw_multiple")
	benefitCmd.Flags().String("worker-type", "", "worker type id from the country file")
	benefitCmd.Flags().Float64("contribution-years", -1, "contribution years when different from service years")
	rootCmd.AddCommand(benefitCmd)

	wealthCmd.Flags().String("sex", "", "sex: male or female (default: both)")
	wealthCmd.Flags().Int("retirement-age", 0, "retirement age (default: the assumptions' sex-specific age)")
	rootCmd.AddCommand(wealthCmd)

	compareCmd.Flags().String("sex", "", "modeling sex: male or female")
	rootCmd.AddCommand(compareCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := zerolog.WarnLevel
	if raw := os.Getenv("PANORAMA_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [country-file]",
	Short: "Compute pension indicators across earnings multiples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadRunEnv(cmd, args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		sex, _ := cmd.Flags().GetString("sex")
		if sex == "" {
			sex = env.Asmp.Sex
		}
		sex = domain.NormalizeSex(sex)

		multiples, err := parseMultiples(cmd)
		if err != nil {
			return err
		}

		engine := env.newEngine(ctx, sex)
		results := engine.RunAllMultiples(multiples, sex)

		report := output.NewCountryReport(env.Params.Metadata, sex, env.AvgWage.Value, results)
		report.AverageWageYear = env.AvgWage.Year
		report.AverageWageSource = env.AvgWage.Source
		return emit(cmd, func(f output.Formatter) ([]byte, error) { return f.FormatCountry(report) })
	},
}

var benefitCmd = &cobra.Command{
	Use:   "benefit [country-file]",
	Short: "Estimate the benefit for one person",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadRunEnv(cmd, args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		person, err := personFromFlags(cmd)
		if err != nil {
			return err
		}

		engine := env.newEngine(ctx, person.Sex)
		result := engine.ComputeBenefit(person)

		report := output.NewBenefitReport(env.Params.Metadata, env.AvgWage.Value, result)
		return emit(cmd, func(f output.Formatter) ([]byte, error) { return f.FormatBenefit(report) })
	},
}

var wealthCmd = &cobra.Command{
	Use:   "wealth [country-file]",
	Short: "Show survival-weighted annuity factors",
	Long: "wealth prints the annuity factor used to convert annual pensions into\n" +
		"pension wealth, per sex, with the UN life-table source when reachable.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadRunEnv(cmd, args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		sexes := []string{domain.SexMale, domain.SexFemale}
		if flag, _ := cmd.Flags().GetString("sex"); flag != "" {
			sexes = []string{domain.NormalizeSex(flag)}
		}

		calc := calculation.NewPensionWealthCalculator(env.Asmp, env.Params.Metadata.ISO3, env.Tables())
		calc.Log = log
		ageFlag, _ := cmd.Flags().GetInt("retirement-age")
		for _, sex := range sexes {
			af := calc.ComputeAnnuityFactorAt(ctx, sex, ageFlag)
			fallback := calculation.FallbackAnnuityFactor(
				env.Asmp.LifeExpectancyAtRetirement(sex), env.Asmp.DiscountRate, env.Asmp.PensionIndexationRate)
			retAge := ageFlag
			if retAge <= 0 {
				retAge = env.Asmp.DefaultRetirementAge(sex)
			}

			le := "n/a"
			if ex, err := env.Hub.UNData.LifeExpectancyAtAge(ctx, env.Params.Metadata.ISO3, sex, retAge); err == nil {
				le = ex.StringFixed(1)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  retirement age %d  life expectancy %s  annuity factor %s  (fallback %s)\n",
				sex, retAge, le, af.StringFixed(4), fallback.StringFixed(4))
		}
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [baseline-country-file] [country-file...]",
	Short: "Compare pension indicators across countries",
	Long: "compare runs the full indicator grid for each country file and lines\n" +
		"the results up against the first file, the baseline, at the\n" +
		"average-wage benchmark.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		asmpFile, _ := cmd.Flags().GetString("assumptions")
		asmp, err := parser.LoadAssumptions(asmpFile)
		if err != nil {
			return err
		}

		sex, _ := cmd.Flags().GetString("sex")
		if sex == "" {
			sex = asmp.Sex
		}

		offline, _ := cmd.Flags().GetBool("offline")
		hub, err := sources.NewHub(cacheDir(), asmp.WPPYear, offline, log)
		if err != nil {
			return err
		}
		defer hub.Close()

		engine := compare.NewCompareEngine(hub, asmp)
		engine.Log = log
		set, err := engine.Compare(cmd.Context(), args, sex)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		body, err := compare.FormatSet(set, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [country-file...]",
	Short: "Validate country parameter files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		failed := 0
		for _, path := range args {
			_, err := parser.LoadCountryParams(path)
			fmt.Fprint(cmd.OutOrStdout(), output.RenderValidation(path, err))
			if err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

var contextCmd = &cobra.Command{
	Use:   "context [iso3]",
	Short: "Show demographic and economic context from the World Bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		iso3 := strings.ToUpper(args[0])
		if len(iso3) != 3 {
			return fmt.Errorf("expected a 3-letter ISO3 code, got %q", args[0])
		}

		asmp := domain.DefaultAssumptions()
		offline, _ := cmd.Flags().GetBool("offline")
		hub, err := sources.NewHub(cacheDir(), asmp.WPPYear, offline, log)
		if err != nil {
			return err
		}
		defer hub.Close()

		indicators := []struct {
			code  string
			label string
		}{
			{sources.WBIndicatorGDPPerCapita, "GDP per capita (LCU)"},
			{sources.WBIndicatorLifeExpectancy, "Life expectancy at birth"},
			{sources.WBIndicatorPop65Plus, "Population 65+ (%)"},
			{sources.WBIndicatorLaborForce, "Labor force"},
			{sources.WBIndicatorInflationCPI, "CPI inflation (%)"},
		}

		fmt.Fprintln(cmd.OutOrStdout(), iso3)
		for _, ind := range indicators {
			year, value, err := hub.WorldBank.LatestValue(ctx, iso3, ind.code)
			if err != nil {
				log.Warn().Err(err).Str("indicator", ind.code).Msg("indicator unavailable")
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-28s %14.2f  (%d)\n", ind.label, value, year)
		}
		return nil
	},
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "panorama %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), "go:", bi.GoVersion)
			}
		},
	}
}

// runEnv bundles everything a calculation command needs.
type runEnv struct {
	Params  *domain.CountryParams
	Asmp    *domain.ModelingAssumptions
	Hub     *sources.Hub
	AvgWage sources.AverageWage
}

func loadRunEnvNoWage(cmd *cobra.Command, countryFile string) (*runEnv, error) {
	parser := config.NewInputParser()
	params, err := parser.LoadCountryParams(countryFile)
	if err != nil {
		return nil, err
	}

	asmpFile, _ := cmd.Flags().GetString("assumptions")
	asmp, err := parser.LoadAssumptions(asmpFile)
	if err != nil {
		return nil, err
	}

	offline, _ := cmd.Flags().GetBool("offline")
	hub, err := sources.NewHub(cacheDir(), asmp.WPPYear, offline, log)
	if err != nil {
		return nil, err
	}
	return &runEnv{Params: params, Asmp: asmp, Hub: hub}, nil
}

func loadRunEnv(cmd *cobra.Command, countryFile string) (*runEnv, error) {
	env, err := loadRunEnvNoWage(cmd, countryFile)
	if err != nil {
		return nil, err
	}
	aw, err := sources.ResolveAverageWage(cmd.Context(), env.Params, env.Hub.ILOStat, log)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.AvgWage = aw
	log.Info().Str("iso3", env.Params.Metadata.ISO3).Str("source", aw.Source).
		Str("average_wage", aw.Value.StringFixed(2)).Msg("resolved average wage")
	return env, nil
}

// Tables returns the life-table source, nil in offline-degraded setups.
func (env *runEnv) Tables() calculation.LifeTableSource {
	return env.Hub.UNData
}

// newEngine builds the country engine with a survival-weighted annuity
// factor already resolved for the given sex.
func (env *runEnv) newEngine(ctx context.Context, sex string) *calculation.PensionEngine {
	engine := calculation.NewPensionEngine(env.Params, env.Asmp, env.AvgWage.Value).WithLogger(log)
	calc := calculation.NewPensionWealthCalculator(env.Asmp, env.Params.Metadata.ISO3, env.Tables())
	calc.Log = log
	engine.WithSurvivalFactor(calc.ComputeAnnuityFactor(ctx, sex))
	return engine
}

func (env *runEnv) Close() {
	if env.Hub != nil {
		env.Hub.Close()
	}
}

func cacheDir() string {
	if dir := os.Getenv("PANORAMA_CACHE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.cache/pensions-panorama"
}

func parseMultiples(cmd *cobra.Command) ([]decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("multiples")
	if raw == "" {
		return nil, nil
	}
	var out []decimal.Decimal
	for _, part := range strings.Split(raw, ",") {
		m, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad earnings multiple %q: %w", part, err)
		}
		if !m.IsPositive() {
			return nil, fmt.Errorf("earnings multiples must be positive, got %s", m)
		}
		out = append(out, m)
	}
	return out, nil
}

func personFromFlags(cmd *cobra.Command) (domain.PersonProfile, error) {
	sex, _ := cmd.Flags().GetString("sex")
	age, _ := cmd.Flags().GetFloat64("age")
	service, _ := cmd.Flags().GetFloat64("service-years")
	wage, _ := cmd.Flags().GetFloat64("wage")
	wageUnit, _ := cmd.Flags().GetString("wage-unit")
	workerType, _ := cmd.Flags().GetString("worker-type")
	contribYears, _ := cmd.Flags().GetFloat64("contribution-years")

	if wageUnit != domain.WageUnitCurrency && wageUnit != domain.WageUnitAWMultiple {
		return domain.PersonProfile{}, fmt.Errorf("wage-unit must be %q or %q", domain.WageUnitCurrency, domain.WageUnitAWMultiple)
	}
	if age < 0 || service < 0 || wage < 0 {
		return domain.PersonProfile{}, fmt.Errorf("age, service-years, and wage must not be negative")
	}

	person := domain.PersonProfile{
		Sex:          domain.NormalizeSex(sex),
		Age:          decimal.NewFromFloat(age),
		ServiceYears: decimal.NewFromFloat(service),
		Wage:         decimal.NewFromFloat(wage),
		WageUnit:     wageUnit,
		WorkerTypeID: workerType,
	}
	if contribYears >= 0 {
		cy := decimal.NewFromFloat(contribYears)
		person.ContributionYears = &cy
	}
	return person, nil
}

func emit(cmd *cobra.Command, render func(output.Formatter) ([]byte, error)) error {
	format, _ := cmd.Flags().GetString("format")
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	body, err := render(formatter)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return os.WriteFile(path, body, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}

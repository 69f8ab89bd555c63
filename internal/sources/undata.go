package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramyzeid/pensions-panorama/internal/domain"
)

// UN World Population Prospects data portal.
const (
	unDataBaseURL = "https://population.un.org/dataportalapi/api/v1"

	// Indicator codes
	unIndicatorSurvivors      = 58 // lx, survivors to exact age per 100 000 born
	unIndicatorLifeExpectancy = 61 // ex, remaining life expectancy at exact age

	// Medium-fertility projection variant
	unVariantMedium = 4
)

// UN sex dimension codes.
var unSexCodes = map[string]int{
	domain.SexMale:   1,
	domain.SexFemale: 2,
	domain.SexTotal:  3,
}

// UNDataClient reads cohort life tables from the UN WPP data portal. It is
// the preferred life-table source; callers fall back to assumption-based
// annuities when it is unreachable.
type UNDataClient struct {
	rc      *restClient
	baseURL string
	wppYear int
	log     zerolog.Logger

	// iso3 -> numeric UN location id, resolved lazily
	locations map[string]int
}

// NewUNDataClient builds a client querying the given WPP reference year.
func NewUNDataClient(rc *restClient, wppYear int, log zerolog.Logger) *UNDataClient {
	return &UNDataClient{
		rc:        rc,
		baseURL:   unDataBaseURL,
		wppYear:   wppYear,
		log:       log,
		locations: map[string]int{},
	}
}

type unLocation struct {
	ID   int    `json:"id"`
	ISO3 string `json:"iso3"`
	Name string `json:"name"`
}

type unDataRecord struct {
	TimeLabel string  `json:"timeLabel"`
	VariantID int     `json:"variantId"`
	SexID     int     `json:"sexId"`
	AgeStart  int     `json:"ageStart"`
	AgeLabel  string  `json:"ageLabel"`
	Value     float64 `json:"value"`
}

type unDataPage struct {
	Data       []unDataRecord `json:"data"`
	NextPage   string         `json:"nextPage"`
	Pages      int            `json:"pages"`
	PageNumber int            `json:"pageNumber"`
}

// LocationID resolves an ISO3 code to the portal's numeric location id.
func (c *UNDataClient) LocationID(ctx context.Context, iso3 string) (int, error) {
	if id, ok := c.locations[iso3]; ok {
		return id, nil
	}

	var locs []unLocation
	url := fmt.Sprintf("%s/locations/%s", c.baseURL, iso3)
	if err := c.rc.getJSON(ctx, url, &locs); err != nil {
		return 0, fmt.Errorf("failed to resolve UN location for %s: %w", iso3, err)
	}
	if len(locs) == 0 {
		return 0, fmt.Errorf("UN data portal knows no location %s", iso3)
	}

	c.locations[iso3] = locs[0].ID
	return locs[0].ID, nil
}

// LifeTable returns the survivor function (and remaining life expectancy) by
// single year of age for one sex, medium variant.
func (c *UNDataClient) LifeTable(ctx context.Context, iso3 string, sex string) ([]domain.LifeTableRow, error) {
	locID, err := c.LocationID(ctx, iso3)
	if err != nil {
		return nil, err
	}
	sexCode, ok := unSexCodes[domain.NormalizeSex(sex)]
	if !ok {
		sexCode = unSexCodes[domain.SexTotal]
	}

	lx, err := c.fetchIndicator(ctx, unIndicatorSurvivors, locID, sexCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch survivor function for %s: %w", iso3, err)
	}
	ex, err := c.fetchIndicator(ctx, unIndicatorLifeExpectancy, locID, sexCode)
	if err != nil {
		// The survivor function alone suffices for wealth calculations.
		c.log.Warn().Err(err).Str("iso3", iso3).Msg("life expectancy indicator unavailable")
		ex = map[int]decimal.Decimal{}
	}

	return mergeLifeTable(lx, ex), nil
}

// LifeExpectancyAtAge returns remaining life expectancy at an exact age.
func (c *UNDataClient) LifeExpectancyAtAge(ctx context.Context, iso3 string, sex string, age int) (decimal.Decimal, error) {
	locID, err := c.LocationID(ctx, iso3)
	if err != nil {
		return decimal.Decimal{}, err
	}
	sexCode, ok := unSexCodes[domain.NormalizeSex(sex)]
	if !ok {
		sexCode = unSexCodes[domain.SexTotal]
	}
	ex, err := c.fetchIndicator(ctx, unIndicatorLifeExpectancy, locID, sexCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if v, ok := ex[age]; ok {
		return v, nil
	}
	// single-year tables occasionally skip ages; take the nearest one
	bestAge, found := 0, false
	for a := range ex {
		if !found || abs(a-age) < abs(bestAge-age) {
			bestAge, found = a, true
		}
	}
	if !found {
		return decimal.Decimal{}, fmt.Errorf("no life expectancy near age %d for %s", age, iso3)
	}
	c.log.Warn().Str("iso3", iso3).Int("age", age).Int("nearest", bestAge).
		Msg("life expectancy age missing, using nearest")
	return ex[bestAge], nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SurvivalProbabilities implements the life-table source consumed by the
// pension wealth calculator.
func (c *UNDataClient) SurvivalProbabilities(ctx context.Context, iso3 string, sex string, retirementAge, maxAge int) ([]domain.SurvivalPoint, error) {
	table, err := c.LifeTable(ctx, iso3, sex)
	if err != nil {
		return nil, err
	}
	lx := map[int]decimal.Decimal{}
	for _, row := range table {
		lx[row.Age] = row.Lx
	}
	return survivalFromLifeTable(lx, retirementAge, maxAge)
}

// fetchIndicator pulls every page of one indicator for one location/sex and
// keys the values by exact age, medium variant only.
func (c *UNDataClient) fetchIndicator(ctx context.Context, indicator, locID, sexCode int) (map[int]decimal.Decimal, error) {
	values := map[int]decimal.Decimal{}

	url := fmt.Sprintf("%s/data/indicators/%d/locations/%d/start/%d/end/%d?pageSize=1000&sexes=%d",
		c.baseURL, indicator, locID, c.wppYear, c.wppYear, sexCode)
	for url != "" {
		var page unDataPage
		if err := c.rc.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		collectIndicatorPage(values, &page, sexCode)
		url = page.NextPage
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("indicator %d returned no medium-variant data", indicator)
	}
	return values, nil
}

// collectIndicatorPage folds one response page into the age-keyed map.
func collectIndicatorPage(values map[int]decimal.Decimal, page *unDataPage, sexCode int) {
	for _, rec := range page.Data {
		if rec.VariantID != unVariantMedium {
			continue
		}
		if rec.SexID != sexCode {
			continue
		}
		values[rec.AgeStart] = decimal.NewFromFloat(rec.Value)
	}
}

// mergeLifeTable joins the two indicators into age-ordered rows.
func mergeLifeTable(lx, ex map[int]decimal.Decimal) []domain.LifeTableRow {
	ages := make([]int, 0, len(lx))
	for age := range lx {
		ages = append(ages, age)
	}
	sort.Ints(ages)

	rows := make([]domain.LifeTableRow, 0, len(ages))
	for _, age := range ages {
		rows = append(rows, domain.LifeTableRow{Age: age, Lx: lx[age], Ex: ex[age]})
	}
	return rows
}

// survivalFromLifeTable conditions the survivor function on being alive at
// the retirement age: S(t) = lx(r+t) / lx(r). Ages missing from the table
// (beyond its horizon) terminate the series.
func survivalFromLifeTable(lx map[int]decimal.Decimal, retirementAge, maxAge int) ([]domain.SurvivalPoint, error) {
	base, ok := lx[retirementAge]
	if !ok || !base.IsPositive() {
		return nil, fmt.Errorf("life table has no survivors at age %d", retirementAge)
	}

	var points []domain.SurvivalPoint
	for age := retirementAge; age <= maxAge; age++ {
		v, ok := lx[age]
		if !ok {
			break
		}
		points = append(points, domain.SurvivalPoint{
			T:            age - retirementAge,
			Age:          age,
			Lx:           v,
			SurvivalProb: v.Div(base),
		})
	}
	return points, nil
}

package sources

import (
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// World Bank open data API.
const wbBaseURL = "https://api.worldbank.org/v2"

// Indicator codes used by the country context report.
const (
	WBIndicatorGDPPerCapita    = "NY.GDP.PCAP.CN"    // GDP per capita, current LCU
	WBIndicatorLaborForce      = "SL.TLF.TOTL.IN"    // labor force, total
	WBIndicatorPop65Plus       = "SP.POP.65UP.TO.ZS" // population 65+, % of total
	WBIndicatorLifeExpectancy  = "SP.DYN.LE00.IN"    // life expectancy at birth
	WBIndicatorInflationCPI    = "FP.CPI.TOTL.ZG"    // CPI inflation, annual %
)

// WorldBankClient reads development indicators from the World Bank API.
type WorldBankClient struct {
	rc      *restClient
	baseURL string
	log     zerolog.Logger
}

func NewWorldBankClient(rc *restClient, log zerolog.Logger) *WorldBankClient {
	return &WorldBankClient{rc: rc, baseURL: wbBaseURL, log: log}
}

type wbPageInfo struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type wbDataPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// FetchIndicator returns an indicator's values keyed by year. The API wraps
// every response in a two-element array: page metadata, then data.
func (c *WorldBankClient) FetchIndicator(ctx context.Context, iso3, indicator string) (map[int]float64, error) {
	values := map[int]float64{}

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=500&page=%d",
			c.baseURL, iso3, indicator, page)

		var raw []json.RawMessage
		if err := c.rc.getJSON(ctx, url, &raw); err != nil {
			return nil, fmt.Errorf("failed to fetch World Bank indicator %s for %s: %w", indicator, iso3, err)
		}
		if len(raw) < 2 {
			return nil, fmt.Errorf("World Bank indicator %s for %s: unexpected response shape", indicator, iso3)
		}

		var info wbPageInfo
		if err := json.Unmarshal(raw[0], &info); err != nil {
			return nil, fmt.Errorf("World Bank page metadata: %w", err)
		}
		var points []wbDataPoint
		if err := json.Unmarshal(raw[1], &points); err != nil {
			return nil, fmt.Errorf("World Bank data points: %w", err)
		}
		collectWBPoints(values, points)

		if info.Page >= info.Pages {
			break
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("World Bank indicator %s has no data for %s", indicator, iso3)
	}
	return values, nil
}

// LatestValue returns the most recent non-null observation of an indicator.
func (c *WorldBankClient) LatestValue(ctx context.Context, iso3, indicator string) (year int, value float64, err error) {
	values, err := c.FetchIndicator(ctx, iso3, indicator)
	if err != nil {
		return 0, 0, err
	}
	for y, v := range values {
		if y > year {
			year, value = y, v
		}
	}
	return year, value, nil
}

func collectWBPoints(values map[int]float64, points []wbDataPoint) {
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		year, err := strconv.Atoi(p.Date)
		if err != nil {
			continue
		}
		values[year] = *p.Value
	}
}

package sources

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ILOSTAT SDMX REST endpoint.
const iloBaseURL = "https://sdmx.ilo.org/rest"

// Default dimension selection: both sexes, whole economy, local currency.
const iloDimensionKey = "SEX_T.ECO_TOTAL.CUR_LCU"

// ILOStatClient reads earnings series from ILOSTAT's SDMX-JSON API.
type ILOStatClient struct {
	rc      *restClient
	baseURL string
	log     zerolog.Logger
}

func NewILOStatClient(rc *restClient, log zerolog.Logger) *ILOStatClient {
	return &ILOStatClient{rc: rc, baseURL: iloBaseURL, log: log}
}

// EarningsObservation is one year of an earnings series.
type EarningsObservation struct {
	Year  int
	Value decimal.Decimal
}

// SDMX-JSON response, trimmed to the parts we read. Observations are keyed
// by colon-joined dimension indices ("3" or "0:3"); the leading index points
// into the observation dimension values, which carry the time periods.
type sdmxResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]*float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
	Structure struct {
		Dimensions struct {
			Observation []struct {
				ID     string `json:"id"`
				Values []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"values"`
			} `json:"observation"`
		} `json:"dimensions"`
	} `json:"structure"`
}

// FetchEarningsSeries returns the recent observations of one earnings series
// for a reference area, oldest first.
func (c *ILOStatClient) FetchEarningsSeries(ctx context.Context, seriesID, refArea string) ([]EarningsObservation, error) {
	url := fmt.Sprintf("%s/data/ILO,DF_%s/%s.%s?format=jsondata&lastNObservations=5",
		c.baseURL, seriesID, refArea, iloDimensionKey)

	var resp sdmxResponse
	if err := c.rc.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch ILOSTAT series %s for %s: %w", seriesID, refArea, err)
	}

	obs, err := parseSDMXObservations(&resp)
	if err != nil {
		return nil, fmt.Errorf("ILOSTAT series %s for %s: %w", seriesID, refArea, err)
	}
	return obs, nil
}

// LatestEarnings returns the most recent observation of a series.
func (c *ILOStatClient) LatestEarnings(ctx context.Context, seriesID, refArea string) (EarningsObservation, error) {
	obs, err := c.FetchEarningsSeries(ctx, seriesID, refArea)
	if err != nil {
		return EarningsObservation{}, err
	}
	return obs[len(obs)-1], nil
}

// parseSDMXObservations flattens an SDMX-JSON message into year/value pairs.
func parseSDMXObservations(resp *sdmxResponse) ([]EarningsObservation, error) {
	if len(resp.DataSets) == 0 {
		return nil, fmt.Errorf("empty SDMX response")
	}

	// Find the TIME_PERIOD observation dimension; by convention it is the
	// only one, but the id check keeps us honest.
	var periods []string
	for _, dim := range resp.Structure.Dimensions.Observation {
		if dim.ID == "TIME_PERIOD" || len(resp.Structure.Dimensions.Observation) == 1 {
			for _, v := range dim.Values {
				periods = append(periods, v.ID)
			}
			break
		}
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("no TIME_PERIOD dimension in SDMX response")
	}

	byYear := map[int]decimal.Decimal{}
	for _, series := range resp.DataSets[0].Series {
		for key, vals := range series.Observations {
			if len(vals) == 0 || vals[0] == nil {
				continue
			}
			idx, err := strconv.Atoi(strings.SplitN(key, ":", 2)[0])
			if err != nil || idx < 0 || idx >= len(periods) || len(periods[idx]) < 4 {
				continue
			}
			year, err := strconv.Atoi(periods[idx][:4])
			if err != nil {
				continue
			}
			byYear[year] = decimal.NewFromFloat(*vals[0])
		}
	}
	if len(byYear) == 0 {
		return nil, fmt.Errorf("no observations in SDMX response")
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	obs := make([]EarningsObservation, 0, len(years))
	for _, y := range years {
		obs = append(obs, EarningsObservation{Year: y, Value: byYear[y]})
	}
	return obs, nil
}

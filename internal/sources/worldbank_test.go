package sources

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectWBPoints(t *testing.T) {
	payload := `[
		{"date": "2023", "value": 52000.5},
		{"date": "2022", "value": null},
		{"date": "2021", "value": 48000.0},
		{"date": "not-a-year", "value": 1.0}
	]`
	var points []wbDataPoint
	require.NoError(t, json.Unmarshal([]byte(payload), &points))

	values := map[int]float64{}
	collectWBPoints(values, points)

	require.Len(t, values, 2)
	assert.Equal(t, 52000.5, values[2023])
	assert.Equal(t, 48000.0, values[2021])
	_, ok := values[2022]
	assert.False(t, ok, "null observations must be skipped")
}

func TestWBResponseShape(t *testing.T) {
	// The API wraps responses in [pageInfo, rows].
	payload := `[
		{"page": 1, "pages": 1, "per_page": 500, "total": 2},
		[{"date": "2023", "value": 1.5}, {"date": "2022", "value": 1.25}]
	]`
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	require.Len(t, raw, 2)

	var info wbPageInfo
	require.NoError(t, json.Unmarshal(raw[0], &info))
	assert.Equal(t, 1, info.Pages)

	var points []wbDataPoint
	require.NoError(t, json.Unmarshal(raw[1], &points))
	assert.Len(t, points, 2)
}

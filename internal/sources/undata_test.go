package sources

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"
)

func TestCollectIndicatorPageFiltersVariantAndSex(t *testing.T) {
	payload := `{
		"data": [
			{"timeLabel": "2020", "variantId": 4, "sexId": 1, "ageStart": 65, "ageLabel": "65", "value": 85000},
			{"timeLabel": "2020", "variantId": 4, "sexId": 2, "ageStart": 65, "ageLabel": "65", "value": 90000},
			{"timeLabel": "2020", "variantId": 9, "sexId": 1, "ageStart": 66, "ageLabel": "66", "value": 84000},
			{"timeLabel": "2020", "variantId": 4, "sexId": 1, "ageStart": 66, "ageLabel": "66", "value": 83500}
		],
		"nextPage": "",
		"pages": 1,
		"pageNumber": 1
	}`
	var page unDataPage
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	values := map[int]decimal.Decimal{}
	collectIndicatorPage(values, &page, 1)

	require.Len(t, values, 2, "female and non-medium records must be dropped")
	assert.Equal(t, "85000", values[65].String())
	assert.Equal(t, "83500", values[66].String())
}

func TestSurvivalFromLifeTable(t *testing.T) {
	lx := map[int]decimal.Decimal{
		65: decimal.NewFromInt(80000),
		66: decimal.NewFromInt(78000),
		67: decimal.NewFromInt(76000),
	}

	points, err := survivalFromLifeTable(lx, 65, 110)
	require.NoError(t, err)
	require.Len(t, points, 3, "series stops where the table ends")

	assert.Equal(t, 0, points[0].T)
	assert.True(t, points[0].SurvivalProb.Equal(decimal.NewFromInt(1)), "S(0) must be exactly 1")

	assert.Equal(t, 67, points[2].Age)
	assert.Equal(t, "0.95", points[2].SurvivalProb.String())

	// Survival is non-increasing.
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].SurvivalProb.LessThanOrEqual(points[i-1].SurvivalProb))
	}
}

func TestSurvivalFromLifeTableMissingRetirementAge(t *testing.T) {
	lx := map[int]decimal.Decimal{70: decimal.NewFromInt(70000)}
	_, err := survivalFromLifeTable(lx, 65, 110)
	assert.Error(t, err)

	_, err = survivalFromLifeTable(map[int]decimal.Decimal{65: decimal.Zero}, 65, 110)
	assert.Error(t, err, "zero survivors cannot condition the series")
}

func TestSurvivalFromLifeTableRespectsMaxAge(t *testing.T) {
	lx := map[int]decimal.Decimal{}
	for age := 65; age <= 100; age++ {
		lx[age] = decimal.NewFromInt(int64(100000 - age*500))
	}
	points, err := survivalFromLifeTable(lx, 65, 70)
	require.NoError(t, err)
	assert.Len(t, points, 6)
	assert.Equal(t, 70, points[len(points)-1].Age)
}

func TestMergeLifeTable(t *testing.T) {
	lx := map[int]decimal.Decimal{
		66: decimal.NewFromInt(78000),
		65: decimal.NewFromInt(80000),
	}
	ex := map[int]decimal.Decimal{
		65: decimal.NewFromFloat(18.3),
	}

	rows := mergeLifeTable(lx, ex)
	require.Len(t, rows, 2)
	assert.Equal(t, 65, rows[0].Age, "rows must come out age-ordered")
	assert.Equal(t, "18.3", rows[0].Ex.String())
	assert.True(t, rows[1].Ex.IsZero(), "missing expectancy stays zero")
}

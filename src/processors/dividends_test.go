package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

func TestProjectBuildsCalendar(t *testing.T) {
	positions := []models.PositionRow{
		{Symbol: "VDY.TO", Currency: "CAD", Quantity: 100},
		{Symbol: "AAPL", Currency: "USD", Quantity: 10},
		{Symbol: "GROWTH", Currency: "USD", Quantity: 50}, // No dividend
	}
	info := map[string]models.DividendInfo{
		"VDY.TO": {Symbol: "VDY.TO", Rate: 0.10, Frequency: "Monthly", Months: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, Currency: "CAD"},
		"AAPL":   {Symbol: "AAPL", Rate: 0.25, Frequency: "Quarterly", Months: []int{2, 5, 8, 11}, Currency: "USD"},
	}
	rates := map[string]float64{"USD": 1.35}

	projection := NewDividendProjector("CAD").Project(positions, info, rates)

	// VDY: 100 * 0.10 * 12 = 120 CAD; AAPL: 10 * 0.25 * 4 * 1.35 = 13.50 CAD
	assert.InDelta(t, 133.50, projection.TotalAnnualRpt, 1e-9)
	assert.InDelta(t, 133.50/12, projection.MonthlyAverageRpt, 1e-9)

	require.Len(t, projection.Calendar, 12)
	jan := projection.Calendar[0]
	assert.Equal(t, "Jan", jan.Month)
	assert.InDelta(t, 10.0, jan.Total, 1e-9) // VDY only
	feb := projection.Calendar[1]
	assert.InDelta(t, 10.0+10*0.25*1.35, feb.Total, 1e-9) // VDY + AAPL

	// Holdings sorted by annual payout, largest first.
	require.Len(t, projection.Holdings, 2)
	assert.Equal(t, "VDY.TO", projection.Holdings[0].Symbol)
}

func TestProjectUnknownMonthsFallBackOnFrequency(t *testing.T) {
	positions := []models.PositionRow{{Symbol: "XEI.TO", Currency: "CAD", Quantity: 10}}
	info := map[string]models.DividendInfo{
		"XEI.TO": {Symbol: "XEI.TO", Rate: 0.08, Frequency: "Quarterly", Currency: "CAD"},
	}

	projection := NewDividendProjector("CAD").Project(positions, info, nil)

	assert.InDelta(t, 10*0.08*4, projection.TotalAnnualRpt, 1e-9)
	// No known payment months means an empty calendar, not an invented one.
	for _, month := range projection.Calendar {
		assert.Empty(t, month.Breakdown)
	}
}

func TestProjectSkipsZeroRates(t *testing.T) {
	positions := []models.PositionRow{{Symbol: "GROWTH", Currency: "USD", Quantity: 100}}
	info := map[string]models.DividendInfo{"GROWTH": {Symbol: "GROWTH", Rate: 0}}

	projection := NewDividendProjector("CAD").Project(positions, info, nil)
	assert.Zero(t, projection.TotalAnnualRpt)
	assert.Empty(t, projection.Holdings)
}

package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

var testNow = day("2025-01-02")

func lot(symbol, broker, accountType string, qty, cost float64, currency, opened string) models.Lot {
	return models.Lot{
		Key:        models.AccountKey{Symbol: symbol, Broker: broker, AccountType: accountType},
		OpenedDate: day(opened),
		Quantity:   decimal.NewFromFloat(qty),
		Cost:       decimal.NewFromFloat(cost),
		Currency:   currency,
	}
}

func TestAggregateMergesAcrossAccounts(t *testing.T) {
	lots := []models.Lot{
		lot("AAPL", "CIBC", "RRSP", 10, 1000, "USD", "2024-01-02"),
		lot("AAPL", "RBC", "TFSA", 5, 600, "USD", "2024-03-01"),
	}
	agg := NewPositionAggregator("CAD", testNow)
	rows := agg.Aggregate(lots, map[string]float64{"AAPL": 150}, map[string]float64{"USD": 1.35}, PositionFilter{})

	require.Len(t, rows, 1)
	row := rows[0]
	assert.InDelta(t, 15.0, row.Quantity, 1e-9)
	assert.InDelta(t, 1600.0, row.CostBasis, 1e-9)
	assert.InDelta(t, 1600.0/15, row.WeightedAvgCost, 1e-9)
	assert.InDelta(t, 2250.0, row.MarketValue, 1e-9)
	assert.InDelta(t, 650.0, row.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 650.0/1600.0*100, row.UnrealizedPnLPct, 1e-9)
	assert.InDelta(t, 2250.0*1.35, row.MarketValueRpt, 1e-9)
	assert.Equal(t, day("2024-01-02"), row.FirstBuyDate)

	require.Len(t, row.Accounts, 2)
	assert.Equal(t, "CIBC", row.Accounts[0].Broker)
	assert.InDelta(t, 10.0, row.Accounts[0].Quantity, 1e-9)
	assert.Equal(t, "RBC", row.Accounts[1].Broker)
}

func TestAggregateMergeIsGroupingOrderIndependent(t *testing.T) {
	a := lot("VDY.TO", "CIBC", "RRSP", 10, 400, "CAD", "2024-01-02")
	b := lot("VDY.TO", "CIBC", "RRSP", 20, 850, "CAD", "2024-02-02")
	c := lot("VDY.TO", "RBC", "TFSA", 5, 230, "CAD", "2024-03-02")

	agg := NewPositionAggregator("CAD", testNow)
	orderings := [][]models.Lot{
		{a, b, c},
		{c, a, b},
		{b, c, a},
	}
	var first models.PositionRow
	for i, lots := range orderings {
		rows := agg.Aggregate(lots, nil, nil, PositionFilter{})
		require.Len(t, rows, 1)
		if i == 0 {
			first = rows[0]
			continue
		}
		assert.InDelta(t, first.WeightedAvgCost, rows[0].WeightedAvgCost, 1e-9)
		assert.InDelta(t, first.Quantity, rows[0].Quantity, 1e-9)
		assert.InDelta(t, first.CostBasis, rows[0].CostBasis, 1e-9)
	}
}

func TestAggregateFilterAppliesBeforeMerging(t *testing.T) {
	lots := []models.Lot{
		lot("AAPL", "CIBC", "RRSP", 10, 1000, "USD", "2024-01-02"),
		lot("AAPL", "RBC", "TFSA", 5, 600, "USD", "2024-03-01"),
	}
	agg := NewPositionAggregator("CAD", testNow)
	rows := agg.Aggregate(lots, map[string]float64{"AAPL": 150}, nil, PositionFilter{Broker: "RBC"})

	require.Len(t, rows, 1)
	assert.InDelta(t, 5.0, rows[0].Quantity, 1e-9)
	assert.InDelta(t, 600.0, rows[0].CostBasis, 1e-9)
	require.Len(t, rows[0].Accounts, 1)
	assert.Equal(t, "RBC", rows[0].Accounts[0].Broker)
	// Filtered totals come from the selected lots alone
	assert.Equal(t, day("2024-03-01"), rows[0].FirstBuyDate)
}

func TestAggregateMissingPriceCarriedAtCost(t *testing.T) {
	lots := []models.Lot{lot("DELISTED", "CIBC", "RRSP", 10, 500, "CAD", "2024-01-02")}
	agg := NewPositionAggregator("CAD", testNow)
	rows := agg.Aggregate(lots, map[string]float64{}, nil, PositionFilter{})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].NoPrice)
	assert.InDelta(t, 500.0, rows[0].MarketValue, 1e-9)
	assert.InDelta(t, 0.0, rows[0].UnrealizedPnL, 1e-9)
}

func TestAggregateZeroBasisFlagged(t *testing.T) {
	lots := []models.Lot{lot("FREE", "CIBC", "RRSP", 10, 0, "CAD", "2024-01-02")}
	agg := NewPositionAggregator("CAD", testNow)
	rows := agg.Aggregate(lots, map[string]float64{"FREE": 2}, nil, PositionFilter{})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].NoBasis, "zero basis is flagged, not reported as a fake percentage")
	assert.Equal(t, 0.0, rows[0].UnrealizedPnLPct)
}

func TestAggregateMissingRateDefaultsToUnity(t *testing.T) {
	lots := []models.Lot{lot("AAPL", "CIBC", "RRSP", 10, 1000, "USD", "2024-01-02")}
	agg := NewPositionAggregator("CAD", testNow)
	rows := agg.Aggregate(lots, map[string]float64{"AAPL": 120}, map[string]float64{}, PositionFilter{})

	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0].FxRate)
	assert.InDelta(t, rows[0].MarketValue, rows[0].MarketValueRpt, 1e-9)
}

func TestAnnualizedReturnGuards(t *testing.T) {
	assert.Equal(t, 0.0, annualizedReturn(0, 100, 365))
	assert.Equal(t, -1.0, annualizedReturn(100, 0, 365))
	assert.InDelta(t, 0.10, annualizedReturn(1000, 1100, 365), 1e-9)
}

func TestDaysHeldMinimumOneDay(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, daysHeld(now, now))
}

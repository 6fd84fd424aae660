package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func buy(symbol string, qty, price, commission float64, date string) models.Transaction {
	return models.Transaction{
		Symbol: symbol, Side: models.SideBuy, Quantity: qty, Price: price,
		Commission: commission, TradeDate: day(date), Currency: "USD",
	}
}

func sell(symbol string, qty, price, commission float64, date string) models.Transaction {
	return models.Transaction{
		Symbol: symbol, Side: models.SideSell, Quantity: qty, Price: price,
		Commission: commission, TradeDate: day(date), Currency: "USD",
	}
}

func TestPartialLotSale(t *testing.T) {
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("AAPL", 10, 100, 5, "2024-01-02"),
		sell("AAPL", 4, 120, 0, "2024-02-01"),
	})

	require.Empty(t, oversells)
	require.Len(t, realized, 1)

	rec := realized[0]
	assert.InDelta(t, 402.0, rec.CostBasisSold, 1e-9)
	assert.InDelta(t, 480.0, rec.Proceeds, 1e-9)
	assert.InDelta(t, 78.0, rec.PnLAmount, 1e-9)
	require.NotNil(t, rec.PnLPct)
	assert.InDelta(t, 78.0/402.0*100, *rec.PnLPct, 1e-9)

	lots := tracker.OpenLots()
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, lots[0].UnitCost().Equal(decimal.RequireFromString("100.5")),
		"unit cost should stay 100.5 after the partial sale, got %s", lots[0].UnitCost())
}

func TestSellSpanningTwoLots(t *testing.T) {
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("MSFT", 10, 50, 0, "2024-01-02"),
		buy("MSFT", 10, 70, 0, "2024-01-10"),
		sell("MSFT", 15, 80, 0, "2024-03-01"),
	})

	require.Empty(t, oversells)
	require.Len(t, realized, 1, "one sell emits one record even across lots")

	rec := realized[0]
	assert.InDelta(t, 850.0, rec.CostBasisSold, 1e-9)
	assert.InDelta(t, 1200.0, rec.Proceeds, 1e-9)
	assert.InDelta(t, 350.0, rec.PnLAmount, 1e-9)

	lots := tracker.OpenLots()
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, lots[0].UnitCost().Equal(decimal.NewFromInt(70)))
}

func TestOversellRejectedWhole(t *testing.T) {
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("VDY.TO", 3, 40, 0, "2024-01-02"),
		sell("VDY.TO", 5, 45, 0, "2024-02-01"),
	})

	assert.Empty(t, realized)
	require.Len(t, oversells, 1)
	assert.Equal(t, 5.0, oversells[0].Requested)
	assert.Equal(t, 3.0, oversells[0].Available)

	// The failing sell must not touch the queue.
	lots := tracker.OpenLots()
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestOversellIsolatedPerKey(t *testing.T) {
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("AAPL", 10, 100, 0, "2024-01-02"),
		sell("GME", 5, 20, 0, "2024-01-15"),
		sell("AAPL", 10, 110, 0, "2024-02-01"),
	})

	// The bad GME sell must not stop the AAPL sell from matching.
	require.Len(t, oversells, 1)
	assert.Equal(t, "GME", oversells[0].Key.Symbol)
	require.Len(t, realized, 1)
	assert.Equal(t, "AAPL", realized[0].Symbol)
	assert.InDelta(t, 100.0, realized[0].PnLAmount, 1e-9)
}

func TestCostBasisConservation(t *testing.T) {
	tracker := NewLotTracker()
	txs := []models.Transaction{
		buy("XEI.TO", 100, 25.10, 9.95, "2023-05-01"),
		buy("XEI.TO", 50, 26.40, 9.95, "2023-08-15"),
		sell("XEI.TO", 70, 27.00, 9.95, "2023-11-20"),
		buy("XEI.TO", 25, 24.80, 0, "2024-02-10"),
		sell("XEI.TO", 60, 25.50, 9.95, "2024-04-05"),
	}
	realized, oversells := tracker.Process(txs)
	require.Empty(t, oversells)

	totalBuyCost := 0.0
	for _, tx := range txs {
		if tx.Side == models.SideBuy {
			totalBuyCost += tx.Quantity*tx.Price + tx.Commission
		}
	}
	soldCost := 0.0
	for _, rec := range realized {
		soldCost += rec.CostBasisSold
	}
	openCost := 0.0
	for _, lot := range tracker.OpenLots() {
		c, _ := lot.Cost.Float64()
		openCost += c
	}
	assert.InDelta(t, totalBuyCost, soldCost+openCost, 1e-6,
		"cost basis of buys must equal realized cost basis plus open cost basis")
}

func TestSameDayKeepsLedgerOrder(t *testing.T) {
	// Two buys at different prices on the same day, then a sell of exactly
	// the first buy's quantity: FIFO must consume the row that appears first
	// in the ledger.
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("TD.TO", 10, 80, 0, "2024-06-03"),
		buy("TD.TO", 10, 90, 0, "2024-06-03"),
		sell("TD.TO", 10, 95, 0, "2024-06-10"),
	})

	require.Empty(t, oversells)
	require.Len(t, realized, 1)
	assert.InDelta(t, 800.0, realized[0].CostBasisSold, 1e-9)

	lots := tracker.OpenLots()
	require.Len(t, lots, 1)
	assert.True(t, lots[0].UnitCost().Equal(decimal.NewFromInt(90)))
}

func TestLotsNeverCrossAccounts(t *testing.T) {
	rrspBuy := buy("CM.TO", 10, 60, 0, "2024-01-02")
	rrspBuy.Broker = "CIBC"
	rrspBuy.AccountType = "RRSP"

	tfsaSell := sell("CM.TO", 5, 65, 0, "2024-02-01")
	tfsaSell.Broker = "CIBC"
	tfsaSell.AccountType = "TFSA"

	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{rrspBuy, tfsaSell})

	assert.Empty(t, realized)
	require.Len(t, oversells, 1)
	assert.Equal(t, "TFSA", oversells[0].Key.AccountType)
}

func TestZeroCostBasisSellHasNilPct(t *testing.T) {
	tracker := NewLotTracker()
	realized, oversells := tracker.Process([]models.Transaction{
		buy("FREE", 10, 0, 0, "2024-01-02"),
		sell("FREE", 10, 5, 0, "2024-02-01"),
	})

	require.Empty(t, oversells)
	require.Len(t, realized, 1)
	assert.InDelta(t, 50.0, realized[0].PnLAmount, 1e-9)
	assert.Nil(t, realized[0].PnLPct, "undefined percentage must be nil, not 0")
}

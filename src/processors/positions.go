package processors

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// PositionFilter restricts aggregation to a broker and/or account-type
// subset. Filters apply before merging, so filtered totals are computed from
// the selected lots directly rather than by subtracting aggregates.
type PositionFilter struct {
	Broker      string
	AccountType string
}

func (f PositionFilter) matches(key models.AccountKey) bool {
	if f.Broker != "" && key.Broker != f.Broker {
		return false
	}
	if f.AccountType != "" && key.AccountType != f.AccountType {
		return false
	}
	return true
}

// PositionAggregator merges open lots into one consolidated row per symbol,
// pricing them with the current market feed and converting into the
// reporting currency at the supplied spot rates.
type PositionAggregator struct {
	reportingCurrency string
	now               time.Time
}

func NewPositionAggregator(reportingCurrency string, now time.Time) *PositionAggregator {
	return &PositionAggregator{reportingCurrency: reportingCurrency, now: now}
}

// Aggregate builds the consolidated position rows. prices maps symbol to the
// current price in the symbol's native currency; rates maps a native currency
// to the reporting-currency spot rate (reporting units per native unit).
// Rows come back sorted by symbol for deterministic output.
func (a *PositionAggregator) Aggregate(lots []models.Lot, prices map[string]float64, rates map[string]float64, filter PositionFilter) []models.PositionRow {
	type symbolAgg struct {
		quantity  decimal.Decimal
		costBasis decimal.Decimal
		currency  string
		firstBuy  time.Time
		accounts  map[models.AccountKey]*models.AccountBreakdown
		keyOrder  []models.AccountKey
	}

	bySymbol := make(map[string]*symbolAgg)
	var symbolOrder []string

	for _, lot := range lots {
		if lot.Quantity.IsZero() || !filter.matches(lot.Key) {
			continue
		}
		agg, ok := bySymbol[lot.Key.Symbol]
		if !ok {
			agg = &symbolAgg{
				quantity:  decimal.Zero,
				costBasis: decimal.Zero,
				currency:  lot.Currency,
				firstBuy:  lot.OpenedDate,
				accounts:  make(map[models.AccountKey]*models.AccountBreakdown),
			}
			bySymbol[lot.Key.Symbol] = agg
			symbolOrder = append(symbolOrder, lot.Key.Symbol)
		}
		agg.quantity = agg.quantity.Add(lot.Quantity)
		agg.costBasis = agg.costBasis.Add(lot.Cost)
		if lot.OpenedDate.Before(agg.firstBuy) {
			agg.firstBuy = lot.OpenedDate
		}

		acct, ok := agg.accounts[lot.Key]
		if !ok {
			acct = &models.AccountBreakdown{Broker: lot.Key.Broker, AccountType: lot.Key.AccountType}
			agg.accounts[lot.Key] = acct
			agg.keyOrder = append(agg.keyOrder, lot.Key)
		}
		lotQty, _ := lot.Quantity.Float64()
		lotCost, _ := lot.Cost.Float64()
		acct.Quantity += lotQty
		acct.CostBasis += lotCost
	}

	sort.Strings(symbolOrder)

	rows := make([]models.PositionRow, 0, len(bySymbol))
	for _, symbol := range symbolOrder {
		agg := bySymbol[symbol]
		row := models.PositionRow{
			Symbol:       symbol,
			Currency:     agg.currency,
			FirstBuyDate: agg.firstBuy,
		}

		row.Quantity, _ = agg.quantity.Float64()
		row.CostBasis, _ = agg.costBasis.Float64()

		// A fully closed position should not appear here at all; guard the
		// division anyway and flag the row instead of raising.
		if agg.quantity.IsPositive() {
			row.WeightedAvgCost, _ = agg.costBasis.Div(agg.quantity).Float64()
		} else {
			row.WeightedAvgCost = 0
			row.NoBasis = true
		}

		price, havePrice := prices[symbol]
		if !havePrice || price <= 0 {
			// No quote: carry the position at cost so totals stay sane,
			// flag the row so the UI can show it as unpriced.
			row.NoPrice = true
			row.CurrentPrice = 0
			row.MarketValue = row.CostBasis
		} else {
			row.CurrentPrice = price
			row.MarketValue = row.Quantity * price
		}
		row.UnrealizedPnL = row.MarketValue - row.CostBasis
		if row.CostBasis > 0 {
			row.UnrealizedPnLPct = row.UnrealizedPnL / row.CostBasis * 100
		} else {
			// Commission-funded or zero-basis position: 0 plus a flag,
			// distinguished from a genuine 0% return.
			row.UnrealizedPnLPct = 0
			row.NoBasis = true
		}

		rate := rateFor(agg.currency, a.reportingCurrency, rates)
		row.FxRate = rate
		row.CostBasisRpt = row.CostBasis * rate
		row.MarketValueRpt = row.MarketValue * rate
		row.UnrealizedPnLRpt = row.UnrealizedPnL * rate

		row.DaysHeld = daysHeld(agg.firstBuy, a.now)
		row.CAGR = annualizedReturn(row.CostBasis, row.MarketValue, row.DaysHeld)

		for _, key := range agg.keyOrder {
			row.Accounts = append(row.Accounts, *agg.accounts[key])
		}
		rows = append(rows, row)
	}
	return rows
}

func rateFor(currency, reporting string, rates map[string]float64) float64 {
	if currency == reporting {
		return 1.0
	}
	if rate, ok := rates[currency]; ok && rate > 0 {
		return rate
	}
	return 1.0
}

func daysHeld(since, now time.Time) int {
	days := int(now.Sub(since).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// annualizedReturn is (MV/cost)^(365/days) - 1, with the guards the source
// data needs: no basis yields 0, a worthless position yields -1.
func annualizedReturn(costBasis, marketValue float64, days int) float64 {
	if costBasis <= 0 {
		return 0
	}
	if marketValue <= 0 {
		return -1
	}
	return math.Pow(marketValue/costBasis, 365.0/float64(days)) - 1
}

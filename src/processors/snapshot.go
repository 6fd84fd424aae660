package processors

import (
	"time"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// SnapshotInput carries everything a snapshot build needs. The ledger slice
// must be in store order (trade_date, then insertion id) — the tie-break the
// lot tracker relies on. Prices are native-currency quotes per symbol; Rates
// maps a native currency to the reporting spot rate.
type SnapshotInput struct {
	Transactions      []models.Transaction
	ValidationIssues  []models.ValidationIssue
	Prices            map[string]float64
	Rates             map[string]float64
	ReportingCurrency string
	Filter            PositionFilter
	Now               time.Time
}

// BuildSnapshot derives the full reporting state from a ledger snapshot and
// the current market feed. Pure: no caching, no shared state — concurrent
// builds each get their own tracker and outputs, and building twice from the
// same inputs yields identical results.
func BuildSnapshot(in SnapshotInput) *models.Snapshot {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	tracker := NewLotTracker()
	realized, oversells := tracker.Process(in.Transactions)

	aggregator := NewPositionAggregator(in.ReportingCurrency, now)
	positions := aggregator.Aggregate(tracker.OpenLots(), in.Prices, in.Rates, in.Filter)

	summary := models.PortfolioSummary{
		ReportingCurrency: in.ReportingCurrency,
		FxRateUsed:        rateFor("USD", in.ReportingCurrency, in.Rates),
	}
	for _, row := range positions {
		summary.TotalMarketValue += row.MarketValueRpt
		summary.TotalCostBasis += row.CostBasisRpt
		summary.TotalUnrealizedPnL += row.UnrealizedPnLRpt
	}

	// Realized legs convert at the same current spot rate as the unrealized
	// ones. Oversold sells never produced records, so totals already exclude
	// the keys flagged below.
	realized = filterRealized(realized, in.Filter)
	for _, rec := range realized {
		rate := rateFor(rec.Currency, in.ReportingCurrency, in.Rates)
		summary.TotalRealizedPnL += Convert(rec.PnLAmount, rec.Currency, in.ReportingCurrency, rate)
	}

	return &models.Snapshot{
		Summary:          summary,
		Positions:        positions,
		Realized:         realized,
		ValidationIssues: in.ValidationIssues,
		Oversells:        oversells,
		GeneratedAt:      now,
	}
}

func filterRealized(records []models.RealizedRecord, filter PositionFilter) []models.RealizedRecord {
	if filter.Broker == "" && filter.AccountType == "" {
		return records
	}
	filtered := make([]models.RealizedRecord, 0, len(records))
	for _, rec := range records {
		key := models.AccountKey{Symbol: rec.Symbol, Broker: rec.Broker, AccountType: rec.AccountType}
		if filter.matches(key) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a discrete quantity of a security acquired at one cost basis,
// consumed in acquisition order upon sale. Quantities and costs are kept as
// decimals in the native currency so partial-lot splits stay exact.
type Lot struct {
	Key        AccountKey      `json:"key"`
	OpenedDate time.Time       `json:"opened_date"`
	Quantity   decimal.Decimal `json:"quantity"` // Remaining, not original
	Cost       decimal.Decimal `json:"cost"`     // Remaining cost basis incl. amortized commission
	Currency   string          `json:"currency"`
}

// UnitCost returns the per-share cost basis of the remaining lot.
func (l Lot) UnitCost() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.Cost.Div(l.Quantity)
}

// RealizedRecord is the outcome of one fully matched sell transaction.
// A sell that consumes several lots still emits a single record with the
// proportionally weighted cost basis. Immutable once created.
type RealizedRecord struct {
	Symbol        string    `json:"symbol"`
	Broker        string    `json:"broker"`
	AccountType   string    `json:"account_type"`
	Currency      string    `json:"currency"` // Native currency of all amounts
	QuantitySold  float64   `json:"quantity_sold"`
	CostBasisSold float64   `json:"cost_basis_sold"`
	Proceeds      float64   `json:"proceeds"` // Gross, before commission
	Commission    float64   `json:"commission"`
	PnLAmount     float64   `json:"pnl_amount"`
	PnLPct        *float64  `json:"pnl_pct"` // nil when cost basis is zero
	CloseDate     time.Time `json:"close_date"`
	Source        string    `json:"source"`
}

// AccountBreakdown is the per broker/account slice of a consolidated position.
type AccountBreakdown struct {
	Broker      string  `json:"broker"`
	AccountType string  `json:"account_type"`
	Quantity    float64 `json:"quantity"`
	CostBasis   float64 `json:"cost_basis"` // Native currency
}

// PositionRow is one consolidated open position. Derived, never persisted:
// rebuilt from open lots and the current price feed on every query. Native
// amounts are kept alongside the reporting-currency conversions so nothing
// is stored pre-converted.
type PositionRow struct {
	Symbol           string             `json:"symbol"`
	Currency         string             `json:"currency"` // Native currency
	Quantity         float64            `json:"quantity"`
	WeightedAvgCost  float64            `json:"weighted_avg_cost"` // Native, per share
	CurrentPrice     float64            `json:"current_price"`     // Native, per share
	CostBasis        float64            `json:"cost_basis"`        // Native
	MarketValue      float64            `json:"market_value"`      // Native
	UnrealizedPnL    float64            `json:"unrealized_pnl"`    // Native
	UnrealizedPnLPct float64            `json:"unrealized_pnl_pct"`
	NoBasis          bool               `json:"no_basis,omitempty"` // Pct undefined, not a real 0%
	NoPrice          bool               `json:"no_price,omitempty"` // Price feed had no quote
	FxRate           float64            `json:"fx_rate"`            // Native -> reporting
	CostBasisRpt     float64            `json:"cost_basis_rpt"`     // Reporting currency
	MarketValueRpt   float64            `json:"market_value_rpt"`
	UnrealizedPnLRpt float64            `json:"unrealized_pnl_rpt"`
	FirstBuyDate     time.Time          `json:"first_buy_date"`
	DaysHeld         int                `json:"days_held"`
	CAGR             float64            `json:"cagr"`
	Accounts         []AccountBreakdown `json:"accounts"`
	Thesis           *ThesisNote        `json:"thesis,omitempty"`
}

// PortfolioSummary holds the portfolio-level totals in the reporting
// currency. Rebuilt from the position rows and realized records on each call.
type PortfolioSummary struct {
	TotalMarketValue   float64 `json:"total_market_value"`
	TotalCostBasis     float64 `json:"total_cost_basis"`
	TotalUnrealizedPnL float64 `json:"total_unrealized_pnl"`
	TotalRealizedPnL   float64 `json:"total_realized_pnl"`
	ReportingCurrency  string  `json:"reporting_currency"`
	FxRateUsed         float64 `json:"fx_rate_used"` // USD -> reporting spot
}

// ValidationIssue reports a ledger row rejected by the normalizer. The row
// is excluded from computation, never silently dropped.
type ValidationIssue struct {
	TransactionID int64  `json:"transaction_id,omitempty"`
	Symbol        string `json:"symbol"`
	Field         string `json:"field"`
	Value         string `json:"value"`
	Reason        string `json:"reason"`
}

// OversellIssue reports a sell that exceeded the open quantity for its
// symbol+account key. The sell is rejected whole; lots stay untouched.
type OversellIssue struct {
	Key       AccountKey `json:"key"`
	TradeDate time.Time  `json:"trade_date"`
	Requested float64    `json:"requested"`
	Available float64    `json:"available"`
}

// Snapshot is the full derived state served to the presentation layer:
// a pure function of (ledger, prices, fx rate, filters).
type Snapshot struct {
	Summary          PortfolioSummary  `json:"summary"`
	Positions        []PositionRow     `json:"positions"`
	Realized         []RealizedRecord  `json:"realized"`
	ValidationIssues []ValidationIssue `json:"validation_issues,omitempty"`
	Oversells        []OversellIssue   `json:"oversells,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

package models

// DividendInfo describes a symbol's current dividend schedule as reported
// by the market-data collaborator.
type DividendInfo struct {
	Symbol    string  `json:"symbol"`
	Rate      float64 `json:"rate"`      // Per share, per payment, native currency
	Frequency string  `json:"frequency"` // "Monthly", "Quarterly", "Annual"
	Months    []int   `json:"months"`    // Payment months, 1..12
	Currency  string  `json:"currency"`
	YieldPct  float64 `json:"yield_pct"`
}

// DividendHolding is the projected annual income for one holding.
type DividendHolding struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	Rate            float64 `json:"dividend_rate"`
	Frequency       string  `json:"frequency"`
	AnnualPayoutRpt float64 `json:"annual_payout_rpt"` // Reporting currency
	Months          []int   `json:"months"`
}

// MonthPayout is one slice of the projected dividend calendar.
type MonthPayout struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"` // Reporting currency
}

// DividendMonth is the projection for a single calendar month.
type DividendMonth struct {
	Month      string        `json:"month"` // "Jan".."Dec"
	MonthIndex int           `json:"month_index"`
	Total      float64       `json:"total"`
	Breakdown  []MonthPayout `json:"breakdown"`
}

// DividendProjection is the full dividend view: yearly totals, the monthly
// calendar, and the per-holding summary sorted by annual payout.
type DividendProjection struct {
	TotalAnnualRpt    float64           `json:"total_annual_rpt"`
	MonthlyAverageRpt float64           `json:"monthly_average_rpt"`
	Calendar          []DividendMonth   `json:"calendar"`
	Holdings          []DividendHolding `json:"holdings"`
}

// HistoricalDataPoint is one day of the persisted performance history,
// compared against a buy-the-benchmark-with-every-cashflow baseline.
type HistoricalDataPoint struct {
	Date               string  `json:"date"` // YYYY-MM-DD
	PortfolioValue     float64 `json:"portfolio_value"`
	CumulativeCashFlow float64 `json:"cumulative_net_cashflow"`
	BenchmarkValue     float64 `json:"benchmark_value,omitempty"`
	BenchmarkPrice     float64 `json:"benchmark_price,omitempty"`
}

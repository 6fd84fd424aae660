package models

// SectorSlice is one sector's share of the portfolio, valued in the
// reporting currency.
type SectorSlice struct {
	Sector      string  `json:"sector"`
	MarketValue float64 `json:"market_value"`
	WeightPct   float64 `json:"weight_pct"`
}

// SectorExposure is the portfolio grouped by sector, with a concentration
// reading over the largest slice. Derived from the position rows on each
// call, never persisted.
type SectorExposure struct {
	ReportingCurrency string        `json:"reporting_currency"`
	TotalMarketValue  float64       `json:"total_market_value"`
	Slices            []SectorSlice `json:"slices"`
	LargestSector     string        `json:"largest_sector,omitempty"`
	LargestWeightPct  float64       `json:"largest_weight_pct"`
	Concentration     string        `json:"concentration"` // "High", "Moderate" or "Diversified"
	SectorCount       int           `json:"sector_count"`
}

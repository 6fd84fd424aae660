// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/processors"
)

// ImportResult summarizes one broker CSV import: how many rows became
// ledger transactions and which rows the normalizer rejected.
type ImportResult struct {
	Imported int                      `json:"imported"`
	Rejected int                      `json:"rejected"`
	Issues   []models.ValidationIssue `json:"issues,omitempty"`
}

// Define common service errors
var (
	ErrParsingFailed = errors.New("csv parsing failed")
	ErrUnknownBroker = errors.New("unknown broker")
	ErrNotFound      = errors.New("not found")
	ErrInvalidEntry  = errors.New("invalid ledger entry")
)

type PriceInfo struct {
	Status   string  // "OK" or "UNAVAILABLE"
	Price    float64 // Native currency of the listing
	Currency string
}

// PriceMap is a map of Date (YYYY-MM-DD) -> Price
type PriceMap map[string]float64

// MarketDataService fetches quotes, FX rates and dividend schedules.
// Implementations cache aggressively; callers treat every value as a
// point-in-time spot reading.
type MarketDataService interface {
	GetCurrentPrices(symbols []string) (map[string]PriceInfo, error)
	// GetSpotRate returns the current rate expressed as units of `to`
	// per one unit of `from`.
	GetSpotRate(from, to string) (float64, error)
	// GetHistoricalPrices fetches full daily history for a symbol.
	// Returns a map where key is "YYYY-MM-DD" and value is the close price,
	// plus the currency the listing trades in.
	GetHistoricalPrices(symbol string) (PriceMap, string, error)
	GetDividendInfo(symbol string, currentPrice float64) (models.DividendInfo, error)
	// GetSectors resolves each symbol to its sector name. Symbols the feed
	// cannot classify map to "Unknown"; the call never fails as a whole.
	GetSectors(symbols []string) map[string]string

	EnsureBenchmarkData(symbol string) error
}

// LedgerService owns the append-only transaction ledger: manual entries,
// broker CSV imports, listing and deletion.
type LedgerService interface {
	AddEntry(raw models.RawLedgerEntry) (models.Transaction, error)
	ImportCSV(file io.Reader, broker, accountType string) (*ImportResult, error)
	ListTransactions() ([]models.Transaction, error)
	DeleteTransaction(id int64) error
}

// SnapshotService derives the portfolio view from the ledger and the
// current market feed. Every call recomputes from scratch.
type SnapshotService interface {
	GetSnapshot(filter processors.PositionFilter) (*models.Snapshot, error)
	GetDividendProjection() (*models.DividendProjection, error)
	GetSectorExposure(filter processors.PositionFilter) (*models.SectorExposure, error)
}

// PerformanceService maintains the daily portfolio history and serves it
// alongside the benchmark baseline.
type PerformanceService interface {
	// RebuildHistory recalculates daily portfolio values for the entire history.
	RebuildHistory() error
	GetChartData() ([]models.HistoricalDataPoint, error)
}

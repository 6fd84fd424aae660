// backend/src/services/snapshot_service.go
package services

import (
	"time"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/model"
	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/processors"
)

type snapshotServiceImpl struct {
	marketData MarketDataService
}

func NewSnapshotService(marketData MarketDataService) SnapshotService {
	return &snapshotServiceImpl{marketData: marketData}
}

// GetSnapshot recomputes the full portfolio view from the ledger and the
// current market feed. Nothing is cached at this level; two calls with the
// same ledger and feed produce identical snapshots.
func (s *snapshotServiceImpl) GetSnapshot(filter processors.PositionFilter) (*models.Snapshot, error) {
	txs, err := model.ListTransactions(database.DB)
	if err != nil {
		return nil, err
	}

	prices, rates := s.fetchMarketInputs(txs)

	snap := processors.BuildSnapshot(processors.SnapshotInput{
		Transactions:      txs,
		Prices:            prices,
		Rates:             rates,
		ReportingCurrency: config.Cfg.ReportingCurrency,
		Filter:            filter,
		Now:               time.Now(),
	})

	s.attachTheses(snap)
	return snap, nil
}

// fetchMarketInputs resolves one quote per held symbol and one spot rate per
// native currency. A symbol with no quote is simply absent from the price
// map; the aggregator carries it at cost.
func (s *snapshotServiceImpl) fetchMarketInputs(txs []models.Transaction) (map[string]float64, map[string]float64) {
	symbolSet := make(map[string]bool)
	currencySet := make(map[string]bool)
	var symbols []string
	for _, tx := range txs {
		if !symbolSet[tx.Symbol] {
			symbolSet[tx.Symbol] = true
			symbols = append(symbols, tx.Symbol)
		}
		currencySet[tx.Currency] = true
	}

	prices := make(map[string]float64)
	quotes, err := s.marketData.GetCurrentPrices(symbols)
	if err != nil {
		logger.L.Warn("Price feed unavailable, positions will be carried at cost", "error", err)
	}
	for symbol, info := range quotes {
		if info.Status != "OK" {
			continue
		}
		prices[symbol] = info.Price
		if info.Currency != "" {
			currencySet[info.Currency] = true
		}
	}

	reporting := config.Cfg.ReportingCurrency
	rates := make(map[string]float64)
	for currency := range currencySet {
		if currency == "" || currency == reporting {
			continue
		}
		rate, err := s.marketData.GetSpotRate(currency, reporting)
		if err != nil {
			logger.L.Warn("Spot rate unavailable, treating as 1.0", "currency", currency, "error", err)
			continue
		}
		rates[currency] = rate
	}
	return prices, rates
}

func (s *snapshotServiceImpl) attachTheses(snap *models.Snapshot) {
	theses, err := model.GetAllTheses(database.DB)
	if err != nil {
		logger.L.Error("Failed to load thesis notes", "error", err)
		return
	}
	for i := range snap.Positions {
		if note, ok := theses[snap.Positions[i].Symbol]; ok {
			noteCopy := note
			snap.Positions[i].Thesis = &noteCopy
		}
	}
}

// GetDividendProjection projects the next twelve months of dividend income
// from the open positions and each symbol's trailing payout schedule.
func (s *snapshotServiceImpl) GetDividendProjection() (*models.DividendProjection, error) {
	snap, err := s.GetSnapshot(processors.PositionFilter{})
	if err != nil {
		return nil, err
	}

	info := make(map[string]models.DividendInfo)
	rates := make(map[string]float64)
	reporting := config.Cfg.ReportingCurrency
	for _, pos := range snap.Positions {
		divInfo, err := s.marketData.GetDividendInfo(pos.Symbol, pos.CurrentPrice)
		if err != nil {
			logger.L.Warn("Dividend schedule unavailable", "symbol", pos.Symbol, "error", err)
			continue
		}
		if divInfo.Rate <= 0 {
			continue
		}
		info[pos.Symbol] = divInfo

		currency := divInfo.Currency
		if currency == "" {
			currency = pos.Currency
		}
		if currency != reporting {
			if _, ok := rates[currency]; !ok {
				if rate, err := s.marketData.GetSpotRate(currency, reporting); err == nil {
					rates[currency] = rate
				}
			}
		}
	}

	projector := processors.NewDividendProjector(reporting)
	projection := projector.Project(snap.Positions, info, rates)
	return &projection, nil
}

// GetSectorExposure groups the current snapshot by sector using the market
// feed's asset-profile classification.
func (s *snapshotServiceImpl) GetSectorExposure(filter processors.PositionFilter) (*models.SectorExposure, error) {
	snap, err := s.GetSnapshot(filter)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(snap.Positions))
	for _, pos := range snap.Positions {
		symbols = append(symbols, pos.Symbol)
	}
	sectors := s.marketData.GetSectors(symbols)

	exposure := processors.BuildSectorExposure(snap.Positions, sectors, config.Cfg.ReportingCurrency)
	return &exposure, nil
}

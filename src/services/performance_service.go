// backend/src/services/performance_service.go
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/model"
	"github.com/mingli/holding-analyzer/backend/src/models"
)

type performanceServiceImpl struct {
	marketData MarketDataService
	rebuildMu  sync.Mutex
}

func NewPerformanceService(marketData MarketDataService) PerformanceService {
	return &performanceServiceImpl{marketData: marketData}
}

// RebuildHistory recomputes the daily portfolio value series from the first
// trade to today and replaces the persisted history. Holdings are tracked in
// average-cost terms, which is exact for quantity and close enough for the
// cost line of a chart; the snapshot path stays authoritative for P&L.
func (s *performanceServiceImpl) RebuildHistory() error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	logger.L.Info("Starting history rebuild")

	if err := s.marketData.EnsureBenchmarkData(config.Cfg.BenchmarkSymbol); err != nil {
		logger.L.Error("Failed to ensure benchmark data", "error", err)
	}

	txs, err := model.ListTransactions(database.DB)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return model.ReplaceHistory(database.DB, nil)
	}

	symbolPrices, symbolCurrencies, currencyRates := s.fetchHistories(txs)

	reporting := config.Cfg.ReportingCurrency

	type assetInfo struct {
		Quantity       float64
		TotalCostBasis float64 // Reporting currency
	}
	holdings := make(map[string]*assetInfo)
	cumulativeNetCashflow := 0.0
	lastKnownPrices := make(map[string]float64)

	startDate := txs[0].TradeDate
	endDate := time.Now()

	var points []models.HistoricalDataPoint
	txIndex := 0
	totalTxs := len(txs)

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		for txIndex < totalTxs && txs[txIndex].TradeDate.Format("2006-01-02") == dateStr {
			tx := txs[txIndex]
			fxRate := historicalRate(tx.Currency, reporting, currencyRates, dateStr)

			info := holdings[tx.Symbol]
			if info == nil {
				info = &assetInfo{}
				holdings[tx.Symbol] = info
			}
			if tx.Side == models.SideBuy {
				costRpt := (tx.Quantity*tx.Price + tx.Commission) * fxRate
				info.Quantity += tx.Quantity
				info.TotalCostBasis += costRpt
				cumulativeNetCashflow += costRpt
			} else if tx.Side == models.SideSell {
				if info.Quantity > 0 {
					ratio := tx.Quantity / info.Quantity
					if ratio > 1 {
						ratio = 1
					}
					info.TotalCostBasis -= info.TotalCostBasis * ratio
				}
				info.Quantity -= tx.Quantity
				if info.Quantity < 0 {
					info.Quantity = 0
				}
				proceedsRpt := (tx.Quantity*tx.Price - tx.Commission) * fxRate
				cumulativeNetCashflow -= proceedsRpt
			}
			txIndex++
		}

		marketValue := 0.0
		for symbol, info := range holdings {
			if info.Quantity <= 0.0001 {
				continue
			}
			price := 0.0
			if pMap, ok := symbolPrices[symbol]; ok {
				price = pMap[dateStr]
			}
			if price > 0 {
				lastKnownPrices[symbol] = price
			} else if lastPrice, exists := lastKnownPrices[symbol]; exists {
				price = lastPrice
			}
			if price > 0 {
				fxRate := historicalRate(symbolCurrencies[symbol], reporting, currencyRates, dateStr)
				marketValue += info.Quantity * price * fxRate
			} else {
				marketValue += info.TotalCostBasis
			}
		}

		points = append(points, models.HistoricalDataPoint{
			Date:               dateStr,
			PortfolioValue:     marketValue,
			CumulativeCashFlow: cumulativeNetCashflow,
		})
	}

	if err := model.ReplaceHistory(database.DB, points); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	logger.L.Info("History rebuild complete", "days", len(points), "duration", time.Since(start))
	return nil
}

// fetchHistories pulls the full daily price series for every held symbol and
// the FX series for every non-reporting currency, concurrently.
func (s *performanceServiceImpl) fetchHistories(txs []models.Transaction) (map[string]PriceMap, map[string]string, map[string]PriceMap) {
	reporting := config.Cfg.ReportingCurrency

	uniqueSymbols := make(map[string]bool)
	uniqueCurrencies := make(map[string]bool)
	for _, tx := range txs {
		uniqueSymbols[tx.Symbol] = true
		if tx.Currency != "" && tx.Currency != reporting {
			uniqueCurrencies[tx.Currency] = true
		}
	}

	symbolPrices := make(map[string]PriceMap)
	symbolCurrencies := make(map[string]string)
	currencyRates := make(map[string]PriceMap)
	var dataMu sync.Mutex
	var wg sync.WaitGroup

	for symbol := range uniqueSymbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			prices, currency, err := s.marketData.GetHistoricalPrices(sym)
			if err != nil {
				logger.L.Warn("No price history for symbol", "symbol", sym, "error", err)
				return
			}
			dataMu.Lock()
			symbolPrices[sym] = prices
			symbolCurrencies[sym] = currency
			if currency != "" && currency != reporting {
				uniqueCurrencies[currency] = true
			}
			dataMu.Unlock()
		}(symbol)
	}
	wg.Wait()

	for currency := range uniqueCurrencies {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			ticker := fmt.Sprintf("%s%s=X", c, reporting)
			rates, _, err := s.marketData.GetHistoricalPrices(ticker)
			if err != nil {
				logger.L.Warn("No FX history for currency", "currency", c, "error", err)
				return
			}
			dataMu.Lock()
			currencyRates[c] = rates
			dataMu.Unlock()
		}(currency)
	}
	wg.Wait()

	return symbolPrices, symbolCurrencies, currencyRates
}

func historicalRate(currency, reporting string, rates map[string]PriceMap, dateStr string) float64 {
	if currency == "" || currency == reporting {
		return 1.0
	}
	if rMap, ok := rates[currency]; ok {
		if r, ok := rMap[dateStr]; ok && r > 0 {
			return r
		}
	}
	return 1.0
}

// GetChartData serves the persisted history with the benchmark baseline laid
// alongside: every net cashflow buys benchmark units at that day's price, so
// the two lines answer "what if every dollar had gone into the benchmark
// instead".
func (s *performanceServiceImpl) GetChartData() ([]models.HistoricalDataPoint, error) {
	points, err := model.ListHistory(database.DB)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return points, nil
	}

	benchmark := config.Cfg.BenchmarkSymbol
	bmPrices, err := model.GetPricesBySymbol(database.DB, benchmark)
	if err != nil || len(bmPrices) == 0 {
		fetched, _, fetchErr := s.marketData.GetHistoricalPrices(benchmark)
		if fetchErr != nil {
			logger.L.Warn("Benchmark history unavailable", "symbol", benchmark, "error", fetchErr)
			return points, nil
		}
		bmPrices = map[string]float64(fetched)
	}

	benchmarkUnits := 0.0
	previousCashFlow := 0.0
	lastKnownPrice := 0.0
	for i := range points {
		price := bmPrices[points[i].Date]
		if price > 0 {
			lastKnownPrice = price
		} else if lastKnownPrice > 0 {
			price = lastKnownPrice
		} else {
			previousCashFlow = points[i].CumulativeCashFlow
			continue
		}
		dailyNetFlow := points[i].CumulativeCashFlow - previousCashFlow
		benchmarkUnits += dailyNetFlow / price
		points[i].BenchmarkValue = benchmarkUnits * price
		points[i].BenchmarkPrice = price
		previousCashFlow = points[i].CumulativeCashFlow
	}
	return points, nil
}

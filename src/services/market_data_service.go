// backend/src/services/market_data_service.go
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/model"
	"github.com/mingli/holding-analyzer/backend/src/models"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// --- API Response Structs ---

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type yahooHistoryResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type yahooEventsResponse struct {
	Chart struct {
		Result []struct {
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// --- Service Implementation ---

type marketDataServiceImpl struct {
	httpClient    http.Client
	cache         *gocache.Cache
	isInitialized bool
	crumb         string
	mu            sync.Mutex
}

func NewMarketDataService() MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	client := http.Client{
		Jar:     jar,
		Timeout: config.Cfg.YahooTimeout,
	}

	s := &marketDataServiceImpl{
		httpClient:    client,
		cache:         gocache.New(config.Cfg.PriceCacheTTL, 10*time.Minute),
		isInitialized: false,
	}

	go s.initializeYahooSession()

	return s
}

func (s *marketDataServiceImpl) initializeYahooSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized && s.crumb != "" {
		return
	}

	logger.L.Info("Initializing Yahoo Finance session and fetching Crumb...")

	req1, _ := http.NewRequest("GET", "https://fc.yahoo.com", nil)
	req1.Header.Set("User-Agent", userAgent)
	resp1, err := s.httpClient.Do(req1)
	if err == nil {
		io.Copy(io.Discard, resp1.Body)
		resp1.Body.Close()
	}

	req2, _ := http.NewRequest("GET", "https://finance.yahoo.com", nil)
	req2.Header.Set("User-Agent", userAgent)
	resp2, err := s.httpClient.Do(req2)
	if err == nil {
		io.Copy(io.Discard, resp2.Body)
		resp2.Body.Close()
	}

	req3, _ := http.NewRequest("GET", "https://query1.finance.yahoo.com/v1/test/getcrumb", nil)
	req3.Header.Set("User-Agent", userAgent)
	resp3, err := s.httpClient.Do(req3)
	if err != nil {
		logger.L.Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp3.Body.Close()

	if resp3.StatusCode == http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp3.Body)
		s.crumb = string(bodyBytes)
		s.isInitialized = true
		logger.L.Info("Yahoo session initialized successfully")
	} else {
		logger.L.Warn("Failed to fetch crumb", "status", resp3.Status)
	}
}

// ensureSession initializes the Yahoo session if needed and returns the
// crumb, copied out under the lock so request paths never read s.crumb
// concurrently with a re-initialization.
func (s *marketDataServiceImpl) ensureSession() string {
	s.mu.Lock()
	needsInit := !s.isInitialized || s.crumb == ""
	s.mu.Unlock()

	if needsInit {
		s.initializeYahooSession()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crumb
}

// GetCurrentPrices resolves one quote per symbol. Lookup order is the
// in-memory cache, then today's row in daily_prices, then Yahoo. Whatever
// Yahoo returns is written back to both caches.
func (s *marketDataServiceImpl) GetCurrentPrices(symbols []string) (map[string]PriceInfo, error) {
	crumb := s.ensureSession()
	results := make(map[string]PriceInfo)
	for _, symbol := range symbols {
		results[symbol] = PriceInfo{Status: "UNAVAILABLE"}
	}
	if len(symbols) == 0 {
		return results, nil
	}

	symbolsToResolve := []string{}
	for _, symbol := range symbols {
		if cached, found := s.cache.Get("price:" + symbol); found {
			results[symbol] = cached.(PriceInfo)
			continue
		}
		symbolsToResolve = append(symbolsToResolve, symbol)
	}
	if len(symbolsToResolve) == 0 {
		return results, nil
	}

	todayStr := time.Now().Format("2006-01-02")
	cachedPrices, err := model.GetLatestPrices(database.DB, symbolsToResolve)
	if err != nil {
		logger.L.Error("Failed to get daily prices from DB", "error", err)
	}

	symbolsToFetch := []string{}
	for _, symbol := range symbolsToResolve {
		if price, ok := cachedPrices[symbol]; ok && price.Date == todayStr {
			info := PriceInfo{Status: "OK", Price: price.Price, Currency: price.Currency}
			results[symbol] = info
			s.cache.Set("price:"+symbol, info, config.Cfg.PriceCacheTTL)
		} else {
			symbolsToFetch = append(symbolsToFetch, symbol)
		}
	}

	for _, symbol := range symbolsToFetch {
		time.Sleep(250 * time.Millisecond)
		price, currency, err := s.getPriceForTicker(symbol, crumb)
		if err != nil {
			logger.L.Warn("Could not get price for symbol from API", "symbol", symbol, "error", err)
			// Keep the stale daily_prices row as a fallback quote
			if stale, ok := cachedPrices[symbol]; ok {
				results[symbol] = PriceInfo{Status: "OK", Price: stale.Price, Currency: stale.Currency}
			}
			continue
		}
		info := PriceInfo{Status: "OK", Price: price, Currency: currency}
		results[symbol] = info
		s.cache.Set("price:"+symbol, info, config.Cfg.PriceCacheTTL)
		model.InsertOrUpdatePrice(database.DB, model.DailyPrice{
			Symbol:   symbol,
			Date:     todayStr,
			Price:    price,
			Currency: currency,
		})
	}
	return results, nil
}

// GetSpotRate returns the current conversion factor from one currency to
// another, expressed as units of `to` per one unit of `from`.
func (s *marketDataServiceImpl) GetSpotRate(from, to string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return 1.0, nil
	}

	cacheKey := fmt.Sprintf("fx:%s%s", from, to)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(float64), nil
	}

	crumb := s.ensureSession()
	ticker := fmt.Sprintf("%s%s=X", from, to)
	rate, _, err := s.getPriceForTicker(ticker, crumb)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch spot rate %s: %w", ticker, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("spot rate %s returned non-positive value %f", ticker, rate)
	}
	s.cache.Set(cacheKey, rate, config.Cfg.FxCacheTTL)
	return rate, nil
}

func (s *marketDataServiceImpl) getPriceForTicker(ticker, crumb string) (float64, string, error) {
	quoteURL := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?crumb=%s", ticker, crumb)
	req, err := http.NewRequest("GET", quoteURL, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to call Yahoo chart API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 401 {
		s.mu.Lock()
		s.isInitialized = false
		s.mu.Unlock()
		return 0, "", fmt.Errorf("status 401 (Unauthorized) - Crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("yahoo chart API returned non-OK status %d", resp.StatusCode)
	}
	var chartData yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return 0, "", fmt.Errorf("failed to decode Yahoo chart response: %w", err)
	}
	if chartData.Chart.Error != nil {
		return 0, "", fmt.Errorf("yahoo chart API returned an error: %v", chartData.Chart.Error)
	}
	if len(chartData.Chart.Result) == 0 || chartData.Chart.Result[0].Meta.RegularMarketPrice == 0 {
		return 0, "", fmt.Errorf("no price data found")
	}
	meta := chartData.Chart.Result[0].Meta
	return meta.RegularMarketPrice, meta.Currency, nil
}

func (s *marketDataServiceImpl) GetHistoricalPrices(ticker string) (PriceMap, string, error) {
	crumb := s.ensureSession()
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=10y&crumb=%s", ticker, crumb)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 401 {
		s.mu.Lock()
		s.isInitialized = false
		s.mu.Unlock()
		return nil, "", fmt.Errorf("status 401 (Unauthorized)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("yahoo history api returned %d", resp.StatusCode)
	}
	var data yahooHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, "", fmt.Errorf("failed to decode history json: %w", err)
	}
	if len(data.Chart.Result) == 0 {
		return nil, "", fmt.Errorf("no history result found")
	}
	result := data.Chart.Result[0]
	detectedCurrency := result.Meta.Currency
	timestamps := result.Timestamp
	if len(result.Indicators.Quote) == 0 {
		return nil, "", fmt.Errorf("no quote data found")
	}
	quotes := result.Indicators.Quote[0].Close
	if len(timestamps) != len(quotes) {
		return nil, "", fmt.Errorf("data mismatch")
	}
	priceMap := make(PriceMap)
	var sortedDates []string
	for i, ts := range timestamps {
		price := quotes[i]
		if price == 0 {
			continue
		}
		dateStr := time.Unix(ts, 0).Format("2006-01-02")
		priceMap[dateStr] = price
		sortedDates = append(sortedDates, dateStr)
	}
	// Forward-fill weekends and holidays so the daily history walk always
	// finds a quote.
	if len(sortedDates) > 0 {
		sort.Strings(sortedDates)
		startDate, _ := time.Parse("2006-01-02", sortedDates[0])
		endDate := time.Now()
		lastPrice := priceMap[sortedDates[0]]
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			dateKey := d.Format("2006-01-02")
			if val, ok := priceMap[dateKey]; ok {
				lastPrice = val
			} else {
				priceMap[dateKey] = lastPrice
			}
		}
	}
	return priceMap, detectedCurrency, nil
}

// GetDividendInfo derives a symbol's payout schedule from its trailing
// twelve months of dividend events: per-payment rate, payment months, and a
// frequency label inferred from the payment count.
func (s *marketDataServiceImpl) GetDividendInfo(symbol string, currentPrice float64) (models.DividendInfo, error) {
	cacheKey := "div:" + symbol
	if cached, found := s.cache.Get(cacheKey); found {
		info := cached.(models.DividendInfo)
		info.YieldPct = yieldPct(info, currentPrice)
		return info, nil
	}

	crumb := s.ensureSession()

	now := time.Now()
	oneYearAgo := now.AddDate(-1, 0, 0)
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?symbol=%s&period1=%d&period2=%d&interval=1d&events=div&crumb=%s",
		symbol, symbol, oneYearAgo.Unix(), now.Unix(), crumb)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return models.DividendInfo{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.DividendInfo{}, fmt.Errorf("failed to call Yahoo events API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.DividendInfo{}, fmt.Errorf("yahoo API error: status %d", resp.StatusCode)
	}

	var data yahooEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.DividendInfo{}, err
	}

	info := models.DividendInfo{Symbol: symbol}
	if len(data.Chart.Result) == 0 {
		return info, nil
	}

	result := data.Chart.Result[0]
	info.Currency = result.Meta.Currency

	monthSet := make(map[int]bool)
	totalAmount := 0.0
	payments := 0
	for _, div := range result.Events.Dividends {
		if div.Amount <= 0 {
			continue
		}
		divDate := time.Unix(div.Date, 0)
		monthSet[int(divDate.Month())] = true
		totalAmount += div.Amount
		payments++
	}
	if payments > 0 {
		info.Rate = totalAmount / float64(payments)
		for m := 1; m <= 12; m++ {
			if monthSet[m] {
				info.Months = append(info.Months, m)
			}
		}
		info.Frequency = frequencyLabel(payments)
	}
	info.YieldPct = yieldPct(info, currentPrice)

	s.cache.Set(cacheKey, info, config.Cfg.DividendCacheTTL)
	return info, nil
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteSummary"`
}

// GetSectors classifies each symbol by its Yahoo asset profile. Lookups are
// best effort: anything the feed cannot classify (ETFs, delisted tickers,
// network failures) comes back as "Unknown" rather than an error.
func (s *marketDataServiceImpl) GetSectors(symbols []string) map[string]string {
	crumb := s.ensureSession()
	sectors := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		cacheKey := "sector:" + symbol
		if cached, found := s.cache.Get(cacheKey); found {
			sectors[symbol] = cached.(string)
			continue
		}
		sector, err := s.getSectorForTicker(symbol, crumb)
		if err != nil {
			logger.L.Warn("Could not classify symbol sector", "symbol", symbol, "error", err)
			sectors[symbol] = "Unknown"
			continue
		}
		sectors[symbol] = sector
		s.cache.Set(cacheKey, sector, config.Cfg.DividendCacheTTL)
	}
	return sectors
}

func (s *marketDataServiceImpl) getSectorForTicker(symbol, crumb string) (string, error) {
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=assetProfile&crumb=%s", symbol, crumb)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Yahoo quoteSummary API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 401 {
		s.mu.Lock()
		s.isInitialized = false
		s.mu.Unlock()
		return "", fmt.Errorf("status 401 (Unauthorized) - Crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("yahoo quoteSummary API returned %d", resp.StatusCode)
	}
	var data yahooQuoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode quoteSummary response: %w", err)
	}
	if len(data.QuoteSummary.Result) == 0 || data.QuoteSummary.Result[0].AssetProfile.Sector == "" {
		// Funds and ETFs carry no sector in their asset profile.
		return "Index Fund", nil
	}
	return data.QuoteSummary.Result[0].AssetProfile.Sector, nil
}

func frequencyLabel(paymentsPerYear int) string {
	switch {
	case paymentsPerYear >= 10:
		return "Monthly"
	case paymentsPerYear >= 3:
		return "Quarterly"
	case paymentsPerYear == 2:
		return "Semi-Annual"
	default:
		return "Annual"
	}
}

func yieldPct(info models.DividendInfo, currentPrice float64) float64 {
	if currentPrice <= 0 || info.Rate <= 0 {
		return 0
	}
	return info.Rate * float64(len(info.Months)) / currentPrice * 100
}

// EnsureBenchmarkData backfills daily_prices with the benchmark's full
// history when today's row is missing, so the performance walk never has to
// hit the network.
func (s *marketDataServiceImpl) EnsureBenchmarkData(symbol string) error {
	var count int
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	err := database.DB.QueryRow("SELECT COUNT(*) FROM daily_prices WHERE symbol = ? AND date >= ?", symbol, yesterday).Scan(&count)
	if err == nil && count > 0 {
		return nil
	}
	prices, currency, err := s.GetHistoricalPrices(symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch benchmark history: %w", err)
	}
	if len(prices) == 0 {
		return fmt.Errorf("no benchmark prices returned")
	}
	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, price, currency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			price = excluded.price,
			updated_at = excluded.updated_at;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()
	for date, price := range prices {
		if _, err := stmt.Exec(symbol, date, price, currency, time.Now()); err != nil {
			logger.L.Warn("Failed to save benchmark price", "date", date, "error", err)
			continue
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit benchmark transaction: %w", err)
	}
	return nil
}

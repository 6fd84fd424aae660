package model

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/logger"
)

// DailyPrice is a cached close price for a symbol on a specific day.
// It backs the performance-history rebuild so the Yahoo API is not hit for
// every day of every symbol on each run.
type DailyPrice struct {
	Symbol    string
	Date      string // YYYY-MM-DD
	Price     float64
	Currency  string
	UpdatedAt time.Time
}

// GetPricesBySymbol returns all cached prices for a symbol as a map of
// date (YYYY-MM-DD) -> price.
func GetPricesBySymbol(db *sql.DB, symbol string) (map[string]float64, error) {
	prices := make(map[string]float64)
	rows, err := db.Query(`SELECT date, price FROM daily_prices WHERE symbol = ? ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		var price float64
		if err := rows.Scan(&date, &price); err != nil {
			logger.L.Error("Error scanning price row", "symbol", symbol, "error", err)
			continue
		}
		prices[date] = price
	}
	return prices, rows.Err()
}

// GetLatestPrices retrieves the most recent cached price for each symbol.
func GetLatestPrices(db *sql.DB, symbols []string) (map[string]DailyPrice, error) {
	prices := make(map[string]DailyPrice)
	if len(symbols) == 0 {
		return prices, nil
	}
	query := `SELECT symbol, date, price, currency, updated_at FROM daily_prices
		WHERE (symbol, date) IN (
			SELECT symbol, MAX(date) FROM daily_prices
			WHERE symbol IN (?` + strings.Repeat(",?", len(symbols)-1) + `) GROUP BY symbol
		)`
	args := make([]interface{}, len(symbols))
	for i, symbol := range symbols {
		args[i] = symbol
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Price, &p.Currency, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prices[p.Symbol] = p
	}
	return prices, rows.Err()
}

// InsertOrUpdatePrice saves a price to the cache, replacing any existing row
// for that symbol and day.
func InsertOrUpdatePrice(db *sql.DB, price DailyPrice) error {
	_, err := db.Exec(`
		INSERT INTO daily_prices (symbol, date, price, currency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			price = excluded.price,
			currency = excluded.currency,
			updated_at = excluded.updated_at`,
		price.Symbol, price.Date, price.Price, price.Currency, time.Now(),
	)
	if err != nil {
		logger.L.Error("Failed to insert or update daily price", "symbol", price.Symbol, "date", price.Date, "error", err)
	}
	return err
}

package model

import (
	"database/sql"
	"fmt"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// ReplaceHistory swaps the persisted daily-history series for a freshly
// rebuilt one. Inserted in chunks to stay under SQLite's bind-variable limit.
func ReplaceHistory(db *sql.DB, points []models.HistoricalDataPoint) error {
	if _, err := db.Exec(`DELETE FROM portfolio_history`); err != nil {
		return fmt.Errorf("error clearing portfolio history: %w", err)
	}
	if len(points) == 0 {
		return nil
	}

	const chunkSize = 500
	for i := 0; i < len(points); i += chunkSize {
		end := i + chunkSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[i:end]

		query := `INSERT INTO portfolio_history (date, portfolio_value, cumulative_net_cashflow) VALUES `
		vals := make([]interface{}, 0, len(batch)*3)
		for j, p := range batch {
			if j > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			vals = append(vals, p.Date, p.PortfolioValue, p.CumulativeCashFlow)
		}
		if _, err := db.Exec(query, vals...); err != nil {
			return fmt.Errorf("error inserting history batch: %w", err)
		}
	}
	return nil
}

// ListHistory returns the persisted daily series in date order.
func ListHistory(db *sql.DB) ([]models.HistoricalDataPoint, error) {
	rows, err := db.Query(`SELECT date, portfolio_value, cumulative_net_cashflow FROM portfolio_history ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying portfolio history: %w", err)
	}
	defer rows.Close()

	var points []models.HistoricalDataPoint
	for rows.Next() {
		var p models.HistoricalDataPoint
		if err := rows.Scan(&p.Date, &p.PortfolioValue, &p.CumulativeCashFlow); err != nil {
			return nil, fmt.Errorf("error scanning history row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

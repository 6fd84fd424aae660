package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

const txColumns = `id, symbol, side, quantity, price, commission, trade_date, currency, broker, account_type, comment, source`

// InsertTransaction appends one canonical transaction to the ledger and
// returns its row id. The ledger is append-only; rows are never updated.
func InsertTransaction(db *sql.DB, tx models.Transaction) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO transactions (symbol, side, quantity, price, commission, trade_date, currency, broker, account_type, comment, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Symbol, string(tx.Side), tx.Quantity, tx.Price, tx.Commission,
		tx.TradeDate.Format("2006-01-02"), tx.Currency, tx.Broker, tx.AccountType, tx.Comment, tx.Source,
	)
	if err != nil {
		return 0, fmt.Errorf("error inserting transaction for %s: %w", tx.Symbol, err)
	}
	return res.LastInsertId()
}

// InsertTransactions inserts a batch inside one database transaction,
// preserving slice order so same-day rows keep their ledger order.
func InsertTransactions(db *sql.DB, txs []models.Transaction) (int, error) {
	dbTx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO transactions (symbol, side, quantity, price, commission, trade_date, currency, broker, account_type, comment, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		if _, err := stmt.Exec(
			tx.Symbol, string(tx.Side), tx.Quantity, tx.Price, tx.Commission,
			tx.TradeDate.Format("2006-01-02"), tx.Currency, tx.Broker, tx.AccountType, tx.Comment, tx.Source,
		); err != nil {
			return 0, fmt.Errorf("error inserting transaction for %s: %w", tx.Symbol, err)
		}
		inserted++
	}
	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transactions: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns the whole ledger ordered by (trade_date, id).
// That ordering is what makes same-day FIFO matching deterministic, so every
// consumer goes through this query rather than sorting ad hoc.
func ListTransactions(db *sql.DB) ([]models.Transaction, error) {
	rows, err := db.Query(`SELECT ` + txColumns + ` FROM transactions ORDER BY trade_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// DeleteTransaction removes one ledger row by id.
func DeleteTransaction(db *sql.DB, id int64) (bool, error) {
	res, err := db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting transaction %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var side, tradeDate string
		if err := rows.Scan(
			&tx.ID, &tx.Symbol, &side, &tx.Quantity, &tx.Price, &tx.Commission,
			&tradeDate, &tx.Currency, &tx.Broker, &tx.AccountType, &tx.Comment, &tx.Source,
		); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		tx.Side = models.Side(side)
		parsed, err := time.Parse("2006-01-02", tradeDate)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored trade date %q: %w", tradeDate, err)
		}
		tx.TradeDate = parsed
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

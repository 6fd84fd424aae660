package model

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			commission REAL NOT NULL DEFAULT 0,
			trade_date TEXT NOT NULL,
			currency TEXT NOT NULL,
			broker TEXT NOT NULL DEFAULT '',
			account_type TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'Manual'
		);
		CREATE TABLE thesis_notes (
			symbol TEXT PRIMARY KEY,
			thesis TEXT NOT NULL DEFAULT '',
			conviction TEXT NOT NULL DEFAULT '',
			timeframe TEXT NOT NULL DEFAULT '',
			kill_switch TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT ''
		);
	`)
	require.NoError(t, err)
	return db
}

func testTx(symbol string, side models.Side, date string) models.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return models.Transaction{
		Symbol: symbol, Side: side, Quantity: 10, Price: 100, Commission: 1,
		TradeDate: d, Currency: "USD", Broker: "CIBC", AccountType: "RRSP", Source: "Manual",
	}
}

func TestListTransactionsOrdersByDateThenID(t *testing.T) {
	db := setupTestDB(t)

	// Insert out of date order, with two rows sharing a trade date.
	_, err := InsertTransaction(db, testTx("B", models.SideBuy, "2024-02-01"))
	require.NoError(t, err)
	_, err = InsertTransaction(db, testTx("A", models.SideBuy, "2024-01-15"))
	require.NoError(t, err)
	_, err = InsertTransaction(db, testTx("C", models.SideBuy, "2024-02-01"))
	require.NoError(t, err)

	txs, err := ListTransactions(db)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "A", txs[0].Symbol)
	// Same-day rows come back in insertion order: B before C.
	assert.Equal(t, "B", txs[1].Symbol)
	assert.Equal(t, "C", txs[2].Symbol)
}

func TestInsertTransactionsBatchPreservesOrder(t *testing.T) {
	db := setupTestDB(t)

	batch := []models.Transaction{
		testTx("X", models.SideBuy, "2024-03-01"),
		testTx("Y", models.SideBuy, "2024-03-01"),
		testTx("Z", models.SideSell, "2024-03-01"),
	}
	n, err := InsertTransactions(db, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	txs, err := ListTransactions(db)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "X", txs[0].Symbol)
	assert.Equal(t, "Y", txs[1].Symbol)
	assert.Equal(t, "Z", txs[2].Symbol)
	assert.Equal(t, models.SideSell, txs[2].Side)
}

func TestDeleteTransaction(t *testing.T) {
	db := setupTestDB(t)

	id, err := InsertTransaction(db, testTx("A", models.SideBuy, "2024-01-15"))
	require.NoError(t, err)

	deleted, err := DeleteTransaction(db, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = DeleteTransaction(db, id)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete finds nothing")
}

func TestThesisUpsertReplaces(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, UpsertThesis(db, models.ThesisNote{Symbol: "VDY.TO", Thesis: "Dividend compounder", Conviction: "High"}))
	require.NoError(t, UpsertThesis(db, models.ThesisNote{Symbol: "VDY.TO", Thesis: "Dividend compounder", Conviction: "Medium"}))

	notes, err := GetAllTheses(db)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Medium", notes["VDY.TO"].Conviction)

	require.NoError(t, DeleteThesis(db, "VDY.TO"))
	notes, err = GetAllTheses(db)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

package models

import "time"

// Side is the direction of a ledger transaction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RawLedgerEntry represents a single transaction row before validation,
// either decoded from a broker CSV or posted through the API. All numeric
// fields are already parsed by the source; validation and defaulting happen
// in the ledger normalizer.
type RawLedgerEntry struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"` // "BUY" or "SELL"
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Commission  float64 `json:"commission"`
	TradeDate   string  `json:"trade_date"` // YYYY-MM-DD
	Currency    string  `json:"currency"`   // empty -> inferred from symbol
	Broker      string  `json:"broker"`
	AccountType string  `json:"account_type"`
	Comment     string  `json:"comment"`
	Source      string  `json:"source"` // CIBC, RBC, TD, Manual
}

// Transaction is the canonical, validated form of a ledger entry. Immutable
// once recorded; the source of truth for all downstream computation.
type Transaction struct {
	ID          int64     `json:"id,omitempty"` // Database primary key
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Commission  float64   `json:"commission"`
	TradeDate   time.Time `json:"trade_date"`
	Currency    string    `json:"currency"` // Native currency of price/commission
	Broker      string    `json:"broker"`
	AccountType string    `json:"account_type"`
	Comment     string    `json:"comment,omitempty"`
	Source      string    `json:"source"`
}

// AccountKey identifies the FIFO lot queue a transaction belongs to.
// Lots never cross broker or account-type boundaries.
type AccountKey struct {
	Symbol      string `json:"symbol"`
	Broker      string `json:"broker"`
	AccountType string `json:"account_type"`
}

// Key returns the lot-queue key for the transaction.
func (t Transaction) Key() AccountKey {
	return AccountKey{Symbol: t.Symbol, Broker: t.Broker, AccountType: t.AccountType}
}

package processors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// ValidationError reports the single offending field of a malformed ledger
// entry. The entry is excluded from downstream processing; the rest of the
// ledger is unaffected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: field %q (value %q): %s", e.Field, e.Value, e.Reason)
}

// LedgerNormalizer validates raw ledger entries and produces canonical
// transactions. It has no side effects beyond validation.
type LedgerNormalizer struct {
	defaultCurrency string // Used when the symbol gives no market hint
}

func NewLedgerNormalizer(defaultCurrency string) *LedgerNormalizer {
	return &LedgerNormalizer{defaultCurrency: defaultCurrency}
}

// Normalize validates one raw entry and returns its canonical form.
// Missing commission defaults to 0 (the zero value already is); a missing
// currency is inferred from the symbol's market.
func (n *LedgerNormalizer) Normalize(raw models.RawLedgerEntry) (models.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return models.Transaction{}, &ValidationError{Field: "symbol", Value: raw.Symbol, Reason: "symbol is required"}
	}

	side := models.Side(strings.ToUpper(strings.TrimSpace(raw.Side)))
	if side != models.SideBuy && side != models.SideSell {
		return models.Transaction{}, &ValidationError{Field: "side", Value: raw.Side, Reason: "side must be BUY or SELL"}
	}

	if raw.Quantity <= 0 {
		return models.Transaction{}, &ValidationError{
			Field: "quantity", Value: strconv.FormatFloat(raw.Quantity, 'f', -1, 64),
			Reason: "quantity must be greater than zero",
		}
	}
	if raw.Price < 0 {
		return models.Transaction{}, &ValidationError{
			Field: "price", Value: strconv.FormatFloat(raw.Price, 'f', -1, 64),
			Reason: "price must not be negative",
		}
	}
	if raw.Commission < 0 {
		return models.Transaction{}, &ValidationError{
			Field: "commission", Value: strconv.FormatFloat(raw.Commission, 'f', -1, 64),
			Reason: "commission must not be negative",
		}
	}

	tradeDate, err := time.Parse("2006-01-02", strings.TrimSpace(raw.TradeDate))
	if err != nil {
		return models.Transaction{}, &ValidationError{Field: "trade_date", Value: raw.TradeDate, Reason: "expected YYYY-MM-DD"}
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if currency == "" {
		currency = n.inferCurrency(symbol)
	} else if err := ValidateCurrency(currency); err != nil {
		return models.Transaction{}, &ValidationError{Field: "currency", Value: raw.Currency, Reason: "not an ISO 4217 currency code"}
	}

	source := raw.Source
	if source == "" {
		source = "Manual"
	}

	return models.Transaction{
		Symbol:      symbol,
		Side:        side,
		Quantity:    raw.Quantity,
		Price:       raw.Price,
		Commission:  raw.Commission,
		TradeDate:   tradeDate,
		Currency:    currency,
		Broker:      strings.TrimSpace(raw.Broker),
		AccountType: strings.TrimSpace(raw.AccountType),
		Comment:     strings.TrimSpace(raw.Comment),
		Source:      source,
	}, nil
}

// NormalizeAll runs Normalize over a batch, collecting the valid canonical
// transactions and one issue per rejected row.
func (n *LedgerNormalizer) NormalizeAll(raws []models.RawLedgerEntry) ([]models.Transaction, []models.ValidationIssue) {
	txs := make([]models.Transaction, 0, len(raws))
	var issues []models.ValidationIssue
	for _, raw := range raws {
		tx, err := n.Normalize(raw)
		if err != nil {
			if vErr, ok := err.(*ValidationError); ok {
				issues = append(issues, models.ValidationIssue{
					Symbol: raw.Symbol,
					Field:  vErr.Field,
					Value:  vErr.Value,
					Reason: vErr.Reason,
				})
			}
			continue
		}
		txs = append(txs, tx)
	}
	return txs, issues
}

// inferCurrency guesses the native currency from the symbol's market.
// Toronto listings carry a ".TO" suffix; everything else is assumed to be
// US-listed unless the reporting default says otherwise.
func (n *LedgerNormalizer) inferCurrency(symbol string) string {
	if strings.HasSuffix(symbol, ".TO") || strings.HasSuffix(symbol, ".V") {
		return "CAD"
	}
	// Plain tickers (AAPL, MSFT, BRK-B) trade on US exchanges
	if !strings.Contains(symbol, ".") {
		return "USD"
	}
	if n.defaultCurrency != "" {
		return n.defaultCurrency
	}
	return "USD"
}

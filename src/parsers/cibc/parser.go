// Package cibc parses CIBC Investor's Edge activity exports.
package cibc

import (
	"io"
	"strings"

	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/parsers"
)

func init() {
	parsers.Register("CIBC", func() parsers.Parser { return &Parser{} })
}

// Parser handles the Investor's Edge CSV layout. The export carries several
// preamble rows before the header, and spells trade actions as "Buy",
// "Sell", "Reinvest" and "Transf In".
type Parser struct{}

var actionMap = map[string]string{
	"buy":       "BUY",
	"sell":      "SELL",
	"reinvest":  "BUY",
	"transf in": "BUY",
}

func (p *Parser) Parse(file io.Reader) ([]models.RawLedgerEntry, error) {
	header, records, err := parsers.ReadAfterPreamble(file, "Transaction Type")
	if err != nil {
		return nil, err
	}
	idx := parsers.HeaderIndex(header)

	var entries []models.RawLedgerEntry
	for _, record := range records {
		action := strings.ToLower(parsers.Field(record, idx, "Transaction Type"))
		side, ok := actionMap[action]
		if !ok {
			continue
		}

		symbol := parsers.CleanSymbol(parsers.Field(record, idx, "Symbol"))
		if symbol == "" {
			continue
		}

		tradeDate, err := parsers.ParseDate(parsers.Field(record, idx, "Transaction Date"))
		if err != nil {
			continue
		}
		quantity, err := parsers.ParseAmount(parsers.Field(record, idx, "Quantity"))
		if err != nil {
			continue
		}
		price, err := parsers.ParseAmount(parsers.Field(record, idx, "Price"))
		if err != nil {
			continue
		}
		commission, err := parsers.ParseAmount(parsers.Field(record, idx, "Commission"))
		if err != nil {
			commission = 0
		}
		if commission < 0 {
			commission = -commission
		}
		if quantity < 0 {
			quantity = -quantity
		}

		currency := strings.ToUpper(parsers.Field(record, idx, "Currency of Amount"))

		entries = append(entries, models.RawLedgerEntry{
			Symbol:     symbol,
			Side:       side,
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
			TradeDate:  tradeDate,
			Currency:   currency,
			Broker:     "CIBC",
			Source:     "CIBC",
		})
	}
	return entries, nil
}

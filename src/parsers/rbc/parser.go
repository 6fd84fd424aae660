// Package rbc parses RBC Direct Investing activity exports.
package rbc

import (
	"io"
	"strings"

	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/parsers"
)

func init() {
	parsers.Register("RBC", func() parsers.Parser { return &Parser{} })
}

// Parser handles the Direct Investing CSV layout. RBC reports trades
// commission-inclusive in the Value column and does not break commission out,
// so entries carry zero commission.
type Parser struct{}

var actionMap = map[string]string{
	"buy":                   "BUY",
	"sell":                  "SELL",
	"reinvestment":          "BUY",
	"dividend reinvestment": "BUY",
}

func (p *Parser) Parse(file io.Reader) ([]models.RawLedgerEntry, error) {
	header, records, err := parsers.ReadAfterPreamble(file, "Activity")
	if err != nil {
		return nil, err
	}
	idx := parsers.HeaderIndex(header)

	var entries []models.RawLedgerEntry
	for _, record := range records {
		action := strings.ToLower(parsers.Field(record, idx, "Activity"))
		side, ok := actionMap[action]
		if !ok {
			continue
		}

		symbol := parsers.CleanSymbol(parsers.Field(record, idx, "Symbol"))
		if symbol == "" {
			continue
		}

		tradeDate, err := parsers.ParseDate(parsers.Field(record, idx, "Date"))
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
		if quantity < 0 {
			quantity = -quantity
		}

		currency := strings.ToUpper(parsers.Field(record, idx, "Currency"))

		entries = append(entries, models.RawLedgerEntry{
			Symbol:     symbol,
			Side:       side,
			Quantity:   quantity,
			Price:      price,
			Commission: 0,
			TradeDate:  tradeDate,
			Currency:   currency,
			Broker:     "RBC",
			Source:     "RBC",
		})
	}
	return entries, nil
}

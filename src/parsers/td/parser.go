// Package td parses TD Direct Investing activity exports.
package td

import (
	"io"
	"strings"

	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/parsers"
)

func init() {
	parsers.Register("TD", func() parsers.Parser { return &Parser{} })
}

// Parser handles the TD Direct Investing CSV layout. TD identifies funds by
// description text rather than symbol, so known descriptions map to tickers
// and everything else falls back to the first token of the description.
type Parser struct{}

var actionMap = map[string]string{
	"buy":  "BUY",
	"sell": "SELL",
	"drip": "BUY",
}

// descriptionSymbols maps TD's fund descriptions to ticker symbols.
var descriptionSymbols = map[string]string{
	"TD CDN EQUITY INDEX-E":     "TDB900",
	"TD US INDEX-E":             "TDB902",
	"TD INTL INDEX-E":           "TDB911",
	"TD CDN BOND INDEX-E":       "TDB909",
	"TD CANADIAN EQUITY INDEX":  "TDB900",
	"TD US EQUITY INDEX":        "TDB902",
	"TD INTERNATIONAL EQ INDEX": "TDB911",
}

func symbolFromDescription(description string) string {
	desc := strings.ToUpper(strings.TrimSpace(description))
	if symbol, ok := descriptionSymbols[desc]; ok {
		return symbol
	}
	for prefix, symbol := range descriptionSymbols {
		if strings.HasPrefix(desc, prefix) {
			return symbol
		}
	}
	tokens := strings.Fields(desc)
	if len(tokens) == 0 {
		return ""
	}
	return parsers.CleanSymbol(tokens[0])
}

func (p *Parser) Parse(file io.Reader) ([]models.RawLedgerEntry, error) {
	header, records, err := parsers.ReadAfterPreamble(file, "Action")
	if err != nil {
		return nil, err
	}
	idx := parsers.HeaderIndex(header)

	var entries []models.RawLedgerEntry
	for _, record := range records {
		action := strings.ToLower(parsers.Field(record, idx, "Action"))
		side, ok := actionMap[action]
		if !ok {
			continue
		}

		symbol := symbolFromDescription(parsers.Field(record, idx, "Description"))
		if symbol == "" {
			continue
		}

		tradeDate, err := parsers.ParseDate(parsers.Field(record, idx, "Trade Date"))
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

		currency := strings.ToUpper(parsers.Field(record, idx, "Currency"))
		if currency == "" {
			currency = "CAD"
		}

		entries = append(entries, models.RawLedgerEntry{
			Symbol:     symbol,
			Side:       side,
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
			TradeDate:  tradeDate,
			Currency:   currency,
			Broker:     "TD",
			Source:     "TD",
		})
	}
	return entries, nil
}

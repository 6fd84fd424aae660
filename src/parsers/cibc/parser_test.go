package cibc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `CIBC Investor's Edge
Account Activity Report

Account: 123-45678
Generated: 2024-07-01

Some preamble text


Transaction Date,Settlement Date,Transaction Type,Symbol,Quantity,Price,Commission,Amount,Currency of Amount,Description
2024-06-03,2024-06-05,Buy,VDY,100,45.12,6.95,"-4,518.95",CAD,VANGUARD FTSE CDN HIGH DIV
2024-06-10,2024-06-12,Sell,AAPL,-10,195.50,6.95,"1,948.05",USD,APPLE INC
2024-06-15,2024-06-15,Dividend,VDY,,,,"35.20",CAD,DIVIDEND PAYMENT
2024-06-20,2024-06-20,Reinvest,VDY,0.78,45.00,0,"-35.10",CAD,DRIP PURCHASE
`

func TestParseCIBCExport(t *testing.T) {
	p := &Parser{}
	entries, err := p.Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 3, "dividend row is not a trade")

	buyRow := entries[0]
	assert.Equal(t, "VDY.TO", buyRow.Symbol)
	assert.Equal(t, "BUY", buyRow.Side)
	assert.InDelta(t, 100.0, buyRow.Quantity, 1e-9)
	assert.InDelta(t, 45.12, buyRow.Price, 1e-9)
	assert.InDelta(t, 6.95, buyRow.Commission, 1e-9)
	assert.Equal(t, "2024-06-03", buyRow.TradeDate)
	assert.Equal(t, "CAD", buyRow.Currency)
	assert.Equal(t, "CIBC", buyRow.Broker)

	sellRow := entries[1]
	assert.Equal(t, "SELL", sellRow.Side)
	assert.InDelta(t, 10.0, sellRow.Quantity, 1e-9, "negative export quantities are normalized")
	assert.Equal(t, "USD", sellRow.Currency)

	dripRow := entries[2]
	assert.Equal(t, "BUY", dripRow.Side, "reinvestments count as buys")
	assert.InDelta(t, 0.78, dripRow.Quantity, 1e-9)
}

func TestParseMissingHeader(t *testing.T) {
	p := &Parser{}
	_, err := p.Parse(strings.NewReader("just,some,csv\nwith,no,header\n"))
	assert.Error(t, err)
}

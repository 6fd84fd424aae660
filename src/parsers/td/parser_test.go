package td

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `TD Direct Investing
Account Activity

Trade Date,Settle Date,Description,Action,Quantity,Price,Commission,Net Amount,Currency
03 Jun 2024,05 Jun 2024,TD CDN EQUITY INDEX-E,Buy,12.345,31.20,0.00,-385.16,CAD
10 Jun 2024,12 Jun 2024,APPLE INC,Sell,5,196.00,9.99,970.01,USD
14 Jun 2024,14 Jun 2024,TD US INDEX-E,DRIP,0.52,55.00,0.00,-28.60,CAD
`

func TestParseTDExport(t *testing.T) {
	p := &Parser{}
	entries, err := p.Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	fund := entries[0]
	assert.Equal(t, "TDB900", fund.Symbol, "known fund descriptions map to tickers")
	assert.Equal(t, "BUY", fund.Side)
	assert.Equal(t, "2024-06-03", fund.TradeDate)
	assert.Equal(t, "CAD", fund.Currency)
	assert.Equal(t, "TD", fund.Broker)

	stock := entries[1]
	assert.Equal(t, "APPLE", stock.Symbol, "unknown descriptions fall back on the first token")
	assert.Equal(t, "SELL", stock.Side)
	assert.InDelta(t, 9.99, stock.Commission, 1e-9)

	drip := entries[2]
	assert.Equal(t, "TDB902", drip.Symbol)
	assert.Equal(t, "BUY", drip.Side)
}

func TestSymbolFromDescription(t *testing.T) {
	assert.Equal(t, "TDB911", symbolFromDescription("TD INTL INDEX-E"))
	assert.Equal(t, "TDB900", symbolFromDescription("td cdn equity index-e "))
	assert.Equal(t, "VANGUARD", symbolFromDescription("VANGUARD FTSE ETF"))
	assert.Equal(t, "", symbolFromDescription("   "))
}

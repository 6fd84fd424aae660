package rbc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `RBC Direct Investing Inc.
Activity Export

Account Number: 98765432

Period: June 2024

As of: 2024-07-01

Date,Activity,Symbol,Symbol Description,Quantity,Price,Settlement Date,Value,Currency,Description
2024-06-03,Buy,XEI,ISHARES S&P/TSX COMP HIGH DIV,50,26.10,2024-06-05,"-1,305.00",CAD,BOUGHT 50 XEI
2024-06-14,Dividend Reinvestment,XEI,ISHARES S&P/TSX COMP HIGH DIV,1.25,26.00,2024-06-14,"-32.50",CAD,DRIP
2024-06-20,Deposits & Contributions,,,,,2024-06-20,"500.00",CAD,CONTRIBUTION
2024-06-25,Sell,MSFT,MICROSOFT CORP,5,440.00,2024-06-27,"2,200.00",USD,SOLD 5 MSFT
`

func TestParseRBCExport(t *testing.T) {
	p := &Parser{}
	entries, err := p.Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 3, "cash contribution is not a trade")

	assert.Equal(t, "XEI.TO", entries[0].Symbol)
	assert.Equal(t, "BUY", entries[0].Side)
	assert.InDelta(t, 50.0, entries[0].Quantity, 1e-9)
	assert.Zero(t, entries[0].Commission, "RBC reports trades commission-inclusive")
	assert.Equal(t, "RBC", entries[0].Broker)

	assert.Equal(t, "BUY", entries[1].Side, "DRIP counts as a buy")
	assert.InDelta(t, 1.25, entries[1].Quantity, 1e-9)

	assert.Equal(t, "MSFT", entries[2].Symbol)
	assert.Equal(t, "SELL", entries[2].Side)
	assert.Equal(t, "USD", entries[2].Currency)
}

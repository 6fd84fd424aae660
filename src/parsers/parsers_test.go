package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSymbol(t *testing.T) {
	cases := map[string]string{
		"vdy":        "VDY.TO",
		"VDY.TO":     "VDY.TO",
		"XEI UNITS":  "XEI.TO",
		"AAPL":       "AAPL",
		" cash ":     "CASH.TO",
		"VFV ETF":    "VFV",
		"TD":         "TD.TO",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanSymbol(in), "input %q", in)
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1,234.56")
	require.NoError(t, err)
	assert.InDelta(t, 1234.56, v, 1e-9)

	v, err = ParseAmount(" $9.95 ")
	require.NoError(t, err)
	assert.InDelta(t, 9.95, v, 1e-9)

	v, err = ParseAmount("")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = ParseAmount("n/a")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-06-03", "06/03/2024", "03 Jun 2024", "Jun 3, 2024"} {
		got, err := ParseDate(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, "2024-06-03", got)
	}
	_, err := ParseDate("3rd of June")
	assert.Error(t, err)
}

func TestGetParserUnknownBroker(t *testing.T) {
	_, err := GetParser("QUESTRADE")
	assert.Error(t, err)
}

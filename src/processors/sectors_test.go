package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

func sectorPos(symbol string, valueRpt float64) models.PositionRow {
	return models.PositionRow{Symbol: symbol, MarketValueRpt: valueRpt}
}

func TestSectorExposureGroupsAndWeights(t *testing.T) {
	positions := []models.PositionRow{
		sectorPos("MSFT", 3000),
		sectorPos("NVDA", 2000),
		sectorPos("TD.TO", 4000),
		sectorPos("XEQT.TO", 1000),
	}
	sectors := map[string]string{
		"MSFT":    "Technology",
		"NVDA":    "Technology",
		"TD.TO":   "Financial Services",
		"XEQT.TO": "Index Fund",
	}

	exposure := BuildSectorExposure(positions, sectors, "CAD")

	assert.Equal(t, "CAD", exposure.ReportingCurrency)
	assert.InDelta(t, 10000, exposure.TotalMarketValue, 1e-9)
	require.Len(t, exposure.Slices, 3)
	assert.Equal(t, 3, exposure.SectorCount)

	// Descending by value: Technology 5000, Financial Services 4000, Index Fund 1000.
	assert.Equal(t, "Technology", exposure.Slices[0].Sector)
	assert.InDelta(t, 5000, exposure.Slices[0].MarketValue, 1e-9)
	assert.InDelta(t, 50, exposure.Slices[0].WeightPct, 1e-9)
	assert.Equal(t, "Financial Services", exposure.Slices[1].Sector)
	assert.Equal(t, "Index Fund", exposure.Slices[2].Sector)

	assert.Equal(t, "Technology", exposure.LargestSector)
	assert.InDelta(t, 50, exposure.LargestWeightPct, 1e-9)
}

func TestSectorExposureConcentrationLabels(t *testing.T) {
	sectors := map[string]string{
		"A": "Technology", "B": "Energy", "C": "Healthcare", "D": "Utilities",
	}

	high := BuildSectorExposure([]models.PositionRow{
		sectorPos("A", 50), sectorPos("B", 30), sectorPos("C", 20),
	}, sectors, "CAD")
	assert.Equal(t, "High", high.Concentration)

	moderate := BuildSectorExposure([]models.PositionRow{
		sectorPos("A", 35), sectorPos("B", 35), sectorPos("C", 30),
	}, sectors, "CAD")
	assert.Equal(t, "Moderate", moderate.Concentration)

	// Largest sector at exactly 30% stays on the diversified side.
	diversified := BuildSectorExposure([]models.PositionRow{
		sectorPos("A", 30), sectorPos("B", 30), sectorPos("C", 25), sectorPos("D", 15),
	}, sectors, "CAD")
	assert.Equal(t, "Diversified", diversified.Concentration)
}

func TestSectorExposureUnknownFallback(t *testing.T) {
	positions := []models.PositionRow{
		sectorPos("AAPL", 600),
		sectorPos("ZZZZ", 400),
	}
	exposure := BuildSectorExposure(positions, map[string]string{"AAPL": "Technology"}, "CAD")

	require.Len(t, exposure.Slices, 2)
	assert.Equal(t, "Unknown", exposure.Slices[1].Sector)
	assert.InDelta(t, 400, exposure.Slices[1].MarketValue, 1e-9)
}

func TestSectorExposureEmptyPortfolio(t *testing.T) {
	exposure := BuildSectorExposure(nil, nil, "CAD")

	assert.Zero(t, exposure.TotalMarketValue)
	assert.Empty(t, exposure.Slices)
	assert.Equal(t, "Diversified", exposure.Concentration)
	assert.Zero(t, exposure.SectorCount)
}

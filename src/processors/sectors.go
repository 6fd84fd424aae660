package processors

import (
	"sort"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// Concentration thresholds over the largest sector's weight.
const (
	highConcentrationPct     = 40.0
	moderateConcentrationPct = 30.0
)

// BuildSectorExposure groups the open positions by sector and reads the
// concentration off the largest slice. Positions whose symbol is missing
// from the sector map land in "Unknown". Market values are taken in the
// reporting currency, so positions carried at cost still contribute.
func BuildSectorExposure(positions []models.PositionRow, sectors map[string]string, reportingCurrency string) models.SectorExposure {
	exposure := models.SectorExposure{
		ReportingCurrency: reportingCurrency,
		Concentration:     "Diversified",
	}

	totals := make(map[string]float64)
	for _, pos := range positions {
		sector := sectors[pos.Symbol]
		if sector == "" {
			sector = "Unknown"
		}
		totals[sector] += pos.MarketValueRpt
		exposure.TotalMarketValue += pos.MarketValueRpt
	}
	if len(totals) == 0 {
		return exposure
	}

	for sector, value := range totals {
		slice := models.SectorSlice{Sector: sector, MarketValue: value}
		if exposure.TotalMarketValue > 0 {
			slice.WeightPct = value / exposure.TotalMarketValue * 100
		}
		exposure.Slices = append(exposure.Slices, slice)
	}
	sort.Slice(exposure.Slices, func(i, j int) bool {
		if exposure.Slices[i].MarketValue != exposure.Slices[j].MarketValue {
			return exposure.Slices[i].MarketValue > exposure.Slices[j].MarketValue
		}
		return exposure.Slices[i].Sector < exposure.Slices[j].Sector
	})

	largest := exposure.Slices[0]
	exposure.LargestSector = largest.Sector
	exposure.LargestWeightPct = largest.WeightPct
	exposure.SectorCount = len(exposure.Slices)
	switch {
	case largest.WeightPct > highConcentrationPct:
		exposure.Concentration = "High"
	case largest.WeightPct > moderateConcentrationPct:
		exposure.Concentration = "Moderate"
	}
	return exposure
}

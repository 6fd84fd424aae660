package processors

import (
	"sort"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DividendProjector turns the current holdings plus each symbol's dividend
// schedule into a 12-month payout calendar in the reporting currency.
type DividendProjector struct {
	reportingCurrency string
}

func NewDividendProjector(reportingCurrency string) *DividendProjector {
	return &DividendProjector{reportingCurrency: reportingCurrency}
}

// Project distributes each holding's per-payment dividend rate over its
// payment months. Unknown schedules fall back on the declared frequency
// (Monthly -> 12 payments, Quarterly -> 4, else 1).
func (p *DividendProjector) Project(positions []models.PositionRow, info map[string]models.DividendInfo, rates map[string]float64) models.DividendProjection {
	byMonth := make(map[int][]models.MonthPayout)
	var holdings []models.DividendHolding
	totalAnnual := 0.0

	for _, pos := range positions {
		div, ok := info[pos.Symbol]
		if !ok || div.Rate <= 0 {
			continue
		}

		rate := rateFor(div.Currency, p.reportingCurrency, rates)
		months := div.Months
		payments := len(months)
		if payments == 0 {
			switch div.Frequency {
			case "Monthly":
				payments = 12
			case "Quarterly":
				payments = 4
			default:
				payments = 1
			}
		}

		annualRpt := Convert(div.Rate*pos.Quantity*float64(payments), div.Currency, p.reportingCurrency, rate)
		totalAnnual += annualRpt

		holdings = append(holdings, models.DividendHolding{
			Symbol:          pos.Symbol,
			Quantity:        pos.Quantity,
			Rate:            div.Rate,
			Frequency:       div.Frequency,
			AnnualPayoutRpt: annualRpt,
			Months:          months,
		})

		perPayment := Convert(div.Rate*pos.Quantity, div.Currency, p.reportingCurrency, rate)
		for _, m := range months {
			if m < 1 || m > 12 {
				continue
			}
			byMonth[m] = append(byMonth[m], models.MonthPayout{Symbol: pos.Symbol, Amount: perPayment})
		}
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].AnnualPayoutRpt > holdings[j].AnnualPayoutRpt
	})

	calendar := make([]models.DividendMonth, 0, 12)
	for m := 1; m <= 12; m++ {
		total := 0.0
		for _, payout := range byMonth[m] {
			total += payout.Amount
		}
		calendar = append(calendar, models.DividendMonth{
			Month:      monthNames[m-1],
			MonthIndex: m,
			Total:      total,
			Breakdown:  byMonth[m],
		})
	}

	return models.DividendProjection{
		TotalAnnualRpt:    totalAnnual,
		MonthlyAverageRpt: totalAnnual / 12,
		Calendar:          calendar,
		Holdings:          holdings,
	}
}

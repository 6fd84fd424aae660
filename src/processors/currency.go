package processors

import (
	"fmt"

	"github.com/Rhymond/go-money"
)

// Convert translates an amount between the native and reporting currencies
// with a single multiply by the supplied spot rate. The rate is caller
// oriented: units of `to` per one unit of `from`. Same-currency conversions
// short-circuit so a rate of 0 cannot zero them out.
//
// All conversions use the one current spot rate supplied by the market-data
// collaborator — including the cost-basis leg that was incurred at a
// historical rate. That trade-off (simplicity over FX attribution) matches
// the source data model and is intentional.
func Convert(amount float64, from, to string, spotRate float64) float64 {
	if from == to {
		return amount
	}
	return amount * spotRate
}

// ValidateCurrency rejects codes that are not ISO 4217 currencies.
func ValidateCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency code %q", code)
	}
	return nil
}

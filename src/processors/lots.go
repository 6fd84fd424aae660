package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// OversellError marks a sell transaction that exceeds the open quantity for
// its symbol+account key. This is a data-integrity problem in the ledger:
// the sell is rejected whole (never partially applied) and the open lots for
// the key are left untouched.
type OversellError struct {
	Key       models.AccountKey
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("oversell on %s (%s/%s): sell of %s exceeds open quantity %s",
		e.Key.Symbol, e.Key.Broker, e.Key.AccountType, e.Requested, e.Available)
}

// LotTracker maintains the per-key FIFO queues of open buy lots and matches
// sells against them, emitting one realized record per fully matched sell.
type LotTracker struct {
	queues map[models.AccountKey][]models.Lot
	order  []models.AccountKey // Key insertion order, for deterministic output
}

func NewLotTracker() *LotTracker {
	return &LotTracker{queues: make(map[models.AccountKey][]models.Lot)}
}

// Process consumes the ledger in chronological order and returns the realized
// records plus any oversell issues. Transactions sharing a trade date keep
// their ledger insertion order: the sort is stable and compares dates only,
// so FIFO results are reproducible run to run.
func (t *LotTracker) Process(txs []models.Transaction) ([]models.RealizedRecord, []models.OversellIssue) {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradeDate.Before(ordered[j].TradeDate)
	})

	var realized []models.RealizedRecord
	var oversells []models.OversellIssue

	for _, tx := range ordered {
		switch tx.Side {
		case models.SideBuy:
			t.addLot(tx)
		case models.SideSell:
			rec, err := t.matchSell(tx)
			if err != nil {
				osErr := err.(*OversellError)
				requested, _ := osErr.Requested.Float64()
				available, _ := osErr.Available.Float64()
				oversells = append(oversells, models.OversellIssue{
					Key:       osErr.Key,
					TradeDate: tx.TradeDate,
					Requested: requested,
					Available: available,
				})
				continue
			}
			realized = append(realized, rec)
		}
	}
	return realized, oversells
}

// OpenLots returns the remaining open lots across all keys, keys in first-seen
// order, lots in FIFO order within each key.
func (t *LotTracker) OpenLots() []models.Lot {
	var lots []models.Lot
	for _, key := range t.order {
		lots = append(lots, t.queues[key]...)
	}
	return lots
}

// OpenQuantity returns the total open quantity for a key.
func (t *LotTracker) OpenQuantity(key models.AccountKey) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range t.queues[key] {
		total = total.Add(lot.Quantity)
	}
	return total
}

func (t *LotTracker) addLot(tx models.Transaction) {
	key := tx.Key()
	if _, seen := t.queues[key]; !seen {
		t.order = append(t.order, key)
	}
	qty := decimal.NewFromFloat(tx.Quantity)
	cost := decimal.NewFromFloat(tx.Price).Mul(qty).Add(decimal.NewFromFloat(tx.Commission))
	t.queues[key] = append(t.queues[key], models.Lot{
		Key:        key,
		OpenedDate: tx.TradeDate,
		Quantity:   qty,
		Cost:       cost,
		Currency:   tx.Currency,
	})
}

// matchSell consumes lots oldest-first. All-or-nothing: the open quantity is
// checked up front so a failing sell never leaves a half-consumed queue.
func (t *LotTracker) matchSell(tx models.Transaction) (models.RealizedRecord, error) {
	key := tx.Key()
	sellQty := decimal.NewFromFloat(tx.Quantity)

	available := t.OpenQuantity(key)
	if available.LessThan(sellQty) {
		return models.RealizedRecord{}, &OversellError{Key: key, Requested: sellQty, Available: available}
	}

	remaining := sellQty
	costBasisSold := decimal.Zero
	queue := t.queues[key]

	for remaining.IsPositive() {
		lot := &queue[0]
		if lot.Quantity.LessThanOrEqual(remaining) {
			// Full lot consumed
			costBasisSold = costBasisSold.Add(lot.Cost)
			remaining = remaining.Sub(lot.Quantity)
			queue = queue[1:]
		} else {
			// Partial: split cost proportionally, keep the rest in the lot
			costPiece := lot.Cost.Mul(remaining).Div(lot.Quantity)
			lot.Cost = lot.Cost.Sub(costPiece)
			lot.Quantity = lot.Quantity.Sub(remaining)
			costBasisSold = costBasisSold.Add(costPiece)
			remaining = decimal.Zero
		}
	}
	t.queues[key] = queue

	proceeds := decimal.NewFromFloat(tx.Price).Mul(sellQty)
	pnl := proceeds.Sub(costBasisSold).Sub(decimal.NewFromFloat(tx.Commission))

	costBasisF, _ := costBasisSold.Float64()
	proceedsF, _ := proceeds.Float64()
	pnlF, _ := pnl.Float64()

	// Return-of-capital edge case: a zero cost basis makes the percentage
	// undefined. Reported as nil, not 0, so averages don't swallow it.
	var pnlPct *float64
	if costBasisSold.IsPositive() {
		pctF, _ := pnl.Div(costBasisSold).Mul(decimal.NewFromInt(100)).Float64()
		pnlPct = &pctF
	}

	return models.RealizedRecord{
		Symbol:        tx.Symbol,
		Broker:        tx.Broker,
		AccountType:   tx.AccountType,
		Currency:      tx.Currency,
		QuantitySold:  tx.Quantity,
		CostBasisSold: costBasisF,
		Proceeds:      proceedsF,
		Commission:    tx.Commission,
		PnLAmount:     pnlF,
		PnLPct:        pnlPct,
		CloseDate:     tx.TradeDate,
		Source:        tx.Source,
	}, nil
}

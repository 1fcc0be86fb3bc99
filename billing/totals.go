package billing

import (
	"invoicing-backend/models"
	"invoicing-backend/utils"

	"go.uber.org/zap"
)

// Totals is the computed money triple of an invoice, each value rounded
// to 2 decimal places.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// TotalsEngine computes invoice totals from the pivot line items. It is
// deterministic and side-effect free apart from data-quality warnings.
type TotalsEngine struct {
	log *zap.Logger
}

func NewTotalsEngine(log *zap.Logger) *TotalsEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &TotalsEngine{log: log}
}

// Calculate sums price*quantity over the items, then applies the tax
// factor. Rounding happens at each stage (subtotal, then tax) before
// combining, so the persisted triple always satisfies
// total == round(subtotal+tax, 2).
//
// A line item with a missing price or quantity contributes 0 and is
// logged as a data-quality warning; it never fails the computation. An
// empty collection yields 0.00 across the board.
func (e *TotalsEngine) Calculate(items []models.InvoiceItem, taxFactor float64) Totals {
	var raw float64
	for _, item := range items {
		if item.Price == nil || item.Quantity == nil {
			e.log.Warn("line item missing price or quantity, counting as 0",
				zap.Uint("item_id", item.ID),
				zap.Uint("service_id", item.ServiceID),
				zap.Bool("price_missing", item.Price == nil),
				zap.Bool("quantity_missing", item.Quantity == nil))
			continue
		}
		raw += *item.Price * float64(*item.Quantity)
	}

	subtotal := utils.Round2(raw)
	tax := utils.Round2(subtotal * taxFactor)
	total := utils.Round2(subtotal + tax)

	return Totals{Subtotal: subtotal, Tax: tax, Total: total}
}

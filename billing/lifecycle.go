package billing

import (
	"fmt"
	"time"

	"invoicing-backend/models"
	"invoicing-backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SequenceSource yields the next invoice sequence number. The default
// implementation reproduces the legacy behavior: count of all invoices
// ever created (soft-deleted included) plus one. That read-then-use
// pattern can hand out the same sequence to two concurrent creates; a
// transactionally-guarded counter can be swapped in here without touching
// the number formatting.
type SequenceSource interface {
	Next(tx *gorm.DB) (int64, error)
}

// CountSequence derives the next sequence from the unscoped invoice count.
type CountSequence struct{}

func (CountSequence) Next(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Unscoped().Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count + 1, nil
}

// InvoiceLifecycle orchestrates numbering and totals around the create
// and update transitions of an invoice record. Recompute and save are
// deliberately separate operations: persisting computed totals writes
// columns directly and never re-enters any recompute path.
type InvoiceLifecycle struct {
	numbering *NumberingPolicy
	totals    *TotalsEngine
	tax       *TaxPolicy
	seq       SequenceSource
	log       *zap.Logger
}

func NewInvoiceLifecycle(log *zap.Logger) *InvoiceLifecycle {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceLifecycle{
		numbering: NewNumberingPolicy(log),
		totals:    NewTotalsEngine(log),
		tax:       NewTaxPolicy(log),
		seq:       CountSequence{},
		log:       log,
	}
}

// WithSequenceSource swaps the sequence source (tests, future counters).
func (l *InvoiceLifecycle) WithSequenceSource(s SequenceSource) *InvoiceLifecycle {
	l.seq = s
	return l
}

// OnCreate assigns the invoice number (exactly once, never regenerated
// later), computes the initial totals from whatever line items are
// attached, and creates the record. Initial totals go through the same
// Calculate path as every later recompute. A line item arriving without
// a quantity gets the column default (1) filled in here, before totals
// are computed, so the persisted row and the computed subtotal agree;
// the nil->0 path in Calculate is reserved for legacy rows that are
// genuinely NULL in the store.
func (l *InvoiceLifecycle) OnCreate(tx *gorm.DB, inv *models.Invoice, settings Settings) error {
	for i := range inv.Items {
		if inv.Items[i].Quantity == nil {
			one := 1
			inv.Items[i].Quantity = &one
		}
	}
	if inv.InvoiceNumber == "" {
		seq, err := l.seq.Next(tx)
		if err != nil {
			return err
		}
		issued := inv.IssueTime()
		if issued.IsZero() {
			issued = time.Now()
			inv.IssueDate = datatypes.Date(issued)
		}
		prefix := ""
		if settings != nil {
			prefix = settings.Prefix()
		}
		inv.InvoiceNumber = l.numbering.Generate(issued, prefix, seq)
	}

	t := l.totals.Calculate(inv.Items, l.tax.TaxFactor(settings))
	inv.Subtotal, inv.Tax, inv.Total = t.Subtotal, t.Tax, t.Total

	if err := tx.Create(inv).Error; err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// OnDateChanged re-dates an already-numbered invoice after its issue date
// moved. The prefix and sequence segments are preserved; a malformed
// stored number is never silently corrected, the old value stays and a
// warning is logged. The caller persists the invoice afterwards.
func (l *InvoiceLifecycle) OnDateChanged(inv *models.Invoice, newIssueDate time.Time) {
	inv.IssueDate = datatypes.Date(newIssueDate)
	if inv.InvoiceNumber == "" {
		return
	}
	if patched, ok := l.numbering.Repatch(inv.InvoiceNumber, newIssueDate); ok {
		inv.InvoiceNumber = patched
	} else {
		l.log.Warn("keeping existing invoice number after failed re-date",
			zap.Uint("invoice_id", inv.ID),
			zap.String("invoice_number", inv.InvoiceNumber))
	}
}

// RecalculateAndPersist reloads the authoritative line items from the
// store, recomputes the totals, and writes them back only when at least
// one of the three fields actually changed. Repeated calls with unchanged
// items therefore issue zero writes. The write uses UpdateColumns so no
// model callbacks fire and saving totals cannot trigger another recompute.
//
// Calling it for an invoice that was never persisted is a caller error:
// there are no addressable line items yet, so the in-memory totals are
// reset to zero and a warning is logged instead of failing.
func (l *InvoiceLifecycle) RecalculateAndPersist(tx *gorm.DB, inv *models.Invoice, settings Settings) (bool, error) {
	if inv.ID == 0 {
		l.log.Warn("recalculate requested for an unsaved invoice, resetting totals to zero")
		inv.Subtotal, inv.Tax, inv.Total = 0, 0, 0
		inv.Items = nil
		return false, nil
	}

	var items []models.InvoiceItem
	if err := tx.Where("invoice_id = ?", inv.ID).Order("sort_order ASC, id ASC").Find(&items).Error; err != nil {
		return false, fmt.Errorf("reload invoice items: %w", err)
	}
	inv.Items = items

	t := l.totals.Calculate(items, l.tax.TaxFactor(settings))

	changed := utils.Round2(inv.Subtotal) != t.Subtotal ||
		utils.Round2(inv.Tax) != t.Tax ||
		utils.Round2(inv.Total) != t.Total

	inv.Subtotal, inv.Tax, inv.Total = t.Subtotal, t.Tax, t.Total
	if !changed {
		return false, nil
	}

	err := tx.Model(&models.Invoice{}).
		Where("id = ?", inv.ID).
		UpdateColumns(map[string]any{
			"subtotal": t.Subtotal,
			"tax":      t.Tax,
			"total":    t.Total,
		}).Error
	if err != nil {
		return false, fmt.Errorf("persist totals: %w", err)
	}
	return true, nil
}

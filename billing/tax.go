package billing

import (
	"strconv"
	"strings"

	"invoicing-backend/utils"

	"go.uber.org/zap"
)

// DefaultTaxPercent is the system fallback when the configured tax rate
// is absent, non-numeric, or outside [0,100].
const DefaultTaxPercent = 16.0

// Settings is the read-only configuration snapshot handed to the billing
// policies. models.Setting satisfies it; tests use literal fakes.
type Settings interface {
	// TaxRate returns the configured tax percentage as entered in the
	// settings form. May be blank or garbage; TaxPolicy sanitizes it.
	TaxRate() string
	// Prefix returns the invoice number prefix ("" for none).
	Prefix() string
}

// TaxPolicy resolves the configured tax percentage into a decimal factor.
// It never fails: bad configuration degrades to DefaultTaxPercent with a
// logged warning.
type TaxPolicy struct {
	log *zap.Logger
}

func NewTaxPolicy(log *zap.Logger) *TaxPolicy {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaxPolicy{log: log}
}

// TaxFactor returns the tax multiplier, e.g. "16" -> 0.16, rounded to 4
// decimal places.
func (p *TaxPolicy) TaxFactor(s Settings) float64 {
	raw := ""
	if s != nil {
		raw = strings.TrimSpace(s.TaxRate())
	}

	pct, err := strconv.ParseFloat(raw, 64)
	switch {
	case raw == "":
		p.log.Warn("tax rate not configured, using default",
			zap.Float64("default_percent", DefaultTaxPercent))
		pct = DefaultTaxPercent
	case err != nil:
		p.log.Warn("tax rate is not numeric, using default",
			zap.String("value", raw),
			zap.Float64("default_percent", DefaultTaxPercent))
		pct = DefaultTaxPercent
	case pct < 0 || pct > 100:
		p.log.Warn("tax rate out of range [0,100], using default",
			zap.Float64("value", pct),
			zap.Float64("default_percent", DefaultTaxPercent))
		pct = DefaultTaxPercent
	}

	return utils.Round4(pct / 100)
}

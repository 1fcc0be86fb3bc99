package billing

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// numberDateLayout is the date segment format inside an invoice number.
const numberDateLayout = "20060102"

// NumberingPolicy builds and re-dates human-readable invoice numbers of
// the form "[prefix-]YYYYMMDD-sequence". It is pure string/date logic and
// never touches storage; InvoiceLifecycle is its only caller.
type NumberingPolicy struct {
	log *zap.Logger
}

func NewNumberingPolicy(log *zap.Logger) *NumberingPolicy {
	if log == nil {
		log = zap.NewNop()
	}
	return &NumberingPolicy{log: log}
}

// Generate assembles a new invoice number. A blank prefix is dropped so
// the number starts with the date segment. The sequence is supplied by
// the caller; see SequenceSource.
func (p *NumberingPolicy) Generate(issueDate time.Time, prefix string, seq int64) string {
	parts := make([]string, 0, 3)
	if t := strings.TrimSpace(prefix); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, issueDate.Format(numberDateLayout), strconv.FormatInt(seq, 10))
	return strings.Join(parts, "-")
}

// Repatch replaces the date segment of an existing number with the new
// issue date, preserving the prefix and sequence. Only the final two
// segments are treated as date and sequence, so a prefix may itself
// contain '-' characters.
//
// A number with fewer than two segments, or whose final segment is not
// purely numeric, is reported as malformed: Repatch logs a warning and
// returns ok=false so the caller leaves the stored number untouched.
func (p *NumberingPolicy) Repatch(existing string, newIssueDate time.Time) (string, bool) {
	parts := strings.Split(existing, "-")
	n := len(parts)

	if n < 2 {
		p.log.Warn("invoice number has too few segments to re-date",
			zap.String("invoice_number", existing),
			zap.Int("segments", n))
		return "", false
	}

	seq := parts[n-1]
	if !isDigits(seq) {
		p.log.Warn("invoice number sequence segment is not numeric",
			zap.String("invoice_number", existing),
			zap.String("segment", seq))
		return "", false
	}

	out := make([]string, 0, 3)
	if prefix := strings.TrimSpace(strings.Join(parts[:n-2], "-")); prefix != "" {
		out = append(out, prefix)
	}
	out = append(out, newIssueDate.Format(numberDateLayout), seq)
	return strings.Join(out, "-"), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

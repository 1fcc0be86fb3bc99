package models

import "time"

// Setting is the singleton billing configuration record, written through
// the admin settings form and only ever read by invoice logic.
//
// DefaultTaxRate is kept as a string on purpose: the value originates in
// a free-form settings form, and the tax policy is the single place that
// parses and range-checks it (falling back to a system default).
type Setting struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	CompanyName    string    `json:"company_name" gorm:"size:100"`
	CompanyAddress string    `json:"company_address" gorm:"size:255"`
	CompanyEmail   string    `json:"company_email" gorm:"size:100"`
	CompanyPhone   string    `json:"company_phone" gorm:"size:20"`
	CompanyGST     string    `json:"company_gst" gorm:"size:50"`
	DefaultTaxRate string    `json:"default_tax_rate" gorm:"size:20"`
	InvoicePrefix  string    `json:"invoice_prefix" gorm:"size:30;default:INV"`
	FinalText      string    `json:"final_text"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TaxRate returns the raw configured percentage string.
func (s *Setting) TaxRate() string { return s.DefaultTaxRate }

// Prefix returns the configured invoice number prefix.
func (s *Setting) Prefix() string { return s.InvoicePrefix }

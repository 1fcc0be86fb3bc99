package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invoice is the live state of a billing document. The invoice number is
// assigned exactly once at creation; subtotal/tax/total are recomputed
// whenever the line items change. Invoices are soft-deleted only, so the
// numbering sequence (count of all invoices ever created) never shrinks.
type Invoice struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	InvoiceNumber string  `json:"invoice_number" gorm:"uniqueIndex"`
	ClientID      *uint   `json:"client_id"`
	Client        *Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`

	IssueDate datatypes.Date `json:"issue_date" gorm:"not null"`

	Items    []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal float64       `json:"subtotal" gorm:"type:numeric(10,2)"`
	Tax      float64       `json:"tax" gorm:"type:numeric(10,2)"`
	Total    float64       `json:"total" gorm:"type:numeric(10,2)"`

	// Current rendered artifact; replaced wholesale on each export.
	PdfFileID *uint    `json:"pdf_file_id"`
	PdfFile   *PdfFile `json:"pdf_file,omitempty" gorm:"foreignKey:PdfFileID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// InvoiceItem is the invoice<->service pivot row. Price and quantity are
// nullable on purpose: legacy rows may lack either, and the totals engine
// treats a missing value as 0 rather than failing.
type InvoiceItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	InvoiceID   uint      `json:"-" gorm:"index:idx_invoice_items_invoice"`
	ServiceID   uint      `json:"service_id" gorm:"not null;index"`
	Service     *Service  `json:"service,omitempty" gorm:"foreignKey:ServiceID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Price       *float64  `json:"price" gorm:"type:numeric(10,2)"`
	Quantity    *int      `json:"quantity" gorm:"default:1"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IssueTime returns the issue date as a plain time.Time.
func (i *Invoice) IssueTime() time.Time {
	return time.Time(i.IssueDate)
}

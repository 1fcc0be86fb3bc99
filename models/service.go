package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is a billable catalog item. Per-invoice price, quantity and
// description live on the InvoiceItem pivot, not here.
type Service struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null;uniqueIndex;size:255"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

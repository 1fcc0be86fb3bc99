package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is an invoice recipient. Email and phone are optional but at
// least one must be present; both are unique when set and stored as NULL
// when blank so uniqueness never compares empty strings.
type Client struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null;index"`
	Email     *string        `json:"email" gorm:"uniqueIndex"`
	Phone     *string        `json:"phone" gorm:"uniqueIndex"`
	Address   string         `json:"address"`
	GST       *string        `json:"gst" gorm:"uniqueIndex"`
	Invoices  []Invoice      `json:"-" gorm:"foreignKey:ClientID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasContact reports whether at least one contact channel is set.
func (c *Client) HasContact() bool {
	return c.Email != nil || c.Phone != nil
}

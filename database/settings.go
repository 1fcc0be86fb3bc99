package database

import (
	"errors"
	"fmt"

	"invoicing-backend/models"

	"gorm.io/gorm"
)

// LoadSettings returns the singleton configuration record, creating it
// with defaults on first access. Invoice logic receives the returned
// snapshot and never writes it back.
func LoadSettings(tx *gorm.DB) (*models.Setting, error) {
	var s models.Setting
	err := tx.Order("id ASC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.Setting{InvoicePrefix: "INV"}
		if err := tx.Create(&s).Error; err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &s, nil
}

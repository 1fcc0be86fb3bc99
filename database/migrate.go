package database

import (
	"fmt"

	"invoicing-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - Money column types (NUMERIC(10,2))
// - Foreign key: invoice_items.service_id -> services.id
// - Basic CHECK constraints (non-negative price/quantity)
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Setting{},
			&models.Client{},
			&models.Service{},
			&models.PdfFile{},
			&models.Invoice{},
			&models.InvoiceItem{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(10,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE invoices      ALTER COLUMN subtotal TYPE numeric(10,2)`,
			`ALTER TABLE invoices      ALTER COLUMN tax      TYPE numeric(10,2)`,
			`ALTER TABLE invoices      ALTER COLUMN total    TYPE numeric(10,2)`,
			`ALTER TABLE invoice_items ALTER COLUMN price    TYPE numeric(10,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: invoice_items.service_id -> services.id (RESTRICT/RESTRICT) ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'invoice_items'::regclass
		  AND conname  = 'fk_invoice_items_service'
	) THEN
		ALTER TABLE invoice_items
		ADD CONSTRAINT fk_invoice_items_service
		FOREIGN KEY (service_id)
		REFERENCES services(id)
		ON UPDATE RESTRICT
		ON DELETE RESTRICT;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoice_items'::regclass
					  AND conname  = 'chk_invoice_items_price_nonneg'
				) THEN
					ALTER TABLE invoice_items
					ADD CONSTRAINT chk_invoice_items_price_nonneg
					CHECK (price IS NULL OR price >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoice_items'::regclass
					  AND conname  = 'chk_invoice_items_quantity_nonneg'
				) THEN
					ALTER TABLE invoice_items
					ADD CONSTRAINT chk_invoice_items_quantity_nonneg
					CHECK (quantity IS NULL OR quantity >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}

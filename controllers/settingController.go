package controllers

import (
	"invoicing-backend/database"
	"invoicing-backend/middlewares"
	"invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SettingInput backs the admin settings form. The tax rate arrives as a
// string; the tax policy validates and defaults it at read time, so a bad
// value here degrades gracefully instead of blocking the form.
type SettingInput struct {
	CompanyName    *string `json:"company_name" validate:"omitempty,max=100"`
	CompanyAddress *string `json:"company_address" validate:"omitempty,max=255"`
	CompanyEmail   *string `json:"company_email" validate:"omitempty,max=100"`
	CompanyPhone   *string `json:"company_phone" validate:"omitempty,max=20"`
	CompanyGST     *string `json:"company_gst" validate:"omitempty,max=50"`
	DefaultTaxRate *string `json:"default_tax_rate" validate:"omitempty,max=20"`
	InvoicePrefix  *string `json:"invoice_prefix" validate:"omitempty,max=30"`
	FinalText      *string `json:"final_text"`
}

func GetSettings(c *fiber.Ctx) error {
	settings, err := database.LoadSettings(middlewares.Tx(c))
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

func UpdateSettings(c *fiber.Ctx) error {
	var patch SettingInput
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	tx := middlewares.Tx(c)
	settings, err := database.LoadSettings(tx)
	if err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return c.JSON(settings)
	}
	if err := tx.Model(settings).Updates(updates).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update settings",
			"error":   err.Error(),
		})
	}
	return c.JSON(settings)
}

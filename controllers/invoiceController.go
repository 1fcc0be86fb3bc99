package controllers

import (
	"strconv"
	"time"

	"invoicing-backend/database"
	"invoicing-backend/logger"
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/pdf"
	"invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const issueDateLayout = "2006-01-02"

type InvoiceItemInput struct {
	ServiceID   uint     `json:"service_id" validate:"required"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Quantity    *int     `json:"quantity" validate:"omitempty,gte=0"`
	Description string   `json:"description"`
	SortOrder   int      `json:"sort_order"`
}

type InvoiceInput struct {
	ClientID  *uint              `json:"client_id"`
	IssueDate string             `json:"issue_date" validate:"required,datetime=2006-01-02"`
	Items     []InvoiceItemInput `json:"items" validate:"dive"`
}

func pivotRows(inputs []InvoiceItemInput) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		sort := in.SortOrder
		if sort == 0 {
			sort = i
		}
		items = append(items, models.InvoiceItem{
			ServiceID:   in.ServiceID,
			Price:       in.Price,
			Quantity:    in.Quantity,
			Description: in.Description,
			SortOrder:   sort,
		})
	}
	return items
}

func CreateInvoice(c *fiber.Ctx) error {
	var input InvoiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	issued, err := time.Parse(issueDateLayout, input.IssueDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid issue date")
	}

	tx := middlewares.Tx(c)
	settings, err := database.LoadSettings(tx)
	if err != nil {
		return err
	}

	invoice := models.Invoice{
		ClientID:  input.ClientID,
		IssueDate: datatypes.Date(issued),
		Items:     pivotRows(input.Items),
	}
	if err := Lifecycle.OnCreate(tx, &invoice, settings); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create invoice",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(invoice)
}

func GetInvoices(c *fiber.Ctx) error {
	var invoices []models.Invoice
	err := middlewares.Tx(c).
		Preload("Client").
		Order("id DESC").
		Find(&invoices).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"invoices": invoices,
		"message":  "success",
	})
}

func GetInvoice(c *fiber.Ctx) error {
	var invoice models.Invoice
	err := middlewares.Tx(c).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Items.Service").
		Preload("PdfFile").
		First(&invoice, "id = ?", c.Params("id")).Error
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

type InvoicePatch struct {
	ClientID  *uint               `json:"client_id"`
	IssueDate *string             `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	Items     *[]InvoiceItemInput `json:"items" validate:"omitempty,dive"`
}

// UpdateInvoice applies a partial update. A changed issue date re-dates
// the invoice number (prefix and sequence preserved); a provided items
// array replaces the pivot rows and triggers a totals recompute. The
// invoice number itself is never regenerated here.
func UpdateInvoice(c *fiber.Ctx) error {
	var patch InvoicePatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}

	tx := middlewares.Tx(c)

	var invoice models.Invoice
	if err := tx.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}

	if patch.ClientID != nil {
		invoice.ClientID = patch.ClientID
	}

	if patch.IssueDate != nil {
		issued, err := time.Parse(issueDateLayout, *patch.IssueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid issue date")
		}
		if !issued.Equal(invoice.IssueTime()) {
			Lifecycle.OnDateChanged(&invoice, issued)
		}
	}

	// Plain save of the scalar fields; totals are written separately by
	// the recompute below so saving never re-enters the recompute path.
	err := tx.Model(&invoice).
		Select("client_id", "issue_date", "invoice_number").
		Updates(map[string]any{
			"client_id":      invoice.ClientID,
			"issue_date":     invoice.IssueDate,
			"invoice_number": invoice.InvoiceNumber,
		}).Error
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update invoice",
			"error":   err.Error(),
		})
	}

	if patch.Items != nil {
		if err := replaceItems(tx, &invoice, *patch.Items); err != nil {
			return err
		}
		settings, err := database.LoadSettings(tx)
		if err != nil {
			return err
		}
		if _, err := Lifecycle.RecalculateAndPersist(tx, &invoice, settings); err != nil {
			return err
		}
	}

	return c.JSON(invoice)
}

func replaceItems(tx *gorm.DB, invoice *models.Invoice, inputs []InvoiceItemInput) error {
	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return err
	}
	rows := pivotRows(inputs)
	for i := range rows {
		rows[i].InvoiceID = invoice.ID
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// RecalculateInvoice is the line-item-change workflow: reload the
// authoritative items, recompute the totals, persist only when they
// changed, and hand the three fields back formatted for display.
func RecalculateInvoice(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var invoice models.Invoice
	if err := tx.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}

	settings, err := database.LoadSettings(tx)
	if err != nil {
		return err
	}

	changed, err := Lifecycle.RecalculateAndPersist(tx, &invoice, settings)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"subtotal": utils.Format2(invoice.Subtotal),
		"tax":      utils.Format2(invoice.Tax),
		"total":    utils.Format2(invoice.Total),
		"changed":  changed,
	})
}

func DeleteInvoice(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var invoice models.Invoice
	if err := tx.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	// Soft delete: the row stays so the numbering sequence never reuses
	// this invoice's slot.
	if err := tx.Delete(&invoice).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

// ExportInvoicePDF renders the invoice document. With ?preview=1 it
// returns the raw HTML; otherwise it produces a PDF, stores it as the
// invoice's new artifact, and discards the superseded one best-effort.
// The invoice record is only touched after the new artifact is safely
// stored, so a render or storage failure leaves the old state intact.
func ExportInvoicePDF(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var invoice models.Invoice
	err := tx.
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Items.Service").
		Preload("PdfFile").
		First(&invoice, "id = ?", c.Params("id")).Error
	if err != nil {
		return err
	}

	settings, err := database.LoadSettings(tx)
	if err != nil {
		return err
	}

	html, err := pdf.BuildDocument(&invoice, settings)
	if err != nil {
		return err
	}

	if c.QueryBool("preview") {
		c.Type("html")
		return c.SendString(html)
	}

	data, err := Renderer.Render(c.UserContext(), html)
	if err != nil {
		return err
	}

	base := invoice.InvoiceNumber
	if base == "" {
		base = "invoice_" + c.Params("id")
	}

	oldFile := invoice.PdfFile

	newFile, err := Files.Store(tx, data, pdf.SafeFilename(base))
	if err != nil {
		return err
	}

	err = tx.Model(&invoice).
		Select("pdf_file_id").
		Updates(map[string]any{"pdf_file_id": newFile.ID}).Error
	if err != nil {
		return err
	}
	invoice.PdfFileID = &newFile.ID
	invoice.PdfFile = newFile

	// Old artifact cleanup is best-effort and must not run inside the
	// request transaction: a failed metadata delete would poison the
	// transaction, and removing the bytes before commit would leave the
	// invoice pointing at a destroyed file if the commit fails. Deferred
	// past commit, a failure only leaks bytes.
	if oldFile != nil && oldFile.ID != newFile.ID {
		old := oldFile
		invoiceID := invoice.ID
		middlewares.OnCommit(c, func() {
			if err := Files.Delete(database.DB, old); err != nil {
				logger.Log.Warn("could not delete superseded pdf artifact",
					zap.Uint("invoice_id", invoiceID),
					zap.Uint("file_id", old.ID),
					zap.Error(err))
			}
		})
	}

	return c.JSON(fiber.Map{
		"message":      "PDF generated",
		"file_id":      newFile.ID,
		"download_url": c.BaseURL() + "/api/invoices/" + c.Params("id") + "/pdf/" + strconv.FormatUint(uint64(newFile.ID), 10),
	})
}

// DownloadInvoicePDF serves a generated artifact, but only the one the
// invoice currently points at; stale file IDs are rejected.
func DownloadInvoicePDF(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var invoice models.Invoice
	if err := tx.Preload("PdfFile").First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}

	fileID, err := c.ParamsInt("fileID")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}
	if invoice.PdfFile == nil || invoice.PdfFile.ID != uint(fileID) {
		return fiber.NewError(fiber.StatusNotFound, "requested PDF is not the invoice's current artifact")
	}

	data, err := Files.Read(invoice.PdfFile)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, invoice.PdfFile.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+invoice.PdfFile.FileName+`"`)
	return c.Send(data)
}

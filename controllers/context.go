package controllers

import (
	"invoicing-backend/billing"
	"invoicing-backend/logger"
	"invoicing-backend/pdf"
)

// Shared collaborators, wired once in main. Tests swap them for fakes.
var (
	Lifecycle *billing.InvoiceLifecycle
	Renderer  pdf.Renderer
	Files     *pdf.Storage
)

// Init wires the invoice lifecycle and the PDF pipeline into the
// controllers package.
func Init(renderer pdf.Renderer, files *pdf.Storage) {
	Lifecycle = billing.NewInvoiceLifecycle(logger.Log)
	Renderer = renderer
	Files = files
}

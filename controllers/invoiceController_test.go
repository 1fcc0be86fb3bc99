package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"invoicing-backend/billing"
	"invoicing-backend/database"
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/pdf"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeRenderer stands in for headless Chrome.
type fakeRenderer struct{ calls int }

func (f *fakeRenderer) Render(_ context.Context, html string) ([]byte, error) {
	f.calls++
	return []byte(fmt.Sprintf("%%PDF-fake-%d", f.calls)), nil
}

func setupApp(t *testing.T) (*fiber.App, *fakeRenderer) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Setting{}, &models.Client{}, &models.Service{},
		&models.PdfFile{}, &models.Invoice{}, &models.InvoiceItem{},
	))
	require.NoError(t, db.Create(&models.Setting{
		CompanyName:    "Test GmbH",
		DefaultTaxRate: "5",
		InvoicePrefix:  "INV",
	}).Error)
	database.DB = db

	files, err := pdf.NewStorage(t.TempDir(), nil)
	require.NoError(t, err)
	renderer := &fakeRenderer{}

	Lifecycle = billing.NewInvoiceLifecycle(nil)
	Renderer = renderer
	Files = files

	// The test app skips auth and the per-request TX; handlers fall back
	// to the shared connection through middlewares.Tx.
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	api := app.Group("/api")
	api.Post("/client", CreateClient)
	api.Put("/client/:id", UpdateClient)
	api.Post("/invoice", CreateInvoice)
	api.Get("/invoice/:id", GetInvoice)
	api.Put("/invoices/:id", UpdateInvoice)
	api.Post("/invoices/:id/recalculate", RecalculateInvoice)
	api.Post("/invoices/:id/pdf", ExportInvoicePDF)
	api.Get("/invoices/:id/pdf/:fileID", DownloadInvoicePDF)

	return app, renderer
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func seedInvoiceFixtures(t *testing.T) (client models.Client, svc models.Service) {
	t.Helper()
	email := "billing@acme.test"
	client = models.Client{Name: "ACME Corp", Email: &email}
	require.NoError(t, database.DB.Create(&client).Error)
	svc = models.Service{Name: "Consulting"}
	require.NoError(t, database.DB.Create(&svc).Error)
	return client, svc
}

func TestCreateInvoiceEndToEnd(t *testing.T) {
	app, _ := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	resp, body := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items": []fiber.Map{
			{"service_id": svc.ID, "price": 100.00, "quantity": 2},
			{"service_id": svc.ID, "price": 50.00, "quantity": 1},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, "INV-20240315-1", body["invoice_number"])
	assert.Equal(t, 250.00, body["subtotal"])
	assert.Equal(t, 12.50, body["tax"])
	assert.Equal(t, 262.50, body["total"])
}

func TestUpdateInvoiceIssueDateRedatesNumber(t *testing.T) {
	app, _ := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	resp, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items":      []fiber.Map{{"service_id": svc.ID, "price": 10.00}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := int(created["id"].(float64))

	resp, updated := doJSON(t, app, "PUT", fmt.Sprintf("/api/invoices/%d", id), fiber.Map{
		"issue_date": "2024-04-01",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "INV-20240401-1", updated["invoice_number"])

	// Sequence and prefix survive the re-date; only the date segment moved.
	var stored models.Invoice
	require.NoError(t, database.DB.First(&stored, id).Error)
	assert.Equal(t, "INV-20240401-1", stored.InvoiceNumber)
}

func TestUpdateInvoiceItemsRecomputesTotals(t *testing.T) {
	app, _ := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	_, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items":      []fiber.Map{{"service_id": svc.ID, "price": 10.00}},
	})
	id := int(created["id"].(float64))

	resp, updated := doJSON(t, app, "PUT", fmt.Sprintf("/api/invoices/%d", id), fiber.Map{
		"items": []fiber.Map{
			{"service_id": svc.ID, "price": 100.00, "quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 200.00, updated["subtotal"])
	assert.Equal(t, 10.00, updated["tax"])
	assert.Equal(t, 210.00, updated["total"])
}

func TestRecalculateEndpointFormatsTotals(t *testing.T) {
	app, _ := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	_, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items": []fiber.Map{
			{"service_id": svc.ID, "price": 100.00, "quantity": 2},
			{"service_id": svc.ID, "price": 50.00, "quantity": 1},
		},
	})
	id := int(created["id"].(float64))

	resp, body := doJSON(t, app, "POST", fmt.Sprintf("/api/invoices/%d/recalculate", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Display strings always carry exactly two fractional digits.
	assert.Equal(t, "250.00", body["subtotal"])
	assert.Equal(t, "12.50", body["tax"])
	assert.Equal(t, "262.50", body["total"])
	assert.Equal(t, false, body["changed"])
}

func TestExportReplacesArtifactAndDownload(t *testing.T) {
	app, renderer := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	_, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items":      []fiber.Map{{"service_id": svc.ID, "price": 10.00}},
	})
	id := int(created["id"].(float64))

	resp, first := doJSON(t, app, "POST", fmt.Sprintf("/api/invoices/%d/pdf", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	firstFileID := int(first["file_id"].(float64))
	assert.Equal(t, 1, renderer.calls)

	resp, second := doJSON(t, app, "POST", fmt.Sprintf("/api/invoices/%d/pdf", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	secondFileID := int(second["file_id"].(float64))
	assert.NotEqual(t, firstFileID, secondFileID)

	// Re-export discards the superseded artifact record.
	var count int64
	require.NoError(t, database.DB.Model(&models.PdfFile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Only the current artifact is downloadable.
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/invoices/%d/pdf/%d", id, firstFileID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest("GET", fmt.Sprintf("/api/invoices/%d/pdf/%d", id, secondFileID), nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake-2", string(data))
}

func TestExportUnderRequestTxCleansUpAfterCommit(t *testing.T) {
	_, renderer := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	// Separate app with the per-request transaction mounted, as in the
	// real protected group.
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	api := app.Group("/api", middlewares.RequestTx())
	api.Post("/invoice", CreateInvoice)
	api.Post("/invoices/:id/pdf", ExportInvoicePDF)

	_, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items":      []fiber.Map{{"service_id": svc.ID, "price": 10.00}},
	})
	id := int(created["id"].(float64))

	resp, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/invoices/%d/pdf", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, renderer.calls)

	var oldFile models.PdfFile
	require.NoError(t, database.DB.First(&oldFile).Error)

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/invoices/%d/pdf", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The superseded record and its bytes are gone once the request
	// transaction has committed.
	var count int64
	require.NoError(t, database.DB.Model(&models.PdfFile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	_, err := os.Stat(oldFile.DiskPath)
	assert.True(t, os.IsNotExist(err))
}

func TestExportPreviewReturnsHTML(t *testing.T) {
	app, renderer := setupApp(t)
	client, svc := seedInvoiceFixtures(t)

	_, created := doJSON(t, app, "POST", "/api/invoice", fiber.Map{
		"client_id":  client.ID,
		"issue_date": "2024-03-15",
		"items":      []fiber.Map{{"service_id": svc.ID, "price": 10.00, "description": "March retainer"}},
	})
	id := int(created["id"].(float64))

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/invoices/%d/pdf?preview=1", id), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), "INV-20240315-1")
	assert.Contains(t, string(html), "ACME Corp")
	assert.Zero(t, renderer.calls)
}

package middlewares

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"invoicing-backend/database"
	"invoicing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTxDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Service{}))
	database.DB = db
}

func TestOnCommitRunsAfterCommit(t *testing.T) {
	setupTxDB(t)

	var order []string
	app := fiber.New()
	app.Use(RequestTx())
	app.Post("/x", func(c *fiber.Ctx) error {
		OnCommit(c, func() {
			// By the time the hook runs the handler's insert must be
			// visible outside the request transaction.
			var count int64
			_ = database.DB.Model(&models.Service{}).Count(&count).Error
			order = append(order, fmt.Sprintf("hook:count=%d", count))
		})
		err := Tx(c).Create(&models.Service{Name: "Consulting"}).Error
		order = append(order, "handler")
		return err
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"handler", "hook:count=1"}, order)
}

func TestOnCommitSkippedOnRollback(t *testing.T) {
	setupTxDB(t)

	ran := false
	app := fiber.New()
	app.Use(RequestTx())
	app.Post("/x", func(c *fiber.Ctx) error {
		OnCommit(c, func() { ran = true })
		return fiber.NewError(fiber.StatusBadRequest, "nope")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	// The transaction rolled back, so the hook never fires.
	assert.False(t, ran)
}

func TestOnCommitImmediateWithoutRequestTx(t *testing.T) {
	ran := false
	app := fiber.New()
	app.Post("/x", func(c *fiber.Ctx) error {
		OnCommit(c, func() { ran = true })
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, ran)
}

package middlewares

import (
	"invoicing-backend/database"
	"invoicing-backend/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestTx opens a per-request DB transaction for mutating handlers.
// Run AFTER IsAuthenticatedHeader() and AFTER Idempotency() (so
// idempotency records aren't tied to the handler TX). Handlers obtain the
// transaction via Tx(c).
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				logger.Log.Error("tx commit failed", zap.Error(e))
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
				return
			}
			if hooks, ok := c.Locals("txCommitHooks").([]func()); ok {
				for _, fn := range hooks {
					fn()
				}
			}
		}()

		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}

// OnCommit defers fn until the request transaction has committed, so fn
// only ever observes durable state. It runs after the rollback window has
// closed; anything fn does must be best-effort and log its own failures.
// With no request transaction open (read-only handlers, tests) fn runs
// immediately.
func OnCommit(c *fiber.Ctx, fn func()) {
	if v := c.Locals("tx"); v != nil {
		if _, ok := v.(*gorm.DB); ok {
			hooks, _ := c.Locals("txCommitHooks").([]func())
			c.Locals("txCommitHooks", append(hooks, fn))
			return
		}
	}
	fn()
}

// Tx returns the request transaction when one is open, else the shared
// connection. Read-only handlers outside the protected group fall back to
// database.DB.
func Tx(c *fiber.Ctx) *gorm.DB {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return database.DB
}

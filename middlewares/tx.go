package middlewares

import (
	"salestracker-backend/database"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestTx opens a per-request DB transaction. Run AFTER IsAuthenticatedHeader()
// and AFTER Idempotency() (so idempotency records aren't tied to the handler TX).
// Commits when the handler chain returns nil, rolls back on error or panic.
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

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
				zap.L().Error("tx commit failed", zap.Error(e))
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.GetRequestDB(c).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}

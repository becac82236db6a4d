package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds a readiness endpoint reporting the state of
// every backing store the vault depends on. Stores that were deliberately
// not configured (dev mode) report as such rather than failing the check.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		degraded := false
		ledgerStore := "in-memory"
		if d.DB != nil {
			ledgerStore = "ok"
			if err := d.DB.Ping(ctx); err != nil {
				ledgerStore = err.Error()
				degraded = true
			}
		}
		idempotencyStore := "disabled"
		if d.Cache != nil {
			idempotencyStore = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				idempotencyStore = err.Error()
				degraded = true
			}
		}

		overall := "ok"
		status := http.StatusOK
		if degraded {
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"service": d.Cfg.AppName,
			"status":  overall,
			"stores": fiber.Map{
				"ledger":      ledgerStore,
				"idempotency": idempotencyStore,
			},
			"program_id": d.Cfg.ProgramID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		redisStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		} else {
			redisStatus = "disabled"
		}

		ratesStatus := "ok"
		lastRefresh := d.Rates.LastRefresh()
		if lastRefresh.IsZero() {
			ratesStatus = "no refresh yet"
		}

		status := http.StatusOK
		if redisStatus != "ok" && redisStatus != "disabled" {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":       fiber.Map{"redis": redisStatus, "rates": ratesStatus},
			"cached_pairs": d.Rates.Len(),
			"last_refresh": lastRefresh,
			"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

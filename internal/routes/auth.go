package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/valutatrade/internal/auth"
)

// RegisterAuthRoutes wires the public session endpoints. Login carries a rate
// limiter keyed by username to slow credential stuffing.
func RegisterAuthRoutes(router fiber.Router, handler *auth.Handler, rateLimiter fiber.Handler) {
	grp := router.Group("/auth")
	grp.Post("/login", rateLimiter, handler.Login)
	grp.Post("/refresh", handler.Refresh)
}

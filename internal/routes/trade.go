package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/valutatrade/valutatrade/internal/config"
	"github.com/valutatrade/valutatrade/internal/middleware"
	"github.com/valutatrade/valutatrade/internal/trade"
)

// RegisterTradeRoutes wires the buy/sell endpoints. When Redis is available
// they sit behind the idempotency middleware so a retried submission cannot
// move funds twice.
func RegisterTradeRoutes(router fiber.Router, handler *trade.Handler, cache *redis.Client, cfg config.Config, logger *slog.Logger) {
	grp := router.Group("/trade")
	if cache != nil {
		grp.Use(middleware.Idempotency(cache, cfg.IdempotencyTTL, logger))
	}
	grp.Post("/buy", handler.Buy)
	grp.Post("/sell", handler.Sell)
}

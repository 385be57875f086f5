package routes

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/valutatrade/valutatrade/internal/auth"
	"github.com/valutatrade/valutatrade/internal/config"
	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/identity"
	"github.com/valutatrade/valutatrade/internal/ledger"
	"github.com/valutatrade/valutatrade/internal/middleware"
	"github.com/valutatrade/valutatrade/internal/rates"
	"github.com/valutatrade/valutatrade/internal/trade"
	"github.com/valutatrade/valutatrade/internal/valuation"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	Cache     *redis.Client
	Logger    *slog.Logger
	Registry  *currency.Registry
	Rates     *rates.Cache
	Refresher *rates.Refresher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories and services over the data directory.
	userRepo := identity.NewFileRepository(filepath.Join(d.Cfg.DataDir, "users.json"))
	portfolioStore := ledger.NewFileStore(filepath.Join(d.Cfg.DataDir, "portfolios.json"))
	portfolioSvc := ledger.NewService(portfolioStore, d.Cfg.BaseCurrency, d.Cfg.StartingBalance)
	identitySvc := identity.NewService(userRepo, portfolioSvc)
	if err := identitySvc.EnsurePortfolios(context.Background()); err != nil {
		return err
	}

	authSvc := auth.NewService(d.Cfg, userRepo)
	engine := trade.NewEngine(portfolioSvc, d.Rates, d.Registry, d.Cfg.BaseCurrency, d.Logger)
	calc := valuation.NewCalculator(portfolioSvc, d.Rates, d.Registry)

	identityHandler := identity.NewHandler(identitySvc)
	authHandler := auth.NewHandler(identitySvc, authSvc)
	tradeHandler := trade.NewHandler(engine)
	valuationHandler := valuation.NewHandler(calc, d.Cfg.BaseCurrency)
	ratesHandler := rates.NewHandler(d.Rates, d.Refresher, d.Registry)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Post("/identity/register", identityHandler.Register)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, userRepo)
	protected := api.Group("", jwtmw)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/identity/password", identityHandler.ChangePassword)
	protected.Get("/portfolio", valuationHandler.Portfolio)
	protected.Get("/rates/:from/:to", ratesHandler.GetRate)
	protected.Post("/rates/refresh", ratesHandler.Refresh)
	RegisterTradeRoutes(protected, tradeHandler, d.Cache, d.Cfg, d.Logger)

	return nil
}

package trade

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/ledger"
)

// Handler exposes buy/sell endpoints.
type Handler struct {
	engine *Engine
}

// NewHandler builds a trade HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type tradeRequest struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type tradeResponse struct {
	Currency    string    `json:"currency"`
	Amount      string    `json:"amount"`
	Rate        string    `json:"rate"`
	NewBalance  string    `json:"new_balance"`
	BaseBalance string    `json:"base_balance"`
	CompletedAt time.Time `json:"completed_at"`
}

// Buy purchases the requested amount of a currency for the authenticated user.
func (h *Handler) Buy(c *fiber.Ctx) error {
	return h.execute(c, h.engine.Buy)
}

// Sell disposes of the requested amount of a currency for the authenticated user.
func (h *Handler) Sell(c *fiber.Ctx) error {
	return h.execute(c, h.engine.Sell)
}

func (h *Handler) execute(c *fiber.Ctx, op func(ctx context.Context, userID, code string, amount decimal.Decimal) (Result, error)) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req tradeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a decimal number")
	}

	result, err := op(c.UserContext(), uid, req.Currency, amount)
	if err != nil {
		return mapTradeError(err)
	}

	return c.Status(http.StatusOK).JSON(tradeResponse{
		Currency:    result.Currency,
		Amount:      result.Amount.String(),
		Rate:        result.Rate.String(),
		NewBalance:  result.NewBalance.String(),
		BaseBalance: result.BaseBalance.String(),
		CompletedAt: result.CompletedAt,
	})
}

func mapTradeError(err error) error {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrBaseCurrencyTrade):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, currency.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRateUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ledger.ErrPortfolioNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

package valuation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/ledger"
)

// Handler exposes the portfolio view endpoint.
type Handler struct {
	calc *Calculator
	base string
}

// NewHandler builds a valuation HTTP handler defaulting to the configured
// base currency.
func NewHandler(calc *Calculator, base string) *Handler {
	return &Handler{calc: calc, base: base}
}

type lineResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Rate     string `json:"rate,omitempty"`
	Value    string `json:"value,omitempty"`
	Priced   bool   `json:"priced"`
}

type portfolioResponse struct {
	Base    string         `json:"base"`
	Total   string         `json:"total"`
	Wallets []lineResponse `json:"wallets"`
	AsOf    time.Time      `json:"as_of"`
}

// Portfolio values the authenticated user's holdings. The interactive view
// defaults to the partial policy; callers may request strict instead.
func (h *Handler) Portfolio(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	base := c.Query("base", h.base)
	policy, err := ParsePolicy(c.Query("policy", string(PolicyPartial)))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	breakdown, err := h.calc.TotalValue(c.UserContext(), uid, base, policy)
	if err != nil {
		switch {
		case errors.Is(err, currency.ErrNotFound):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrPortfolioNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRateUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	resp := portfolioResponse{
		Base:  breakdown.Base,
		Total: breakdown.Total.String(),
		AsOf:  breakdown.AsOf,
	}
	for _, line := range breakdown.Lines {
		lr := lineResponse{
			Currency: line.Currency,
			Balance:  line.Balance.String(),
			Priced:   line.Priced,
		}
		if line.Priced {
			lr.Rate = line.Rate.String()
			lr.Value = line.Value.String()
		}
		resp.Wallets = append(resp.Wallets, lr)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

package rates

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/valutatrade/internal/currency"
)

// Handler exposes rate lookup and refresh endpoints.
type Handler struct {
	cache     *Cache
	refresher *Refresher
	registry  *currency.Registry
}

// NewHandler builds a rates HTTP handler.
func NewHandler(cache *Cache, refresher *Refresher, registry *currency.Registry) *Handler {
	return &Handler{cache: cache, refresher: refresher, registry: registry}
}

type rateResponse struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Rate       string    `json:"rate"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source"`
}

// GetRate resolves the cached rate for an ordered currency pair.
func (h *Handler) GetRate(c *fiber.Ctx) error {
	from, to := c.Params("from"), c.Params("to")
	if _, err := h.registry.Get(from); err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if _, err := h.registry.Get(to); err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}

	pair, err := h.cache.Rate(from, to)
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrStale):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(rateResponse{
		From:       currency.Normalize(from),
		To:         currency.Normalize(to),
		Rate:       pair.Rate.String(),
		ObservedAt: pair.ObservedAt,
		Source:     pair.Source,
	})
}

// Refresh pulls fresh quotes from the provider and commits a new snapshot.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	count, err := h.refresher.Refresh(c.UserContext())
	if err != nil {
		if errors.Is(err, ErrProviderRequest) {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"updated":      count,
		"last_refresh": h.cache.LastRefresh(),
	})
}

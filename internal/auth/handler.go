package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/valutatrade/internal/identity"
)

// Handler serves session endpoints.
type Handler struct {
	identity *identity.Service
	sessions *Service
}

// NewHandler builds the session handler.
func NewHandler(identitySvc *identity.Service, sessions *Service) *Handler {
	return &Handler{identity: identitySvc, sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TokenPair
}

// Login authenticates credentials and issues a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.identity.Authenticate(c.Context(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		// Unknown usernames get the same answer as bad passwords so the
		// status code does not reveal which accounts exist.
		if errors.Is(err, identity.ErrInvalidCredential) || errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "login failed")
	}

	pair, err := h.sessions.Login(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue tokens")
	}

	return c.JSON(loginResponse{
		UserID:    user.ID,
		Username:  user.Username,
		TokenPair: pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refresh_token is required")
	}

	access, expiresIn, err := h.sessions.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"access_token": access,
		"expires_in":   expiresIn,
	})
}

// Logout invalidates every token issued to the calling user.
func (h *Handler) Logout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing authentication")
	}
	if err := h.sessions.Logout(c.Context(), userID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "logout failed")
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

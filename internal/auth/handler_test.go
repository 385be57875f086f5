package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/valutatrade/internal/config"
	"github.com/valutatrade/valutatrade/internal/identity"
)

type noopProvisioner struct{}

func (noopProvisioner) CreateEmpty(context.Context, string) error { return nil }

func newLoginTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		JWTSecret:       "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	}

	repo := identity.NewMemoryRepository()
	identitySvc := identity.NewService(repo, noopProvisioner{})
	if _, err := identitySvc.Register(context.Background(), identity.Credentials{Username: "alice", Password: "hunter2"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	handler := NewHandler(identitySvc, NewService(cfg, repo))
	app := fiber.New()
	app.Post("/auth/login", handler.Login)
	return app
}

func postLogin(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestLoginSucceedsWithValidCredentials(t *testing.T) {
	app := newLoginTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"hunter2"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.AccessToken == "" || decoded.RefreshToken == "" {
		t.Fatal("expected both tokens in the login response")
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	app := newLoginTestApp(t)

	// Wrong password and unknown username must be indistinguishable to the
	// caller; neither may leak through as a server error.
	if status := postLogin(t, app, `{"username":"alice","password":"wrong"}`); status != fiber.StatusUnauthorized {
		t.Fatalf("wrong password: expected %d got %d", fiber.StatusUnauthorized, status)
	}
	if status := postLogin(t, app, `{"username":"nobody","password":"hunter2"}`); status != fiber.StatusUnauthorized {
		t.Fatalf("unknown username: expected %d got %d", fiber.StatusUnauthorized, status)
	}
}

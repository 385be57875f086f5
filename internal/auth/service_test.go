package auth

import (
	"context"
	"testing"
	"time"

	"github.com/valutatrade/valutatrade/internal/config"
	"github.com/valutatrade/valutatrade/internal/identity"
)

func newTestService(t *testing.T) (*Service, identity.Repository, identity.User) {
	t.Helper()

	cfg := config.Config{
		JWTSecret:       "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	}

	repo := identity.NewMemoryRepository()
	user := identity.User{
		ID:           "user-1",
		Username:     "alice",
		TokenVersion: 0,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return NewService(cfg, repo), repo, user
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	secret := []byte("hmac-secret")
	claims := map[string]any{"sub": "user-1", "exp": float64(time.Now().Add(time.Minute).Unix())}

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if parsed["sub"] != "user-1" {
		t.Fatalf("sub = %v, want user-1", parsed["sub"])
	}

	if _, err := ParseAndVerifyHS256(token, []byte("wrong-secret")); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
	if _, err := ParseAndVerifyHS256(token+"x", secret); err == nil {
		t.Fatal("expected verification failure with tampered token")
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _, user := newTestService(t)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.ExpiresIn <= 0 {
		t.Fatalf("expires_in = %d, want positive", pair.ExpiresIn)
	}

	claims, err := ParseAndVerifyHS256(pair.AccessToken, []byte("test-access-secret"))
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if claims["username"] != "alice" {
		t.Fatalf("username claim = %v, want alice", claims["username"])
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	svc, _, user := newTestService(t)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, expiresIn, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || expiresIn <= 0 {
		t.Fatalf("unexpected refresh result %q %d", access, expiresIn)
	}

	if _, _, err := svc.Refresh(context.Background(), pair.AccessToken); err == nil {
		t.Fatal("access token must not be accepted as a refresh token")
	}
}

func TestLogoutInvalidatesIssuedTokens(t *testing.T) {
	svc, repo, user := newTestService(t)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("refresh token should be rejected after logout")
	}

	bumped, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if bumped.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version = %d, want %d", bumped.TokenVersion, user.TokenVersion+1)
	}
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubProvisioner struct {
	created []string
	fail    error
}

func (p *stubProvisioner) CreateEmpty(_ context.Context, userID string) error {
	if p.fail != nil {
		return p.fail
	}
	p.created = append(p.created, userID)
	return nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	portfolios := &stubProvisioner{}
	svc := NewService(repo, portfolios)
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(portfolios.created) != 1 || portfolios.created[0] != user.ID {
		t.Fatalf("expected portfolio provisioned for %s, got %v", user.ID, portfolios.created)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
	if authed.LastLogin.IsZero() {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &stubProvisioner{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "other"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &stubProvisioner{})

	if _, err := svc.Register(context.Background(), Credentials{Username: "bob", Password: "abc"}); err == nil {
		t.Fatalf("expected short password rejection")
	}
}

func TestRegisterRollsBackOnPortfolioFailure(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &stubProvisioner{fail: fmt.Errorf("disk full")})
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"}); err == nil {
		t.Fatalf("expected registration failure")
	}
	if _, err := repo.FindByUsername(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rolled-back user, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &stubProvisioner{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "s3cret"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &stubProvisioner{})
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpass"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "s3cret", "newpass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "alice", Password: "newpass"}); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	repo := NewFileRepository(t.TempDir() + "/users.json")
	svc := NewService(repo, &stubProvisioner{})
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	found, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.Username != "alice" {
		t.Fatalf("unexpected user: %+v", found)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 4

// PortfolioProvisioner creates the empty portfolio that belongs to every
// registered user. Implemented by the ledger service; the identity package
// only sees this seam.
type PortfolioProvisioner interface {
	CreateEmpty(ctx context.Context, userID string) error
}

// Service manages the user lifecycle: registration, authentication and
// password changes.
type Service struct {
	repo       Repository
	portfolios PortfolioProvisioner
}

// NewService creates an identity service.
func NewService(repo Repository, portfolios PortfolioProvisioner) *Service {
	return &Service{repo: repo, portfolios: portfolios}
}

// Register creates a new user record together with its portfolio as one unit
// of work: when portfolio provisioning fails the user record is rolled back,
// so no user exists without a portfolio.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return User{}, errors.New("username must not be empty")
	}
	if len(creds.Password) < minPasswordLength {
		return User{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	if err := s.portfolios.CreateEmpty(ctx, user.ID); err != nil {
		// Roll the user record back rather than leave an orphan without a
		// portfolio. EnsurePortfolios repairs the other crash window.
		_ = s.repo.Delete(ctx, user.ID)
		return User{}, fmt.Errorf("provision portfolio: %w", err)
	}

	return user, nil
}

// Authenticate verifies the username/password pair and records the login time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidCredential, user.Username)
	}

	user.LastLogin = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangePassword replaces the user's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(current)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredential, user.Username)
	}
	if len(next) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

// EnsurePortfolios provisions portfolios for users that lost theirs to a
// crash between the two registration writes. Provisioning is idempotent, so
// intact users pass through untouched. Run once at startup.
func (s *Service) EnsurePortfolios(ctx context.Context) error {
	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := s.portfolios.CreateEmpty(ctx, user.ID); err != nil {
			return fmt.Errorf("repair portfolio for %s: %w", user.Username, err)
		}
	}
	return nil
}

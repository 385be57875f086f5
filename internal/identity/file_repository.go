package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valutatrade/valutatrade/internal/storage"
)

// FileRepository stores the users collection in one JSON file replaced
// atomically on every write.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository builds a repository backed by the users file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	TokenVersion int       `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login,omitempty"`
}

func (r *FileRepository) load() ([]userRecord, error) {
	data, err := storage.Read(r.path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []userRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode users %s: %w", r.path, err)
	}
	return records, nil
}

func (r *FileRepository) persist(records []userRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return storage.Write(r.path, data)
}

func toRecord(u User) userRecord {
	return userRecord{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt.UTC(),
		LastLogin:    u.LastLogin.UTC(),
	}
}

func fromRecord(rec userRecord) User {
	return User{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		TokenVersion: rec.TokenVersion,
		CreatedAt:    rec.CreatedAt,
		LastLogin:    rec.LastLogin,
	}
}

// Create inserts a new user, enforcing username uniqueness.
func (r *FileRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Username == user.Username {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
		}
	}
	return r.persist(append(records, toRecord(user)))
}

// FindByUsername fetches a user by exact username.
func (r *FileRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return User{}, err
	}
	for _, rec := range records {
		if rec.Username == username {
			return fromRecord(rec), nil
		}
	}
	return User{}, fmt.Errorf("%w: %s", ErrNotFound, username)
}

// FindByID fetches a user by identifier.
func (r *FileRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return User{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return fromRecord(rec), nil
		}
	}
	return User{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

// Update replaces the stored record for the user.
func (r *FileRepository) Update(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i, rec := range records {
		if rec.ID == user.ID {
			records[i] = toRecord(user)
			return r.persist(records)
		}
	}
	return fmt.Errorf("%w: id %s", ErrNotFound, user.ID)
}

// Delete removes the user record. Used to roll back a registration whose
// portfolio provisioning failed.
func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i, rec := range records {
		if rec.ID == id {
			return r.persist(append(records[:i], records[i+1:]...))
		}
	}
	return fmt.Errorf("%w: id %s", ErrNotFound, id)
}

// List returns all users.
func (r *FileRepository) List(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(records))
	for _, rec := range records {
		users = append(users, fromRecord(rec))
	}
	return users, nil
}

package identity

import "time"

// User represents a registered account holder.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Credentials carry a registration or login request.
type Credentials struct {
	Username string
	Password string
}

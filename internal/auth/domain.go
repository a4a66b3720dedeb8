package auth

import "time"

// Account carries the credential view of a principal.
type Account struct {
	ID           string
	Username     string
	Email        string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

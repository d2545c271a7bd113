package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // normalised, unique
	PasswordHash string // argon2id PHC, or bcrypt for imported accounts
	CreatedAt    time.Time
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package auth

import (
	"regexp"
	"time"
)

// emailPattern is a pragmatic email shape check: local@domain.tld.
// Deliverability is not verified.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	// maxEmailLength bounds stored email addresses.
	maxEmailLength = 254

	// minPasswordLength is the minimum accepted plaintext length.
	minPasswordLength = 8
)

// IsValidEmail checks an email address for acceptable shape and length.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// User represents an account that can authenticate against the API.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

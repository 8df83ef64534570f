package quarantine

import (
	"net/mail"
	"strings"

	"github.com/hpungsan/spamguard/internal/errors"
)

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail checks that s is a bare address (no display name).
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.NewInvalidRequest("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.NewInvalidRequest("email must be a bare address like name@example.com")
	}
	return nil
}

// LocalPart returns the part of the address before the last '@'.
func LocalPart(email string) string {
	if idx := strings.LastIndex(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}

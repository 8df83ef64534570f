package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// Limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxBatchItems    = 500
	MaxTextRunes     = 4096
	MaxScreenFields  = 32
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address represents a validated quarantine address.
type Address struct {
	ByID      bool
	ID        string
	EmailNorm string
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Rules:
// - Must specify exactly one addressing mode: id OR email
// - If both are provided → ErrAmbiguousAddressing
// - If neither is provided → ErrInvalidRequest
func ValidateAddress(id, email string) (*Address, error) {
	id = strings.TrimSpace(id)
	email = strings.TrimSpace(email)

	if id != "" && email != "" {
		return nil, errors.NewAmbiguousAddressing()
	}
	if id == "" && email == "" {
		return nil, errors.NewInvalidRequest("must specify either id or email")
	}

	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}

	if err := quarantine.ValidateEmail(email); err != nil {
		return nil, err
	}
	return &Address{EmailNorm: quarantine.NormalizeEmail(email)}, nil
}

// clampPage applies list defaults and bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cleanOptionalString trims s and returns nil when nothing is left.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

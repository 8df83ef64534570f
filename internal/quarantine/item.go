// Package quarantine models identities held back for review after a
// submission was judged automated.
package quarantine

import (
	"slices"
	"time"

	"github.com/hpungsan/spamguard/internal/errors"
)

// Item is a quarantined identity. Records are never deleted; lifting a
// quarantine sets LiftedAt and leaves the row as an audit trail.
type Item struct {
	// ID is a ULID assigned when the item is first persisted
	ID string `json:"id"`

	// Email is the identity as submitted
	Email string `json:"email"`

	// EmailNorm is the lookup key (trimmed, lowercased)
	EmailNorm string `json:"email_norm"`

	Level Level `json:"level"`

	// ReasonCodes explain the decision, in the order they were produced.
	// Duplicates are allowed.
	ReasonCodes []string `json:"reason_codes"`

	// Note is an optional markdown note left by a reviewer
	Note *string `json:"note,omitempty"`

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// LiftedAt is the Unix timestamp the quarantine was lifted (nil while active)
	LiftedAt *int64 `json:"lifted_at,omitempty"`
}

// IsLifted reports whether the quarantine has been lifted.
func (i *Item) IsLifted() bool {
	return i.LiftedAt != nil
}

// IsQuarantined reports whether the item is active. With no argument any
// level matches; otherwise the stored level must equal one of levels.
// A lifted item is never quarantined.
func (i *Item) IsQuarantined(levels ...Level) bool {
	if i.IsLifted() {
		return false
	}
	if len(levels) == 0 {
		return true
	}
	return slices.Contains(levels, i.Level)
}

// Lift marks the item as lifted at the given time. It can only happen once.
func (i *Item) Lift(at time.Time) error {
	if i.IsLifted() {
		return errors.NewAlreadyLifted(i.ID)
	}
	ts := at.Unix()
	i.LiftedAt = &ts
	return nil
}

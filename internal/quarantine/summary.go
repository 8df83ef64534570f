package quarantine

// Summary is an item without its review note, used for list views.
type Summary struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Level       Level    `json:"level"`
	ReasonCodes []string `json:"reason_codes"`
	HasNote     bool     `json:"has_note"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
	LiftedAt    *int64   `json:"lifted_at,omitempty"`
}

// ToSummary converts an Item to a Summary.
func (i *Item) ToSummary() Summary {
	return Summary{
		ID:          i.ID,
		Email:       i.Email,
		Level:       i.Level,
		ReasonCodes: i.ReasonCodes,
		HasNote:     i.Note != nil && *i.Note != "",
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		LiftedAt:    i.LiftedAt,
	}
}

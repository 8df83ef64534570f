package quarantine

// ExportRecord is one line of a JSONL audit export.
type ExportRecord struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	EmailNorm   string   `json:"email_norm"`
	Level       int      `json:"level"`
	ReasonCodes []string `json:"reason_codes"`
	Note        *string  `json:"note"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
	LiftedAt    *int64   `json:"lifted_at"`
}

// ToExportRecord converts an Item for export. Levels are written as their
// numeric value so exports stay stable if names change.
func (i *Item) ToExportRecord() *ExportRecord {
	return &ExportRecord{
		ID:          i.ID,
		Email:       i.Email,
		EmailNorm:   i.EmailNorm,
		Level:       int(i.Level),
		ReasonCodes: i.ReasonCodes,
		Note:        i.Note,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		LiftedAt:    i.LiftedAt,
	}
}

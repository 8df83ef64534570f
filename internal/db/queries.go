package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// ErrUniqueConstraint is returned when an insert would create a second
// active quarantine for the same identity.
var ErrUniqueConstraint = &errors.GuardError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const itemColumns = `id, email_raw, email_norm, level, reason_codes_json, note,
	created_at, updated_at, lifted_at`

// ListFilter narrows ListItems. Zero values mean "no filter".
type ListFilter struct {
	EmailNorm     string
	Level         quarantine.Level
	IncludeLifted bool
}

// Insert stores a new quarantine item.
func Insert(ctx context.Context, db *sql.DB, item *quarantine.Item) error {
	reasons, err := toReasonJSON(item.ReasonCodes)
	if err != nil {
		return errors.NewInternal(err)
	}

	var liftedAt sql.NullInt64
	if item.LiftedAt != nil {
		liftedAt = sql.NullInt64{Int64: *item.LiftedAt, Valid: true}
	}

	query := `
		INSERT INTO quarantine_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		item.ID, item.Email, item.EmailNorm, int(item.Level), reasons,
		toNullString(item.Note), item.CreatedAt, item.UpdatedAt, liftedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves an item by its ULID. Lifted items are excluded unless includeLifted.
func GetByID(ctx context.Context, db *sql.DB, id string, includeLifted bool) (*quarantine.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM quarantine_items WHERE id = ?`
	if !includeLifted {
		query += " AND lifted_at IS NULL"
	}

	item, err := scanItem(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return item, nil
}

// GetActiveByEmail retrieves the active item for a normalized email.
func GetActiveByEmail(ctx context.Context, db *sql.DB, emailNorm string) (*quarantine.Item, error) {
	return GetLatestByEmail(ctx, db, emailNorm, false)
}

// GetLatestByEmail retrieves the item for a normalized email. With
// includeLifted, the active item is preferred; if there is none the most
// recently updated lifted item is returned.
func GetLatestByEmail(ctx context.Context, db *sql.DB, emailNorm string, includeLifted bool) (*quarantine.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM quarantine_items WHERE email_norm = ?`
	if !includeLifted {
		query += " AND lifted_at IS NULL"
	} else {
		query += " ORDER BY (lifted_at IS NULL) DESC, updated_at DESC, id DESC LIMIT 1"
	}

	item, err := scanItem(db.QueryRowContext(ctx, query, emailNorm))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(emailNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return item, nil
}

// UpdateByID updates level, reason codes and note of an active item and
// sets updated_at to the current time.
// Does NOT change: id, email, created_at, lifted_at
func UpdateByID(ctx context.Context, db *sql.DB, item *quarantine.Item) error {
	reasons, err := toReasonJSON(item.ReasonCodes)
	if err != nil {
		return errors.NewInternal(err)
	}

	now := time.Now().Unix()
	query := `
		UPDATE quarantine_items
		SET level = ?, reason_codes_json = ?, note = ?, updated_at = ?
		WHERE id = ? AND lifted_at IS NULL
	`
	result, err := db.ExecContext(ctx, query,
		int(item.Level), reasons, toNullString(item.Note), now, item.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(item.ID)
	}

	item.UpdatedAt = now
	return nil
}

// Lift sets lifted_at on an active item. A non-nil note replaces the stored
// note. Lifting an item twice returns ALREADY_LIFTED.
func Lift(ctx context.Context, db *sql.DB, id string, at int64, note *string) error {
	query := `
		UPDATE quarantine_items
		SET lifted_at = ?, updated_at = ?, note = COALESCE(?, note)
		WHERE id = ? AND lifted_at IS NULL
	`
	result, err := db.ExecContext(ctx, query, at, at, toNullString(note), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Distinguish "never existed" from "already lifted"
	if _, err := GetByID(ctx, db, id, true); err != nil {
		return err
	}
	return errors.NewAlreadyLifted(id)
}

// ListItems returns summaries matching filter, most recently updated first,
// plus the total count ignoring limit and offset.
func ListItems(ctx context.Context, db *sql.DB, filter ListFilter, limit, offset int) ([]quarantine.Summary, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmailNorm != "" {
		where = append(where, "email_norm = ?")
		args = append(args, filter.EmailNorm)
	}
	if filter.Level != 0 {
		where = append(where, "level = ?")
		args = append(args, int(filter.Level))
	}
	if !filter.IncludeLifted {
		where = append(where, "lifted_at IS NULL")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quarantine_items"+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + itemColumns + ` FROM quarantine_items` + clause +
		` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := make([]quarantine.Summary, 0)
	for rows.Next() {
		item, err := ScanItemFromRows(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, item.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return summaries, total, nil
}

// CountActiveByLevel returns the number of active items per level. Every
// valid level is present in the result, zero when unused.
func CountActiveByLevel(ctx context.Context, db *sql.DB) (map[quarantine.Level]int, error) {
	counts := make(map[quarantine.Level]int, len(quarantine.Levels()))
	for _, l := range quarantine.Levels() {
		counts[l] = 0
	}

	rows, err := db.QueryContext(ctx, `
		SELECT level, COUNT(*) FROM quarantine_items
		WHERE lifted_at IS NULL
		GROUP BY level
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var level, n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts[quarantine.Level(level)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return counts, nil
}

// StreamForExport returns rows for every item in creation order. The caller
// must close the rows and read them with ScanItemFromRows.
func StreamForExport(ctx context.Context, db *sql.DB, includeLifted bool) (*sql.Rows, error) {
	query := `SELECT ` + itemColumns + ` FROM quarantine_items`
	if !includeLifted {
		query += " WHERE lifted_at IS NULL"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanItemFromRows scans the current row of a result set selected with the
// full item column list.
func ScanItemFromRows(rows *sql.Rows) (*quarantine.Item, error) {
	return scanItem(rows)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*quarantine.Item, error) {
	var (
		item     quarantine.Item
		level    int
		reasons  sql.NullString
		note     sql.NullString
		liftedAt sql.NullInt64
	)

	err := s.Scan(
		&item.ID, &item.Email, &item.EmailNorm, &level, &reasons, &note,
		&item.CreatedAt, &item.UpdatedAt, &liftedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Level = quarantine.Level(level)
	if !item.Level.Valid() {
		return nil, fmt.Errorf("item %s has invalid level %d", item.ID, level)
	}
	item.Note = fromNullString(note)
	if liftedAt.Valid {
		item.LiftedAt = &liftedAt.Int64
	}

	item.ReasonCodes = []string{}
	if reasons.Valid && reasons.String != "" {
		if err := json.Unmarshal([]byte(reasons.String), &item.ReasonCodes); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func toReasonJSON(codes []string) (sql.NullString, error) {
	if len(codes) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

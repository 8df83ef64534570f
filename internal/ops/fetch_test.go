package ops

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

func mustQuarantine(t *testing.T, database *sql.DB, email string, level quarantine.Level) *QuarantineOutput {
	t.Helper()
	out, err := Quarantine(context.Background(), database, nil, QuarantineInput{Email: email, Level: level})
	if err != nil {
		t.Fatalf("Quarantine(%s) failed: %v", email, err)
	}
	return out
}

func TestFetch_ByID(t *testing.T) {
	database := openTestDB(t)
	created := mustQuarantine(t, database, "bot@example.com", quarantine.LevelLikely)

	out, err := Fetch(context.Background(), database, FetchInput{ID: created.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.ID != created.ID {
		t.Errorf("ID = %q, want %q", out.ID, created.ID)
	}
	if out.Level != quarantine.LevelLikely {
		t.Errorf("Level = %v, want likely", out.Level)
	}
}

func TestFetch_ByEmail(t *testing.T) {
	database := openTestDB(t)
	created := mustQuarantine(t, database, "bot@example.com", quarantine.LevelProven)

	out, err := Fetch(context.Background(), database, FetchInput{Email: "BOT@Example.com"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.ID != created.ID {
		t.Errorf("ID = %q, want %q", out.ID, created.ID)
	}
}

func TestFetch_Lifted(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	created := mustQuarantine(t, database, "bot@example.com", quarantine.LevelLikely)

	if _, err := Lift(ctx, database, nil, LiftInput{ID: created.ID}); err != nil {
		t.Fatalf("Lift failed: %v", err)
	}

	_, err := Fetch(ctx, database, FetchInput{ID: created.ID})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch of lifted record by ID: error = %v, want NOT_FOUND", err)
	}
	_, err = Fetch(ctx, database, FetchInput{Email: "bot@example.com"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch of lifted record by email: error = %v, want NOT_FOUND", err)
	}

	out, err := Fetch(ctx, database, FetchInput{ID: created.ID, IncludeLifted: true})
	if err != nil {
		t.Fatalf("Fetch with IncludeLifted failed: %v", err)
	}
	if out.LiftedAt == nil {
		t.Error("LiftedAt = nil, want set")
	}

	out, err = Fetch(ctx, database, FetchInput{Email: "bot@example.com", IncludeLifted: true})
	if err != nil {
		t.Fatalf("Fetch by email with IncludeLifted failed: %v", err)
	}
	if out.ID != created.ID {
		t.Errorf("ID = %q, want %q", out.ID, created.ID)
	}
}

func TestFetch_PrefersActiveOverLifted(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	old := mustQuarantine(t, database, "bot@example.com", quarantine.LevelProven)
	if _, err := Lift(ctx, database, nil, LiftInput{ID: old.ID}); err != nil {
		t.Fatalf("Lift failed: %v", err)
	}
	current := mustQuarantine(t, database, "bot@example.com", quarantine.LevelSuspected)

	out, err := Fetch(ctx, database, FetchInput{Email: "bot@example.com", IncludeLifted: true})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.ID != current.ID {
		t.Errorf("ID = %q, want active record %q", out.ID, current.ID)
	}
}

func TestFetch_Addressing(t *testing.T) {
	database := openTestDB(t)

	_, err := Fetch(context.Background(), database, FetchInput{ID: "01X", Email: "bot@example.com"})
	if !errors.Is(err, errors.ErrAmbiguousAddressing) {
		t.Errorf("error = %v, want AMBIGUOUS_ADDRESSING", err)
	}

	_, err = Fetch(context.Background(), database, FetchInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}

	_, err = Fetch(context.Background(), database, FetchInput{ID: "01NOPE"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestCheck(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	out, err := Check(ctx, database, CheckInput{Email: "bot@example.com"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if out.Quarantined {
		t.Error("unknown identity reported as quarantined")
	}

	created := mustQuarantine(t, database, "bot@example.com", quarantine.LevelSuspected)

	tests := []struct {
		name   string
		levels []quarantine.Level
		want   bool
	}{
		{"any level", nil, true},
		{"matching level", []quarantine.Level{quarantine.LevelSuspected}, true},
		{"one of several", []quarantine.Level{quarantine.LevelProven, quarantine.LevelSuspected}, true},
		{"other level", []quarantine.Level{quarantine.LevelLikely}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Check(ctx, database, CheckInput{Email: "Bot@Example.com", Levels: tt.levels})
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if out.Quarantined != tt.want {
				t.Errorf("Quarantined = %v, want %v", out.Quarantined, tt.want)
			}
			if tt.want && out.ID != created.ID {
				t.Errorf("ID = %q, want %q", out.ID, created.ID)
			}
			if !tt.want && out.Level != nil {
				t.Errorf("Level = %v, want nil", *out.Level)
			}
		})
	}

	if _, err := Lift(ctx, database, nil, LiftInput{Email: "bot@example.com"}); err != nil {
		t.Fatalf("Lift failed: %v", err)
	}
	out, err = Check(ctx, database, CheckInput{Email: "bot@example.com"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if out.Quarantined {
		t.Error("lifted identity reported as quarantined")
	}
}

func TestCheck_Validation(t *testing.T) {
	database := openTestDB(t)

	_, err := Check(context.Background(), database, CheckInput{Email: "nope"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad email: error = %v, want INVALID_REQUEST", err)
	}

	_, err = Check(context.Background(), database, CheckInput{Email: "bot@example.com", Levels: []quarantine.Level{3}})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad level: error = %v, want INVALID_REQUEST", err)
	}
}

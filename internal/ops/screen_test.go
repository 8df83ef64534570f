package ops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/quarantine"
	"github.com/hpungsan/spamguard/internal/textstats"
)

func TestScreen_Clean(t *testing.T) {
	database := openTestDB(t)

	out, err := Screen(context.Background(), database, config.DefaultConfig(), nil, ScreenInput{
		Email:  "jdoe@example.com",
		Fields: map[string]string{"first_name": "Monsieur", "last_name": "Biz", "company": "  "},
	})
	require.NoError(t, err)

	assert.False(t, out.Quarantined)
	assert.Equal(t, OutcomeClean, out.Outcome)
	assert.Nil(t, out.Level)
	assert.Nil(t, out.Item)
	assert.Empty(t, out.ReasonCodes)
	assert.Equal(t, 0.74, out.Score)

	// email first, then fields by name; blank fields skipped
	var names []string
	for _, f := range out.Fields {
		names = append(names, f.Field)
	}
	assert.Equal(t, []string{"email", "first_name", "last_name"}, names)

	_, err = db.GetActiveByEmail(context.Background(), database, "jdoe@example.com")
	assert.True(t, errors.Is(err, errors.ErrNotFound), "clean screening must not write: %v", err)
}

func TestScreen_QuarantinesSuspected(t *testing.T) {
	database := openTestDB(t)

	out, err := Screen(context.Background(), database, config.DefaultConfig(), nil, ScreenInput{
		Email:  "jdoe@Example.COM",
		Fields: map[string]string{"first_name": "MoNsIeUr BiZ"},
	})
	require.NoError(t, err)

	require.True(t, out.Quarantined)
	assert.Equal(t, OutcomeQuarantined, out.Outcome)
	assert.Equal(t, 0.47, out.Score)
	require.NotNil(t, out.Level)
	assert.Equal(t, quarantine.LevelSuspected, *out.Level)

	assert.Equal(t, []string{
		"low_score:first_name",
		"first_name:" + textstats.CheckCapitalRatio,
		"first_name:" + textstats.CheckCapitalization,
	}, out.ReasonCodes)

	require.NotNil(t, out.Item)
	assert.Equal(t, "jdoe@Example.COM", out.Item.Email)
	assert.Equal(t, "jdoe@example.com", out.Item.EmailNorm)

	stored, err := db.GetActiveByEmail(context.Background(), database, "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, out.Item.ID, stored.ID)
	assert.True(t, stored.IsQuarantined(quarantine.LevelSuspected))
}

func TestScreen_Levels(t *testing.T) {
	tests := []struct {
		name  string
		value string
		score float64
		want  quarantine.Level
	}{
		{"suspected", "Monsieur#Biz", 0.53, quarantine.LevelSuspected},
		{"likely", "MoNsIeUr#BiZ", 0.39, quarantine.LevelLikely},
		{"proven", "xKCDqWRTz#", 0.13, quarantine.LevelProven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := openTestDB(t)
			out, err := Screen(context.Background(), database, config.DefaultConfig(), nil, ScreenInput{
				Email:  "jdoe@example.com",
				Fields: map[string]string{"name": tt.value},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.score, out.Score)
			require.NotNil(t, out.Level)
			assert.Equal(t, tt.want, *out.Level)
		})
	}
}

func TestScreen_LocalPartScored(t *testing.T) {
	database := openTestDB(t)

	// local part "xKCDqWRTz": only the vowel and special checks pass, 80/380
	out, err := Screen(context.Background(), database, config.DefaultConfig(), nil, ScreenInput{
		Email: "xKCDqWRTz@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.21, out.Score)
	require.NotNil(t, out.Level)
	assert.Equal(t, quarantine.LevelProven, *out.Level)
	assert.Equal(t, "low_score:email", out.ReasonCodes[0])
}

func TestScreen_EscalatesNeverDowngrades(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()

	first, err := Screen(ctx, database, cfg, nil, ScreenInput{
		Email:  "bot@example.com",
		Fields: map[string]string{"name": "MoNsIeUr BiZ"},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeQuarantined, first.Outcome)
	firstReasons := len(first.Item.ReasonCodes)

	second, err := Screen(ctx, database, cfg, nil, ScreenInput{
		Email:  "bot@example.com",
		Fields: map[string]string{"name": "MoNsIeUr#BiZ"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEscalated, second.Outcome)
	assert.Equal(t, first.Item.ID, second.Item.ID)
	assert.Equal(t, quarantine.LevelLikely, second.Item.Level)
	assert.Greater(t, len(second.Item.ReasonCodes), firstReasons, "reason codes are appended on escalation")

	third, err := Screen(ctx, database, cfg, nil, ScreenInput{
		Email:  "bot@example.com",
		Fields: map[string]string{"name": "MoNsIeUr BiZ"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, third.Outcome)

	stored, err := db.GetActiveByEmail(ctx, database, "bot@example.com")
	require.NoError(t, err)
	assert.Equal(t, quarantine.LevelLikely, stored.Level, "a weaker signal must not downgrade")
}

func TestScreen_DryRun(t *testing.T) {
	database := openTestDB(t)

	out, err := Screen(context.Background(), database, config.DefaultConfig(), nil, ScreenInput{
		Email:  "bot@example.com",
		Fields: map[string]string{"name": "MoNsIeUr BiZ"},
		DryRun: true,
	})
	require.NoError(t, err)

	assert.True(t, out.Quarantined)
	assert.Equal(t, OutcomeDryRun, out.Outcome)
	assert.Nil(t, out.Item)

	_, err = db.GetActiveByEmail(context.Background(), database, "bot@example.com")
	assert.True(t, errors.Is(err, errors.ErrNotFound), "dry run must not write: %v", err)
}

func TestScreen_CustomThresholds(t *testing.T) {
	database := openTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Thresholds = config.Thresholds{Suspected: config.Float64(0.80)}

	out, err := Screen(context.Background(), database, cfg, nil, ScreenInput{
		Email:  "jdoe@example.com",
		Fields: map[string]string{"name": "Monsieur Biz"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuarantined, out.Outcome)
}

func TestScreen_Validation(t *testing.T) {
	database := openTestDB(t)
	cfg := config.DefaultConfig()

	tests := []struct {
		name  string
		input ScreenInput
	}{
		{"missing email", ScreenInput{}},
		{"display name email", ScreenInput{Email: "Bot <bot@example.com>"}},
		{"reserved field", ScreenInput{Email: "a@b.co", Fields: map[string]string{"email": "x"}}},
		{"blank field name", ScreenInput{Email: "a@b.co", Fields: map[string]string{" ": "x"}}},
		{"padded field name", ScreenInput{Email: "a@b.co", Fields: map[string]string{" name": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Screen(context.Background(), database, cfg, nil, tt.input)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "error = %v", err)
		})
	}
}

func TestScreen_RecordsMetrics(t *testing.T) {
	database := openTestDB(t)
	m := metrics.New()

	_, err := Screen(context.Background(), database, config.DefaultConfig(), m, ScreenInput{
		Email:  "bot@example.com",
		Fields: map[string]string{"name": "MoNsIeUr BiZ"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `spamguard_screenings_total{outcome="quarantined"} 1`)
	assert.Contains(t, body, `spamguard_quarantines_total{level="suspected"} 1`)
	assert.Contains(t, body, `spamguard_analyses_total 2`)
}

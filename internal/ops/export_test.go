package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// exportConfig allows writing into dir.
func exportConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return cfg
}

func readExport(t *testing.T, path string) (ExportHeader, []quarantine.ExportRecord) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "export has no header line")

	var header ExportHeader
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &header))

	var records []quarantine.ExportRecord
	for scanner.Scan() {
		var r quarantine.ExportRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	require.NoError(t, scanner.Err())
	return header, records
}

func TestExport_ActiveOnly(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	first := mustQuarantine(t, database, "a@example.com", quarantine.LevelSuspected)
	second := mustQuarantine(t, database, "b@example.com", quarantine.LevelProven)
	lifted := mustQuarantine(t, database, "c@example.com", quarantine.LevelLikely)
	_, err := Lift(ctx, database, nil, LiftInput{ID: lifted.ID})
	require.NoError(t, err)

	path := filepath.Join(dir, "audit.jsonl")
	out, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path})
	require.NoError(t, err)

	assert.Equal(t, path, out.Path)
	assert.Equal(t, 2, out.Count)

	header, records := readExport(t, path)
	assert.True(t, header.SpamguardExport)
	assert.Equal(t, ExportSchemaVersion, header.SchemaVersion)
	assert.Equal(t, out.ExportedAt, header.ExportedAt)
	assert.False(t, header.IncludeLifted)

	require.Len(t, records, 2)
	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
	for _, r := range records {
		assert.Nil(t, r.LiftedAt)
		assert.Contains(t, []int{4, 8, 16}, r.Level)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExport_IncludeLifted(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	created := mustQuarantine(t, database, "a@example.com", quarantine.LevelLikely)
	_, err := Lift(ctx, database, nil, LiftInput{ID: created.ID, Note: stringPtr("appeal accepted")})
	require.NoError(t, err)

	path := filepath.Join(dir, "all.jsonl")
	out, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path, IncludeLifted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	header, records := readExport(t, path)
	assert.True(t, header.IncludeLifted)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].LiftedAt)
	require.NotNil(t, records[0].Note)
	assert.Equal(t, "appeal accepted", *records[0].Note)
	assert.Equal(t, 8, records[0].Level)
}

func TestExport_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	database := openTestDB(t)

	out, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, BaseDirName, "exports"), filepath.Dir(out.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(out.Path), "quarantine-"), "path = %s", out.Path)
	assert.Equal(t, 0, out.Count)

	all, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{IncludeLifted: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(all.Path), "quarantine-all-"), "path = %s", all.Path)
}

func TestExport_OverwritesExisting(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0600))

	mustQuarantine(t, database, "a@example.com", quarantine.LevelLikely)

	if runtime.GOOS == "windows" {
		t.Skip("rename over an existing file is refused on windows")
	}
	_, err := Export(context.Background(), database, exportConfig(dir), ExportInput{Path: path})
	require.NoError(t, err)

	_, records := readExport(t, path)
	assert.Len(t, records, 1)
}

func TestExport_RejectsPaths(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	cfg := exportConfig(dir)

	tests := []struct {
		name string
		path string
	}{
		{"traversal", dir + "/../escape.jsonl"},
		{"wrong extension", filepath.Join(dir, "audit.json")},
		{"outside allowed dirs", filepath.Join(t.TempDir(), "audit.jsonl")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(context.Background(), database, cfg, ExportInput{Path: tt.path})
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "error = %v", err)
		})
	}
}

func TestExport_Cancelled(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	mustQuarantine(t, database, "a@example.com", quarantine.LevelLikely)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(dir, "audit.jsonl")
	_, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path})
	assert.True(t, errors.Is(err, errors.ErrCancelled), "error = %v", err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "cancelled export must not leave a file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

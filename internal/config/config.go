package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default score ceilings.
const (
	DefaultSuspected = 0.60
	DefaultLikely    = 0.45
	DefaultProven    = 0.30
)

// Thresholds are score ceilings for each quarantine level. A score at or
// below a ceiling earns that level; the strictest matching level wins.
// Pointers so that an explicit 0 is distinct from unset.
type Thresholds struct {
	Suspected *float64 `json:"suspected,omitempty"`
	Likely    *float64 `json:"likely,omitempty"`
	Proven    *float64 `json:"proven,omitempty"`
}

// Ceilings returns the configured ceilings, with defaults for unset ones.
func (t Thresholds) Ceilings() (suspected, likely, proven float64) {
	return orDefault(t.Suspected, DefaultSuspected),
		orDefault(t.Likely, DefaultLikely),
		orDefault(t.Proven, DefaultProven)
}

// Float64 returns a pointer to v, for building Thresholds literals.
func Float64(v float64) *float64 {
	return &v
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// Config holds application configuration.
type Config struct {
	// Thresholds maps screening scores to quarantine levels
	Thresholds Thresholds `json:"thresholds"`

	// AnalyzeConcurrency bounds the number of goroutines used by batch analysis.
	AnalyzeConcurrency int `json:"analyze_concurrency,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format,omitempty"`

	// MetricsEnabled turns on the Prometheus collector. A pointer so that an
	// explicit false in a repo config can override a global true.
	MetricsEnabled *bool `json:"metrics_enabled,omitempty"`

	// AllowedPaths is an allowlist of directories for export.
	// Paths outside ~/.spamguard/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "text", "quarantine". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	enabled := true
	return &Config{
		Thresholds: Thresholds{
			Suspected: Float64(DefaultSuspected),
			Likely:    Float64(DefaultLikely),
			Proven:    Float64(DefaultProven),
		},
		AnalyzeConcurrency: 8,
		LogLevel:           "info",
		LogFormat:          "text",
		MetricsEnabled:     &enabled,
	}
}

// Metrics reports whether the metrics collector should be enabled.
func (c *Config) Metrics() bool {
	return c.MetricsEnabled == nil || *c.MetricsEnabled
}

// Validate checks value ranges that JSON decoding cannot express.
func (c *Config) Validate() error {
	suspected, likely, proven := c.Thresholds.Ceilings()
	for name, v := range map[string]float64{"suspected": suspected, "likely": likely, "proven": proven} {
		if v < 0 || v > 1 {
			return fmt.Errorf("thresholds.%s must be between 0 and 1, got %v", name, v)
		}
	}
	if proven > likely || likely > suspected {
		return fmt.Errorf("thresholds must satisfy proven <= likely <= suspected, got %v / %v / %v",
			proven, likely, suspected)
	}
	if c.AnalyzeConcurrency < 0 {
		return fmt.Errorf("analyze_concurrency must not be negative, got %d", c.AnalyzeConcurrency)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.spamguard.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.spamguard) and repo (.spamguard) directories.
// Repo config is found by walking upward from startDir to find the nearest .spamguard/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .spamguard/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".spamguard", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if set (thresholds) or non-zero, else base
	result.Thresholds.Suspected = orFloat(overlay.Thresholds.Suspected, base.Thresholds.Suspected)
	result.Thresholds.Likely = orFloat(overlay.Thresholds.Likely, base.Thresholds.Likely)
	result.Thresholds.Proven = orFloat(overlay.Thresholds.Proven, base.Thresholds.Proven)
	result.AnalyzeConcurrency = orInt(overlay.AnalyzeConcurrency, base.AnalyzeConcurrency)
	result.DBMaxOpenConns = orInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = orInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.LogLevel = orString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = orString(overlay.LogFormat, base.LogFormat)

	result.MetricsEnabled = base.MetricsEnabled
	if overlay.MetricsEnabled != nil {
		result.MetricsEnabled = overlay.MetricsEnabled
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// orFloat keeps an explicitly set overlay value, including 0.
func orFloat(v, fallback *float64) *float64 {
	if v == nil {
		return fallback
	}
	return v
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

package quarantine

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the severity tier of a quarantine. Only the three constants below
// are valid; values coming from outside the process go through ParseLevel,
// UnmarshalText or the database scanner, which all reject anything else.
type Level int

const (
	// LevelSuspected is the lowest tier: the submission looked unusual.
	LevelSuspected Level = 4

	// LevelLikely means the submission is probably automated.
	LevelLikely Level = 8

	// LevelProven means automation is established.
	LevelProven Level = 16
)

// Levels returns every valid level, lowest first.
func Levels() []Level {
	return []Level{LevelSuspected, LevelLikely, LevelProven}
}

// Valid reports whether l is one of the three defined levels.
func (l Level) Valid() bool {
	switch l {
	case LevelSuspected, LevelLikely, LevelProven:
		return true
	}
	return false
}

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelSuspected:
		return "suspected"
	case LevelLikely:
		return "likely"
	case LevelProven:
		return "proven"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts a level name (case-insensitive) or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Levels() {
		if s == l.String() {
			return l, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Level(n).Valid() {
		return Level(n), nil
	}
	return 0, fmt.Errorf("invalid quarantine level %q (want suspected, likely or proven)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid quarantine level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

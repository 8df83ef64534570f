package ops

import (
	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// Policy maps a screening score to a quarantine level. Each field is the
// highest score that still earns its level.
type Policy struct {
	Suspected float64
	Likely    float64
	Proven    float64
}

// PolicyFromConfig builds a Policy from configured thresholds, falling back
// to the defaults when cfg is nil.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	suspected, likely, proven := cfg.Thresholds.Ceilings()
	return Policy{Suspected: suspected, Likely: likely, Proven: proven}
}

// Decide returns the strictest level whose ceiling the score does not
// exceed. The boolean is false when the score is above every ceiling.
func (p Policy) Decide(score float64) (quarantine.Level, bool) {
	switch {
	case score <= p.Proven:
		return quarantine.LevelProven, true
	case score <= p.Likely:
		return quarantine.LevelLikely, true
	case score <= p.Suspected:
		return quarantine.LevelSuspected, true
	}
	return 0, false
}

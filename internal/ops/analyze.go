package ops

import (
	"fmt"
	"unicode/utf8"

	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/textstats"
)

// AnalyzeInput contains parameters for the Analyze operation.
type AnalyzeInput struct {
	Text string
}

// AnalyzeOutput is the full statistics of one string plus the codes of the
// checks that awarded no points.
type AnalyzeOutput struct {
	textstats.Statistics
	FailedChecks []string `json:"failed_checks"`
}

// Analyze classifies and scores a single string. The empty string is valid
// and scores 1.0.
func Analyze(m *metrics.Collector, input AnalyzeInput) (*AnalyzeOutput, error) {
	if err := validateText("text", input.Text); err != nil {
		return nil, err
	}
	return analyze(m, input.Text), nil
}

func analyze(m *metrics.Collector, text string) *AnalyzeOutput {
	st := textstats.Analyze(text)
	m.RecordAnalysis(st.Score)

	failed := st.FailedChecks()
	if failed == nil {
		failed = []string{}
	}
	return &AnalyzeOutput{Statistics: *st, FailedChecks: failed}
}

func validateText(name, text string) error {
	if n := utf8.RuneCountInString(text); n > MaxTextRunes {
		return errors.NewInvalidRequest(fmt.Sprintf("%s is too long: %d characters (max %d)", name, n, MaxTextRunes))
	}
	return nil
}

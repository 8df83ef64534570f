package textstats

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Check codes, also used as quarantine reason codes.
const (
	CheckCapitalRatio          = "capital_ratio"
	CheckCapitalization        = "capitalization"
	CheckConsecutiveCapitals   = "consecutive_capitals"
	CheckConsecutiveConsonants = "consecutive_consonants"
	CheckConsecutiveVowels     = "consecutive_vowels"
	CheckSpecialCharacters     = "special_characters"
)

// check is one weighted scoring rule. Weight is added to MaxPoints whatever
// the outcome; award returns the points earned, between 0 and Weight.
type check struct {
	code   string
	weight int
	award  func(s *Statistics) int
}

// CheckResult is the outcome of one check for one string. A check passes when
// it awards any points; the run checks award partial points on a sliding scale.
type CheckResult struct {
	Code   string `json:"code"`
	Points int    `json:"points"`
	Weight int    `json:"weight"`
	Passed bool   `json:"passed"`
}

var checks = []check{
	{
		// Good: "Monsieur Biz", "NASA". Bad: "MoNsIeUr BiZ"
		code:   CheckCapitalRatio,
		weight: 50,
		award: func(s *Statistics) int {
			if s.CapitalLetters == s.Letters || s.CapitalLetters < 3 {
				return 50
			}
			return 0
		},
	},
	{
		// Good: "Monsieur Biz", "monsieur biz", "MONSIEUR BIZ". Bad: "MoNsIeUr BiZ"
		code:   CheckCapitalization,
		weight: 50,
		award: func(s *Statistics) int {
			if s.CapitalLetters == 0 || s.CapitalLetters == s.Letters || isCapitalized(s.Source) {
				return 50
			}
			return 0
		},
	},
	{
		code:   CheckConsecutiveCapitals,
		weight: 150,
		award: func(s *Statistics) int {
			return runAward(s.MaxConsecutive.CapitalLetters, 2, 50)
		},
	},
	{
		// Bad: "Mrbz"
		code:   CheckConsecutiveConsonants,
		weight: 50,
		award: func(s *Statistics) int {
			return runAward(s.MaxConsecutive.Consonants, 4, 10)
		},
	},
	{
		// Bad: "Moieur"
		code:   CheckConsecutiveVowels,
		weight: 50,
		award: func(s *Statistics) int {
			return runAward(s.MaxConsecutive.Vowels, 4, 10)
		},
	},
	{
		// Bad: "Monsieur#Biz"
		code:   CheckSpecialCharacters,
		weight: 30,
		award: func(s *Statistics) int {
			if s.SpecialCharacters == 0 {
				return 30
			}
			return 0
		},
	},
}

// MaxPoints returns the total weight of all checks, which is the MaxPoints of
// every Statistics value.
func MaxPoints() int {
	total := 0
	for _, c := range checks {
		total += c.weight
	}
	return total
}

// CheckCodes returns the check codes in evaluation order.
func CheckCodes() []string {
	codes := make([]string, len(checks))
	for i, c := range checks {
		codes[i] = c.code
	}
	return codes
}

// score runs every check against s and stores points, max points and score.
func score(s *Statistics) {
	s.Checks = make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		points := c.award(s)
		s.Points += points
		s.MaxPoints += c.weight
		s.Checks = append(s.Checks, CheckResult{
			Code:   c.code,
			Points: points,
			Weight: c.weight,
			Passed: points > 0,
		})
	}
	s.Score = round2(float64(s.Points) / float64(s.MaxPoints))
}

// runAward gives step points per unit the run is below limit+1, and nothing
// once the run exceeds limit.
func runAward(run, limit, step int) int {
	if run > limit {
		return 0
	}
	return (limit + 1 - run) * step
}

// round2 rounds half away from zero to two decimals.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// isCapitalized reports whether s is already in title case: lower-cased, then
// the first letter of every word upper-cased, words being split on Separators.
// Both directions use full case mappings, which may decompose a character
// (İ lowers to i + U+0307), so the comparison is made in NFC.
func isCapitalized(s string) bool {
	// Casers are stateful and must not be shared between goroutines.
	lower := cases.Lower(language.Und).String(s)
	return norm.NFC.String(s) == norm.NFC.String(titleCase(lower))
}

// titleCase upper-cases the first rune of s and every rune that follows a separator.
func titleCase(s string) string {
	upper := cases.Upper(language.Und)

	var b strings.Builder
	b.Grow(len(s))

	start := true
	for _, r := range s {
		if start {
			b.WriteString(upper.String(string(r)))
		} else {
			b.WriteRune(r)
		}
		start = IsSeparator(r)
	}
	return b.String()
}

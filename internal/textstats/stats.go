// Package textstats classifies the characters of a short string (a name or an
// email local part) and turns the counts into a human-likeness score in [0,1].
package textstats

// Runs holds the longest consecutive run seen for each tracked category.
type Runs struct {
	CapitalLetters            int `json:"capital_letters"`
	SmallLetters              int `json:"small_letters"`
	Consonants                int `json:"consonants"`
	Vowels                    int `json:"vowels"`
	NumericCharacters         int `json:"numeric_characters"`
	NonAlphanumericCharacters int `json:"non_alphanumeric_characters"`
	SpecialCharacters         int `json:"special_characters"`
}

// Statistics is the result of one pass over a string. It is built once by
// Analyze and not modified afterwards.
type Statistics struct {
	// Source is the analysed string, unmodified
	Source string `json:"source"`

	Characters     int `json:"characters"`
	Letters        int `json:"letters"`
	CapitalLetters int `json:"capital_letters"`
	SmallLetters   int `json:"small_letters"`
	Consonants     int `json:"consonants"`
	Vowels         int `json:"vowels"`

	// NumericCharacters counts digits
	NumericCharacters int `json:"numeric_characters"`

	// NonAlphanumericCharacters counts separators (space, hyphen, apostrophe)
	NonAlphanumericCharacters int `json:"non_alphanumeric_characters"`

	// SpecialCharacters counts everything that is not a letter, digit or separator
	SpecialCharacters int `json:"special_characters"`

	MaxConsecutive Runs `json:"max_consecutive"`

	Points    int           `json:"points"`
	MaxPoints int           `json:"max_points"`
	Score     float64       `json:"score"`
	Checks    []CheckResult `json:"checks"`
}

// Analyze classifies every code point of s left to right and scores the result.
// It never fails: characters that are neither letters nor digits fall through
// to the separator/special rule.
func Analyze(s string) *Statistics {
	var a accumulator
	for _, r := range s {
		a.add(r)
	}

	st := &Statistics{
		Source:                    s,
		Characters:                a.chars,
		Letters:                   a.letters,
		CapitalLetters:            a.total[classCapital],
		SmallLetters:              a.total[classSmall],
		Consonants:                a.total[classConsonant],
		Vowels:                    a.total[classVowel],
		NumericCharacters:         a.total[classNumeric],
		NonAlphanumericCharacters: a.total[classSeparator],
		SpecialCharacters:         a.total[classSpecial],
		MaxConsecutive: Runs{
			CapitalLetters:            a.max[classCapital],
			SmallLetters:              a.max[classSmall],
			Consonants:                a.max[classConsonant],
			Vowels:                    a.max[classVowel],
			NumericCharacters:         a.max[classNumeric],
			NonAlphanumericCharacters: a.max[classSeparator],
			SpecialCharacters:         a.max[classSpecial],
		},
	}
	score(st)
	return st
}

// Score is a shortcut for Analyze(s).Score.
func Score(s string) float64 {
	return Analyze(s).Score
}

// FailedChecks returns the codes of the checks that awarded no points.
func (s *Statistics) FailedChecks() []string {
	var failed []string
	for _, c := range s.Checks {
		if !c.Passed {
			failed = append(failed, c.Code)
		}
	}
	return failed
}

package textstats

import (
	stderrors "errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Counts(t *testing.T) {
	st := Analyze("Monsieur Biz")

	assert.Equal(t, "Monsieur Biz", st.Source)
	assert.Equal(t, 12, st.Characters)
	assert.Equal(t, 11, st.Letters)
	assert.Equal(t, 2, st.CapitalLetters)
	assert.Equal(t, 9, st.SmallLetters)
	assert.Equal(t, 5, st.Vowels)
	assert.Equal(t, 6, st.Consonants)
	assert.Equal(t, 0, st.NumericCharacters)
	assert.Equal(t, 1, st.NonAlphanumericCharacters)
	assert.Equal(t, 0, st.SpecialCharacters)

	assert.Equal(t, Runs{
		CapitalLetters:            1,
		SmallLetters:              7,
		Consonants:                2,
		Vowels:                    3,
		NonAlphanumericCharacters: 1,
	}, st.MaxConsecutive)
}

func TestAnalyze_Empty(t *testing.T) {
	st := Analyze("")

	assert.Zero(t, st.Characters)
	assert.Zero(t, st.Letters)
	assert.Equal(t, Runs{}, st.MaxConsecutive)
	assert.Equal(t, 380, st.MaxPoints)
	assert.Equal(t, 380, st.Points)
	assert.Equal(t, 1.0, st.Score)
	assert.Empty(t, st.FailedChecks())
}

func TestAnalyze_Classification(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		letters  int
		numeric  int
		separate int
		special  int
	}{
		{"separators", "a-b c'd", 4, 0, 3, 0},
		{"special", "a#b", 2, 0, 0, 1},
		{"digits", "user123", 4, 3, 0, 0},
		{"arabic-indic digit", "a٣", 1, 1, 0, 0},
		{"at sign and dot", "john.doe@x", 8, 0, 0, 2},
		{"underscore is special", "a_b", 2, 0, 0, 1},
		{"tab is special", "a\tb", 2, 0, 0, 1},
		{"emoji", "bob😀", 3, 0, 0, 1},
		{"invalid utf8", "a\xffb", 2, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Analyze(tt.input)
			if st.Letters != tt.letters {
				t.Errorf("Letters = %d, want %d", st.Letters, tt.letters)
			}
			if st.NumericCharacters != tt.numeric {
				t.Errorf("NumericCharacters = %d, want %d", st.NumericCharacters, tt.numeric)
			}
			if st.NonAlphanumericCharacters != tt.separate {
				t.Errorf("NonAlphanumericCharacters = %d, want %d", st.NonAlphanumericCharacters, tt.separate)
			}
			if st.SpecialCharacters != tt.special {
				t.Errorf("SpecialCharacters = %d, want %d", st.SpecialCharacters, tt.special)
			}
		})
	}
}

func TestAnalyze_AccentedVowels(t *testing.T) {
	st := Analyze("Élodie")

	assert.Equal(t, 1, st.CapitalLetters)
	assert.Equal(t, 4, st.Vowels) // É, o, i, e
	assert.Equal(t, 2, st.Consonants)
	assert.Equal(t, 2, st.MaxConsecutive.Vowels)

	for _, r := range "àèìòùáéíóúâêîôûäëïöüÀÈÌÒÙÁÉÍÓÚÂÊÎÔÛÄËÏÖÜaeiouyAEIOUY" {
		if !IsVowel(r) {
			t.Errorf("IsVowel(%q) = false, want true", r)
		}
	}
	for _, r := range "bcdfgñçßÿ" {
		if IsVowel(r) {
			t.Errorf("IsVowel(%q) = true, want false", r)
		}
	}
}

func TestAnalyze_RunsResetAcrossKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Runs
	}{
		{
			name:  "digit splits letter runs",
			input: "ab1cd",
			want:  Runs{SmallLetters: 2, Consonants: 2, Vowels: 1, NumericCharacters: 1},
		},
		{
			name:  "capital runs",
			input: "AB12CD",
			want:  Runs{CapitalLetters: 2, Consonants: 2, Vowels: 1, NumericCharacters: 2},
		},
		{
			name:  "separator and special alternate",
			input: "-#-",
			want:  Runs{NonAlphanumericCharacters: 1, SpecialCharacters: 1},
		},
		{
			name:  "symbol runs",
			input: "aa--##",
			want:  Runs{SmallLetters: 2, Vowels: 2, NonAlphanumericCharacters: 2, SpecialCharacters: 2},
		},
		{
			name:  "separator splits case run",
			input: "ABC DEF",
			want:  Runs{CapitalLetters: 3, Consonants: 2, Vowels: 1, NonAlphanumericCharacters: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.input).MaxConsecutive)
		})
	}
}

func TestAnalyze_ConsonantsCountedAsConsonants(t *testing.T) {
	st := Analyze("Mrbz")

	assert.Equal(t, 4, st.Consonants)
	assert.Equal(t, 0, st.Vowels)
	assert.Equal(t, 4, st.MaxConsecutive.Consonants)
	assert.Equal(t, 0, st.MaxConsecutive.Vowels)
}

func TestNumericBranchRejectsNonDigits(t *testing.T) {
	var a accumulator

	defer func() {
		r := recover()
		require.NotNil(t, r, "numeric branch accepted a letter")
		err, ok := r.(error)
		require.True(t, ok, "panic value is %T, want error", r)
		require.True(t, stderrors.Is(err, ErrNotSingleDigit))
	}()

	a.numeric('x')
}

func TestAnalyze_Idempotent(t *testing.T) {
	for _, s := range propertyCorpus(t) {
		require.Equal(t, Analyze(s), Analyze(s), "input %q", s)
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	inputs := propertyCorpus(t)
	want := make([]*Statistics, len(inputs))
	for i, s := range inputs {
		want[i] = Analyze(s)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, s := range inputs {
				assert.Equal(t, want[i], Analyze(s))
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze_Invariants(t *testing.T) {
	for _, s := range propertyCorpus(t) {
		st := Analyze(s)

		require.Equal(t, st.Characters,
			st.Letters+st.NumericCharacters+st.NonAlphanumericCharacters+st.SpecialCharacters,
			"top-level partition for %q", s)
		require.Equal(t, st.Letters, st.CapitalLetters+st.SmallLetters, "case partition for %q", s)
		require.Equal(t, st.Letters, st.Vowels+st.Consonants, "vowel partition for %q", s)
		require.Equal(t, MaxPoints(), st.MaxPoints, "max points for %q", s)
		require.GreaterOrEqual(t, st.Score, 0.0)
		require.LessOrEqual(t, st.Score, 1.0)
	}
}

// TestAnalyze_MaxRunsMatchLongestStreak checks every max run against an
// independent per-rune classification: the longest streak of runes that
// belong to the category.
func TestAnalyze_MaxRunsMatchLongestStreak(t *testing.T) {
	categories := map[string]struct {
		in  func(r rune) bool
		got func(Runs) int
	}{
		"capital": {
			in:  func(r rune) bool { return unicode.IsLetter(r) && unicode.IsUpper(r) },
			got: func(r Runs) int { return r.CapitalLetters },
		},
		"small": {
			in:  func(r rune) bool { return unicode.IsLetter(r) && !unicode.IsUpper(r) },
			got: func(r Runs) int { return r.SmallLetters },
		},
		"vowel": {
			in:  func(r rune) bool { return unicode.IsLetter(r) && IsVowel(r) },
			got: func(r Runs) int { return r.Vowels },
		},
		"consonant": {
			in:  func(r rune) bool { return unicode.IsLetter(r) && !IsVowel(r) },
			got: func(r Runs) int { return r.Consonants },
		},
		"numeric": {
			in:  func(r rune) bool { return !unicode.IsLetter(r) && unicode.IsDigit(r) },
			got: func(r Runs) int { return r.NumericCharacters },
		},
		"separator": {
			in:  IsSeparator,
			got: func(r Runs) int { return r.NonAlphanumericCharacters },
		},
		"special": {
			in: func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !IsSeparator(r)
			},
			got: func(r Runs) int { return r.SpecialCharacters },
		},
	}

	for _, s := range propertyCorpus(t) {
		runs := Analyze(s).MaxConsecutive
		for name, c := range categories {
			want := longestStreak(s, c.in)
			if got := c.got(runs); got != want {
				t.Errorf("%s run of %q = %d, want %d", name, s, got, want)
			}
		}
	}
}

func longestStreak(s string, in func(rune) bool) int {
	best, cur := 0, 0
	for _, r := range s {
		if in(r) {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}

// propertyCorpus returns fixed edge cases plus seeded random strings.
func propertyCorpus(t *testing.T) []string {
	t.Helper()

	corpus := []string{
		"", " ", "a", "A", "1", "#", "-", "'",
		"Monsieur Biz", "MoNsIeUr BiZ", "Monsieur#Biz", "monsieur biz", "MONSIEUR BIZ",
		"Jean-Pierre O'Neil", "Élodie Dupré", "Zoë", "xkcdqwrtz", "aeiouyaeiou",
		"user1234", "john.doe+spam@", "ŁUKASZ", "Müller-Lüdenscheidt", "日本語",
		"a\xffb", "\t\n", "AAaaAAaa11--##",
	}

	alphabet := []rune("aAeEiIoOuUyYbBcCdDzZéÉöÖñÑß0123456789 -'#@._!日😀")
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var b strings.Builder
		n := rng.Intn(24)
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		corpus = append(corpus, b.String())
	}
	return corpus
}

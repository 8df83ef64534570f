package textstats

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotSingleDigit is raised when the numeric branch receives anything other
// than one numeric digit. Reaching it means the classification order is broken.
var ErrNotSingleDigit = stderrors.New("not a single numeric character")

// Vowels is the fixed, case-insensitive vowel set. Every other letter is a consonant.
const Vowels = "aeiouyàèìòùáéíóúâêîôûäëïöü"

// Separators are the non-alphanumeric characters expected in names.
// Anything else that is neither a letter nor a digit is special.
const Separators = " -'"

// kind is the top-level category of a character.
type kind int

const (
	kindNone kind = iota
	kindLetter
	kindNumeric
	kindSymbol
)

// class is a category whose consecutive runs are tracked.
type class int

const (
	classCapital class = iota
	classSmall
	classVowel
	classConsonant
	classNumeric
	classSeparator
	classSpecial
	numClasses
)

// classKind maps each class to the top-level kind it belongs to.
var classKind = [numClasses]kind{
	classCapital:   kindLetter,
	classSmall:     kindLetter,
	classVowel:     kindLetter,
	classConsonant: kindLetter,
	classNumeric:   kindNumeric,
	classSeparator: kindSymbol,
	classSpecial:   kindSymbol,
}

// classSibling maps each class to the mutually exclusive class of the same pair.
// A class without a pair is its own sibling.
var classSibling = [numClasses]class{
	classCapital:   classSmall,
	classSmall:     classCapital,
	classVowel:     classConsonant,
	classConsonant: classVowel,
	classNumeric:   classNumeric,
	classSeparator: classSpecial,
	classSpecial:   classSeparator,
}

// accumulator is the single-pass state machine behind Analyze.
// running holds the current run per class; it only ever grows for the
// classes of the current kind.
type accumulator struct {
	kind    kind
	chars   int
	letters int
	total   [numClasses]int
	running [numClasses]int
	max     [numClasses]int
}

// add classifies one character. Rules apply in order and stop at the first match.
func (a *accumulator) add(r rune) {
	a.chars++

	switch {
	case unicode.IsLetter(r):
		a.letter(r)
	case unicode.IsDigit(r):
		a.numeric(r)
	default:
		a.symbol(r)
	}
}

func (a *accumulator) letter(r rune) {
	a.enter(kindLetter)
	a.letters++

	if IsVowel(r) {
		a.bump(classVowel)
	} else {
		a.bump(classConsonant)
	}

	if unicode.IsUpper(r) {
		a.bump(classCapital)
	} else {
		a.bump(classSmall)
	}
}

func (a *accumulator) numeric(r rune) {
	if !unicode.IsDigit(r) {
		panic(fmt.Errorf("%w: %q", ErrNotSingleDigit, r))
	}
	a.enter(kindNumeric)
	a.bump(classNumeric)
}

func (a *accumulator) symbol(r rune) {
	a.enter(kindSymbol)
	if IsSeparator(r) {
		a.bump(classSeparator)
	} else {
		a.bump(classSpecial)
	}
}

// enter switches the current kind. Runs never span a kind boundary, so every
// running counter outside the new kind is zeroed.
func (a *accumulator) enter(k kind) {
	if a.kind == k {
		return
	}
	for c := range numClasses {
		if classKind[c] != k {
			a.running[c] = 0
		}
	}
	a.kind = k
}

// bump counts one character of class c, ending the sibling's run.
func (a *accumulator) bump(c class) {
	if s := classSibling[c]; s != c {
		a.running[s] = 0
	}
	a.total[c]++
	a.running[c]++
	if a.running[c] > a.max[c] {
		a.max[c] = a.running[c]
	}
}

// IsVowel reports whether r belongs to the fixed vowel set, ignoring case.
func IsVowel(r rune) bool {
	return strings.ContainsRune(Vowels, unicode.ToLower(r))
}

// IsSeparator reports whether r is one of the allowed name separators.
func IsSeparator(r rune) bool {
	return strings.ContainsRune(Separators, r)
}

package cipher

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// commonWords seeds the scoring lexicon.
var commonWords = []string{
	"THE", "AND", "THIS", "THAT", "FOR", "OF", "TO", "IN", "ON", "WITH",
	"LLAMA", "LLAMAS", "UNICORN", "UNICORNS", "MISSION", "SECRET", "MESSAGE",
	"BASE", "MOUNTAIN", "ATTACK", "RENDEZVOUS", "AGENT", "HIDDEN", "DANGER",
	"EVIL", "CODE", "ALERT", "UNITS", "GUARD", "EAST", "WEST", "NORTH",
	"SOUTH", "HILLS", "SUMMIT", "THEIR", "FROM", "WHEN", "WHERE", "ARE", "IS",
}

// patternWords seeds the dictionary used to segment Rail Fence output.
var patternWords = []string{
	"LLAMA", "LLAMAS", "UNICORN", "UNICORNS", "HIDING", "HIDE", "HIDDEN",
	"IN", "MOUNTAIN", "BASE", "TWENTY", "THREE", "CODE", "PATTERN", "SECRET",
	"MESSAGE", "ATTACK", "COORDINATES", "EVIL", "SYNDICATE", "NORTH", "SOUTH",
	"EAST", "WEST", "HILLS", "SUMMIT", "RENDEZVOUS",
}

// Lexicon is an immutable set of upper-case words.
type Lexicon struct {
	set      map[string]struct{}
	byLength []string
}

// NewLexicon upper-cases and de-duplicates words. Blank entries are dropped.
func NewLexicon(words ...string) *Lexicon {
	l := &Lexicon{set: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := l.set[w]; dup {
			continue
		}
		l.set[w] = struct{}{}
		l.byLength = append(l.byLength, w)
	}
	// Longest first; equal lengths keep lexical order so matching is stable.
	slices.SortFunc(l.byLength, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return l
}

// DefaultLexicon returns the built-in scoring vocabulary.
func DefaultLexicon() *Lexicon { return NewLexicon(commonWords...) }

// PatternLexicon returns the built-in Rail Fence segmentation dictionary.
func PatternLexicon() *Lexicon { return NewLexicon(patternWords...) }

// With returns a new lexicon holding l's words plus extra.
func (l *Lexicon) With(extra ...string) *Lexicon {
	if len(extra) == 0 {
		return l
	}
	return NewLexicon(append(slices.Clone(l.byLength), extra...)...)
}

// Contains reports whether word (already upper-case) is in the lexicon.
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.set[word]
	return ok
}

// Words returns the words ordered longest first.
func (l *Lexicon) Words() []string {
	return slices.Clone(l.byLength)
}

func (l *Lexicon) Len() int { return len(l.byLength) }

// Oracle scores candidate plaintexts by English-likeness. Higher is better.
type Oracle struct {
	lexicon *Lexicon
}

func NewOracle(lexicon *Lexicon) *Oracle {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Oracle{lexicon: lexicon}
}

var defaultOracle = NewOracle(DefaultLexicon())

// DefaultOracle returns the oracle built on the default lexicon.
func DefaultOracle() *Oracle { return defaultOracle }

// Lexicon returns the oracle's vocabulary.
func (o *Oracle) Lexicon() *Lexicon { return o.lexicon }

// Hits counts maximal runs of A-Z letters in text that are lexicon words.
func (o *Oracle) Hits(text string) int {
	upper := strings.ToUpper(text)
	hits := 0
	start := -1
	for i := 0; i <= len(upper); i++ {
		if i < len(upper) && upper[i] >= 'A' && upper[i] <= 'Z' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if o.lexicon.Contains(upper[start:i]) {
				hits++
			}
			start = -1
		}
	}
	return hits
}

// Score rates text. Each maximal run of A-Z letters found in the lexicon is
// worth 20, the vowel ratio is worth up to 10, each space adds 1 and each of
// Q, X, Z, J costs 0.5. Comparison is case-insensitive.
func (o *Oracle) Score(text string) float64 {
	upper := strings.ToUpper(text)
	hits := o.Hits(upper)

	var vowels, spaces, rare int
	for _, r := range upper {
		switch r {
		case 'A', 'E', 'I', 'O', 'U':
			vowels++
		case ' ':
			spaces++
		case 'Q', 'X', 'Z', 'J':
			rare++
		}
	}

	length := max(utf8.RuneCountInString(upper), 1)
	return float64(hits)*20 +
		10*float64(vowels)/float64(length) +
		float64(spaces) -
		0.5*float64(rare)
}

// Score rates text with the default oracle.
func Score(text string) float64 {
	return defaultOracle.Score(text)
}

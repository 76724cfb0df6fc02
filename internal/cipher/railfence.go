package cipher

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// RailPattern returns the rail visited at each of length positions when
// writing a zigzag over rails rails. It starts on rail 0 and reverses at
// the first and last rail.
func RailPattern(length, rails int) []int {
	pattern := make([]int, length)
	if rails < 2 {
		return pattern
	}
	rail, dir := 0, 1
	for i := range pattern {
		pattern[i] = rail
		if rail == 0 {
			dir = 1
		} else if rail == rails-1 {
			dir = -1
		}
		rail += dir
	}
	return pattern
}

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}

// DecodeRailFence inverts a rails-rail zigzag. Whitespace is removed first.
// With rails < 2 or rails >= the stripped length the stripped text is
// returned unchanged.
func DecodeRailFence(ciphertext string, rails int) string {
	text := stripSpace(ciphertext)
	n := len(text)
	if rails <= 1 || rails >= n {
		return string(text)
	}

	pattern := RailPattern(n, rails)
	counts := make([]int, rails)
	for _, r := range pattern {
		counts[r]++
	}

	// next[r] is the position in text of the next unread character of rail r.
	next := make([]int, rails)
	offset := 0
	for r, c := range counts {
		next[r] = offset
		offset += c
	}

	out := make([]rune, n)
	for i, r := range pattern {
		out[i] = text[next[r]]
		next[r]++
	}
	return string(out)
}

// EncodeRailFence writes plaintext across rails rails and reads them in
// order. Whitespace is removed first.
func EncodeRailFence(plaintext string, rails int) string {
	text := stripSpace(plaintext)
	n := len(text)
	if rails <= 1 || rails >= n {
		return string(text)
	}

	rows := make([][]rune, rails)
	for i, r := range RailPattern(n, rails) {
		rows[r] = append(rows[r], text[i])
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(string(row))
	}
	return b.String()
}

// patternBonus adds len² for every distinct dictionary word that occurs
// anywhere in text.
func patternBonus(text string, dict *Lexicon) float64 {
	upper := strings.ToUpper(text)
	bonus := 0
	for _, w := range dict.byLength {
		if strings.Contains(upper, w) {
			bonus += len(w) * len(w)
		}
	}
	return float64(bonus)
}

// Segment splits text into dictionary words, longest match first. Runs that
// start no word are emitted up to the next position where one does.
func Segment(text string, dict *Lexicon) string {
	upper := strings.ToUpper(text)
	var tokens []string

	match := func(i int) string {
		for _, w := range dict.byLength {
			if strings.HasPrefix(upper[i:], w) {
				return w
			}
		}
		return ""
	}

	for i := 0; i < len(upper); {
		if w := match(i); w != "" {
			tokens = append(tokens, w)
			i += len(w)
			continue
		}
		j := i + 1
		for j < len(upper) && match(j) == "" {
			j++
		}
		tokens = append(tokens, upper[i:j])
		i = j
	}
	return strings.Join(tokens, " ")
}

type railFenceDecoder struct {
	BaseDecoder
	oracle     *Oracle
	dictionary *Lexicon
	minRails   int
	maxRails   int
}

// NewRailFenceDecoder searches rail counts minRails..maxRails. A "rails"
// parameter fixes the count.
func NewRailFenceDecoder(oracle *Oracle, dictionary *Lexicon, minRails, maxRails int) Decoder {
	return &railFenceDecoder{
		BaseDecoder: BaseDecoder{
			KindValue:        KindRailFence,
			DescriptionValue: "Rail Fence transposition; brute-forces rail counts and segments the result into words",
		},
		oracle:     oracle,
		dictionary: dictionary,
		minRails:   minRails,
		maxRails:   maxRails,
	}
}

// Rank scores the candidate for every rail count in the search range.
func (d *railFenceDecoder) Rank(ciphertext string) []Hypothesis {
	cleaned := strings.TrimSpace(ciphertext)
	out := make([]Hypothesis, 0, d.maxRails-d.minRails+1)
	for rails := d.minRails; rails <= d.maxRails; rails++ {
		cand := DecodeRailFence(cleaned, rails)
		score := d.oracle.Score(cand) + patternBonus(cand, d.dictionary)
		out = append(out, Hypothesis{Text: cand, Score: score, Param: rails})
	}
	return out
}

func (d *railFenceDecoder) Decode(_ context.Context, input string, params Params) Outcome {
	rails, ok, err := params.Int("rails")
	if err != nil {
		return Failed(err)
	}

	if ok {
		return Decoded(DecodeRailFence(input, rails))
	}

	top := Hypothesis{Score: math.Inf(-1)}
	for _, h := range d.Rank(input) {
		if h.Score > top.Score {
			top = h
		}
	}
	return Decoded(Segment(top.Text, d.dictionary))
}

func (d *railFenceDecoder) Encode(input string, params Params) (string, error) {
	rails, ok, err := params.Int("rails")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", invalidParam("rails", "required for encoding")
	}
	if rails < 2 {
		return "", invalidParam("rails", "must be at least 2, got %d", rails)
	}
	return EncodeRailFence(input, rails), nil
}

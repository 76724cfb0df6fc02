package cipher

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordPattern     = regexp.MustCompile(`[A-Za-z0-9]+`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// AcrosticStrategy names one way of picking the letters of a hidden message.
type AcrosticStrategy string

const (
	StrategyLineInitials     AcrosticStrategy = "line_initials"
	StrategyWordInitials     AcrosticStrategy = "word_initials"
	StrategySentenceInitials AcrosticStrategy = "sentence_initials"
)

// AcrosticCandidate is what one strategy extracted, before and after
// removing non-letters.
type AcrosticCandidate struct {
	Strategy AcrosticStrategy
	Raw      string
	Letters  string
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\v' || r == '\f'
	})
}

func firstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

func lineInitials(text string) string {
	var b strings.Builder
	for _, line := range splitLines(text) {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(firstRune(line))
		}
	}
	return b.String()
}

func wordInitials(text string) string {
	var b strings.Builder
	for _, line := range splitLines(text) {
		if w := wordPattern.FindString(line); w != "" {
			b.WriteByte(w[0])
		}
	}
	return b.String()
}

func sentenceInitials(text string) string {
	var b strings.Builder
	for _, sentence := range sentencePattern.Split(text, -1) {
		if sentence = strings.TrimSpace(sentence); sentence != "" {
			b.WriteString(firstRune(sentence))
		}
	}
	return b.String()
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return r
		}
		return -1
	}, s)
}

// AcrosticCandidates runs every strategy in priority order.
func AcrosticCandidates(text string) []AcrosticCandidate {
	strategies := []struct {
		name    AcrosticStrategy
		extract func(string) string
	}{
		{StrategyLineInitials, lineInitials},
		{StrategyWordInitials, wordInitials},
		{StrategySentenceInitials, sentenceInitials},
	}

	out := make([]AcrosticCandidate, 0, len(strategies))
	for _, s := range strategies {
		raw := s.extract(text)
		out = append(out, AcrosticCandidate{Strategy: s.name, Raw: raw, Letters: lettersOnly(raw)})
	}
	return out
}

// ExtractAcrostic returns the letters of the first strategy that produces
// any. ok is false when none does.
func ExtractAcrostic(text string) (AcrosticCandidate, bool) {
	for _, c := range AcrosticCandidates(text) {
		if c.Letters != "" {
			return c, true
		}
	}
	return AcrosticCandidate{}, false
}

type acrosticDecoder struct {
	BaseDecoder
}

func NewAcrosticDecoder() Decoder {
	return &acrosticDecoder{BaseDecoder{
		KindValue:        KindAcrostic,
		DescriptionValue: "Acrostic first letters of lines, words or sentences",
	}}
}

func (d *acrosticDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	c, ok := ExtractAcrostic(input)
	if !ok {
		return NoMessageDetected()
	}
	return Decoded(c.Letters)
}

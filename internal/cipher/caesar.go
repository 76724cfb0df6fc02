package cipher

import (
	"context"
	"strings"
)

// Rotate shifts every ASCII letter forward by n positions, preserving case.
// Other runes are unchanged. n may be negative or exceed 26.
func Rotate(text string, n int) string {
	n = ((n % 26) + 26) % 26
	if n == 0 {
		return text
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+rune(n))%26
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+rune(n))%26
		default:
			return r
		}
	}, text)
}

// EncodeCaesar encrypts text with key shift.
func EncodeCaesar(text string, shift int) string {
	return Rotate(text, shift)
}

// DecodeCaesar decrypts text that was encrypted with key shift.
func DecodeCaesar(text string, shift int) string {
	return Rotate(text, -shift)
}

// RankCaesar scores all 25 non-trivial rotations of ciphertext, in rotation
// order. Param holds the rotation applied to the ciphertext.
func (o *Oracle) RankCaesar(ciphertext string) []Hypothesis {
	out := make([]Hypothesis, 0, 25)
	for rot := 1; rot < 26; rot++ {
		text := Rotate(ciphertext, rot)
		out = append(out, Hypothesis{Text: text, Score: o.Score(text), Param: rot})
	}
	return out
}

// BreakCaesar returns the best rotation of ciphertext. Ties keep the
// smallest rotation.
func (o *Oracle) BreakCaesar(ciphertext string) Hypothesis {
	return best(o.RankCaesar(ciphertext))
}

type caesarDecoder struct {
	BaseDecoder
	oracle *Oracle
}

// NewCaesarDecoder returns the Caesar decoder. With a "shift" parameter
// (the encryption key) it decrypts directly instead of searching.
func NewCaesarDecoder(oracle *Oracle) Decoder {
	return &caesarDecoder{
		BaseDecoder: BaseDecoder{
			KindValue:        KindCaesar,
			DescriptionValue: "Caesar shift cipher; tries all 25 rotations and keeps the most English-like",
		},
		oracle: oracle,
	}
}

func (d *caesarDecoder) Decode(_ context.Context, input string, params Params) Outcome {
	shift, ok, err := params.Int("shift")
	if err != nil {
		return Failed(err)
	}
	if ok {
		return Decoded(DecodeCaesar(input, shift))
	}
	return Decoded(d.oracle.BreakCaesar(input).Text)
}

// Rank lists every non-zero rotation with its score.
func (d *caesarDecoder) Rank(ciphertext string) []Hypothesis {
	return d.oracle.RankCaesar(ciphertext)
}

func (d *caesarDecoder) Encode(input string, params Params) (string, error) {
	shift, ok, err := params.Int("shift")
	if err != nil {
		return "", err
	}
	if !ok {
		shift = 3
	}
	return EncodeCaesar(input, shift), nil
}

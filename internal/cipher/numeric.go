package cipher

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var integerPattern = regexp.MustCompile(`-?\d+`)

// DecodeA1Z26 maps 1-26 to A-Z and 0 to a space. ok is false when input
// holds no integers or any integer falls outside 0-26.
func DecodeA1Z26(input string) (text string, ok bool) {
	tokens := integerPattern.FindAllString(input, -1)
	if len(tokens) == 0 {
		return "", false
	}

	var b strings.Builder
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 26 {
			return "", false
		}
		if n == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(byte('A' + n - 1))
	}
	return b.String(), true
}

// EncodeA1Z26 writes letters as their alphabet position separated by
// spaces, with 0 between words. Other characters are dropped.
func EncodeA1Z26(text string) string {
	var parts []string
	for wi, w := range strings.Fields(strings.ToUpper(text)) {
		var word []string
		for _, r := range w {
			if r >= 'A' && r <= 'Z' {
				word = append(word, strconv.Itoa(int(r-'A')+1))
			}
		}
		if len(word) == 0 {
			continue
		}
		if wi > 0 && len(parts) > 0 {
			parts = append(parts, "0")
		}
		parts = append(parts, word...)
	}
	return strings.Join(parts, " ")
}

type numericDecoder struct {
	BaseDecoder
}

func NewNumericDecoder() Decoder {
	return &numericDecoder{BaseDecoder{
		KindValue:        KindNumeric,
		DescriptionValue: "A1Z26 numeric encoding (A=1 ... Z=26, 0 is a space)",
	}}
}

func (d *numericDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	text, ok := DecodeA1Z26(input)
	if !ok {
		return NoValidEncoding()
	}
	return Decoded(text)
}

func (d *numericDecoder) Encode(input string, _ Params) (string, error) {
	return EncodeA1Z26(input), nil
}

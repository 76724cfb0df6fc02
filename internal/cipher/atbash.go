package cipher

import (
	"context"
	"strings"
)

// Atbash mirrors the alphabet: A<->Z, B<->Y and so on, preserving case.
// It is its own inverse.
func Atbash(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return 'Z' - (r - 'A')
		case r >= 'a' && r <= 'z':
			return 'z' - (r - 'a')
		default:
			return r
		}
	}, text)
}

type atbashDecoder struct {
	BaseDecoder
}

func NewAtbashDecoder() Decoder {
	return &atbashDecoder{BaseDecoder{
		KindValue:        KindAtbash,
		DescriptionValue: "Atbash mirror alphabet",
	}}
}

func (d *atbashDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	return Decoded(Atbash(input))
}

func (d *atbashDecoder) Encode(input string, _ Params) (string, error) {
	return Atbash(input), nil
}

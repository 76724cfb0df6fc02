package cipher

import (
	"context"
	"strings"
)

// ExtractCapitals collects upper-case letters that do not open a sentence.
// A sentence opens at the start of the text and after '.', '!' or '?'.
func ExtractCapitals(text string) string {
	var b strings.Builder
	opening := true
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			opening = true
		case r >= 'A' && r <= 'Z':
			if !opening {
				b.WriteRune(r)
			}
			opening = false
		case r >= 'a' && r <= 'z':
			opening = false
		}
	}
	return b.String()
}

type capitalsDecoder struct {
	BaseDecoder
}

func NewCapitalsDecoder() Decoder {
	return &capitalsDecoder{BaseDecoder{
		KindValue:        KindCapitals,
		DescriptionValue: "Hidden message in out-of-place capital letters",
	}}
}

func (d *capitalsDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	letters := ExtractCapitals(input)
	if letters == "" {
		return NoMessageDetected()
	}
	return Decoded(letters)
}

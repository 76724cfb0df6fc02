package cipher

import (
	"context"
	"strings"
)

// keypadLetters is the multi-tap layout of a phone keypad, indexed by digit.
var keypadLetters = [10]string{
	0: " ",
	2: "ABC",
	3: "DEF",
	4: "GHI",
	5: "JKL",
	6: "MNO",
	7: "PQRS",
	8: "TUV",
	9: "WXYZ",
}

// DecodeKeypad reads multi-tap presses: a run of the same digit selects the
// letter at that position on the key ("44" is H, "0" is a space). Presses
// are separated by any non-digit.
func DecodeKeypad(input string) (string, error) {
	var b strings.Builder
	for _, tok := range polybiusTokens(input) {
		digit := tok[0]
		letters := keypadLetters[digit-'0']
		if letters == "" || len(tok) > len(letters) || strings.Trim(tok, tok[:1]) != "" {
			return "", &UnknownSymbolError{Table: "keypad sequence", Token: tok}
		}
		b.WriteByte(letters[len(tok)-1])
	}
	return b.String(), nil
}

// EncodeKeypad writes each letter as its multi-tap presses separated by
// spaces; spaces become 0. Other characters are dropped.
func EncodeKeypad(text string) string {
	var presses []string
	for i, w := range strings.Fields(strings.ToUpper(text)) {
		if i > 0 {
			presses = append(presses, "0")
		}
		for _, r := range w {
			for d, letters := range keypadLetters {
				if d == 0 {
					continue
				}
				if idx := strings.IndexRune(letters, r); idx >= 0 {
					presses = append(presses, strings.Repeat(string(rune('0'+d)), idx+1))
					break
				}
			}
		}
	}
	return strings.Join(presses, " ")
}

type keypadDecoder struct {
	BaseDecoder
}

func NewKeypadDecoder() Decoder {
	return &keypadDecoder{BaseDecoder{
		KindValue:        KindKeypad,
		DescriptionValue: "Phone keypad multi-tap (2=ABC ... 9=WXYZ, 0 is a space)",
	}}
}

func (d *keypadDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	text, err := DecodeKeypad(input)
	if err != nil {
		return Failed(err)
	}
	return Decoded(text)
}

func (d *keypadDecoder) Encode(input string, _ Params) (string, error) {
	return EncodeKeypad(input), nil
}

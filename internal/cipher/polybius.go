package cipher

import (
	"context"
	"strings"
)

// polybiusGrid is the 5x5 square read row by row. J shares the I cell.
const polybiusGrid = "ABCDEFGHIKLMNOPQRSTUVWXYZ"

func polybiusTokens(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r < '0' || r > '9'
	})
}

// DecodePolybius maps each row/column digit pair to its grid letter. Any
// token that is not a pair of digits 1-5 aborts the whole decode.
func DecodePolybius(input string) (string, error) {
	var b strings.Builder
	for _, tok := range polybiusTokens(input) {
		if len(tok) != 2 || tok[0] < '1' || tok[0] > '5' || tok[1] < '1' || tok[1] > '5' {
			return "", &UnknownSymbolError{Table: "coordinate", Token: tok}
		}
		row, col := int(tok[0]-'1'), int(tok[1]-'1')
		b.WriteByte(polybiusGrid[row*5+col])
	}
	return b.String(), nil
}

// EncodePolybius renders letters as row/column pairs separated by spaces,
// words by " / ". J is written as I; other characters are dropped.
func EncodePolybius(text string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToUpper(text)) {
		var codes []string
		for _, r := range w {
			if r == 'J' {
				r = 'I'
			}
			idx := strings.IndexRune(polybiusGrid, r)
			if idx < 0 {
				continue
			}
			codes = append(codes, string([]byte{byte('1' + idx/5), byte('1' + idx%5)}))
		}
		if len(codes) > 0 {
			words = append(words, strings.Join(codes, " "))
		}
	}
	return strings.Join(words, " / ")
}

type polybiusDecoder struct {
	BaseDecoder
}

func NewPolybiusDecoder() Decoder {
	return &polybiusDecoder{BaseDecoder{
		KindValue:        KindPolybius,
		DescriptionValue: "Polybius square coordinates (5x5, I/J combined)",
	}}
}

func (d *polybiusDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	text, err := DecodePolybius(input)
	if err != nil {
		return Failed(err)
	}
	return Decoded(text)
}

func (d *polybiusDecoder) Encode(input string, _ Params) (string, error) {
	return EncodePolybius(input), nil
}

package cipher

import (
	"context"
	"strings"
)

var morseTable = map[string]rune{
	".-": 'A', "-...": 'B', "-.-.": 'C', "-..": 'D', ".": 'E', "..-.": 'F',
	"--.": 'G', "....": 'H', "..": 'I', ".---": 'J', "-.-": 'K', ".-..": 'L',
	"--": 'M', "-.": 'N', "---": 'O', ".--.": 'P', "--.-": 'Q', ".-.": 'R',
	"...": 'S', "-": 'T', "..-": 'U', "...-": 'V', ".--": 'W', "-..-": 'X',
	"-.--": 'Y', "--..": 'Z',
	"-----": '0', ".----": '1', "..---": '2', "...--": '3', "....-": '4',
	".....": '5', "-....": '6', "--...": '7', "---..": '8', "----.": '9',
}

var morseEncoding = func() map[rune]string {
	m := make(map[rune]string, len(morseTable))
	for code, r := range morseTable {
		m[r] = code
	}
	return m
}()

// morseTokens splits input into symbols and "/" word separators. A run of
// three spaces, "|" and "/" all separate words.
func morseTokens(input string) []string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "   ", " / ")
	s = strings.ReplaceAll(s, "/", " / ")
	return strings.Fields(s)
}

// DecodeMorse maps every token through the Morse table. Any unknown token
// aborts the whole decode.
func DecodeMorse(input string) (string, error) {
	var b strings.Builder
	for _, tok := range morseTokens(input) {
		if tok == "/" {
			b.WriteByte(' ')
			continue
		}
		r, ok := morseTable[tok]
		if !ok {
			return "", &UnknownSymbolError{Table: "morse symbol", Token: tok}
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// EncodeMorse renders letters and digits as Morse, letters separated by a
// space and words by " / ".
func EncodeMorse(text string) (string, error) {
	words := strings.Fields(strings.ToUpper(text))
	encoded := make([]string, 0, len(words))
	for _, w := range words {
		codes := make([]string, 0, len(w))
		for _, r := range w {
			code, ok := morseEncoding[r]
			if !ok {
				return "", &UnknownSymbolError{Table: "morse character", Token: string(r)}
			}
			codes = append(codes, code)
		}
		encoded = append(encoded, strings.Join(codes, " "))
	}
	return strings.Join(encoded, " / "), nil
}

type morseDecoder struct {
	BaseDecoder
}

func NewMorseDecoder() Decoder {
	return &morseDecoder{BaseDecoder{
		KindValue:        KindMorse,
		DescriptionValue: "International Morse code; '/', '|' or triple spaces separate words",
	}}
}

func (d *morseDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	text, err := DecodeMorse(input)
	if err != nil {
		return Failed(err)
	}
	return Decoded(text)
}

func (d *morseDecoder) Encode(input string, _ Params) (string, error) {
	return EncodeMorse(input)
}

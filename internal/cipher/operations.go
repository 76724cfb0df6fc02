package cipher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reverse returns text with its runes in reverse order.
func Reverse(text string) string {
	runes := []rune(text)
	slices.Reverse(runes)
	return string(runes)
}

type reverseDecoder struct {
	BaseDecoder
}

func NewReverseDecoder() Decoder {
	return &reverseDecoder{BaseDecoder{
		KindValue:        KindReverse,
		DescriptionValue: "Text written backwards",
	}}
}

func (d *reverseDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	return Decoded(Reverse(input))
}

func (d *reverseDecoder) Encode(input string, _ Params) (string, error) {
	return Reverse(input), nil
}

var errNotText = errors.New("decoded bytes are not printable text")

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64 tries the standard and URL alphabets, padded and raw. The
// decoded bytes must be printable UTF-8.
func DecodeBase64(input string) (string, error) {
	compact := strings.Join(strings.Fields(input), "")
	if compact == "" {
		return "", ErrEmptyInput
	}

	var firstErr error
	for _, enc := range base64Encodings {
		raw, err := enc.DecodeString(compact)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !printable(raw) {
			return "", errNotText
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("base64 decode failed: %w", firstErr)
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

type base64Decoder struct {
	BaseDecoder
}

func NewBase64Decoder() Decoder {
	return &base64Decoder{BaseDecoder{
		KindValue:        KindBase64,
		DescriptionValue: "Base64 (standard or URL alphabet, padded or raw)",
	}}
}

func (d *base64Decoder) Decode(_ context.Context, input string, _ Params) Outcome {
	text, err := DecodeBase64(input)
	if err != nil {
		return Failed(err)
	}
	return Decoded(text)
}

func (d *base64Decoder) Encode(input string, _ Params) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(input)), nil
}

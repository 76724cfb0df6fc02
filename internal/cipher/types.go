package cipher

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Kind identifies one decoder in the closed set the engine supports.
type Kind string

const (
	KindCaesar       Kind = "caesar"
	KindAtbash       Kind = "atbash"
	KindSubstitution Kind = "substitution"
	KindMorse        Kind = "morse"
	KindRailFence    Kind = "railfence"
	KindPolybius     Kind = "polybius"
	KindAcrostic     Kind = "acrostic"
	KindNumeric      Kind = "numeric"
	KindKeypad       Kind = "keypad"
	KindReverse      Kind = "reverse"
	KindCapitals     Kind = "capitals"
	KindMultiLayer   Kind = "multilayer"
	KindBase64       Kind = "base64"
)

var allKinds = []Kind{
	KindCaesar,
	KindAtbash,
	KindSubstitution,
	KindMorse,
	KindRailFence,
	KindPolybius,
	KindAcrostic,
	KindNumeric,
	KindKeypad,
	KindReverse,
	KindCapitals,
	KindMultiLayer,
	KindBase64,
}

var kindAliases = map[string]Kind{
	"rot":                 KindCaesar,
	"shift":               KindCaesar,
	"mono":                KindSubstitution,
	"monoalphabetic":      KindSubstitution,
	"simple_substitution": KindSubstitution,
	"rail_fence":          KindRailFence,
	"rail-fence":          KindRailFence,
	"rail":                KindRailFence,
	"a1z26":               KindNumeric,
	"phone":               KindKeypad,
	"multitap":            KindKeypad,
	"capitalization":      KindCapitals,
	"multi_layer":         KindMultiLayer,
	"multi-layer":         KindMultiLayer,
	"layered":             KindMultiLayer,
}

// Kinds returns every supported kind in canonical order.
func Kinds() []Kind {
	return slices.Clone(allKinds)
}

// ParseKind resolves a kind name or alias, case-insensitively.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if k := Kind(key); slices.Contains(allKinds, k) {
		return k, nil
	}
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// FailureContext is the prefix used when a decode of this kind fails.
func (k Kind) FailureContext() string {
	switch k {
	case KindCaesar:
		return "Error decrypting Caesar cipher"
	case KindAtbash:
		return "Error decrypting Atbash cipher"
	case KindSubstitution:
		return "Error decrypting substitution cipher"
	case KindMorse:
		return "Error decoding Morse code"
	case KindRailFence:
		return "Error decoding Rail Fence cipher"
	case KindPolybius:
		return "Error decoding Polybius square"
	case KindAcrostic:
		return "Error detecting acrostic messages"
	case KindNumeric:
		return "Error decoding numeric encoding"
	case KindKeypad:
		return "Error decoding phone keypad"
	case KindReverse:
		return "Error reversing text"
	case KindCapitals:
		return "Error detecting capitalization messages"
	case KindMultiLayer:
		return "Error decoding multi-layer encryption"
	case KindBase64:
		return "Error decoding Base64"
	default:
		return "Error decoding " + string(k)
	}
}

// OutcomeType tags the variant held by an Outcome.
type OutcomeType int

const (
	OutcomeDecoded OutcomeType = iota
	OutcomeNoMessage
	OutcomeNoValidEncoding
	OutcomeFailed
)

func (t OutcomeType) String() string {
	switch t {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeNoMessage:
		return "no_message"
	case OutcomeNoValidEncoding:
		return "no_valid_encoding"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(t))
	}
}

// Sentinel strings returned when a decoder finds nothing to report.
const (
	NoHiddenMessage         = "NO HIDDEN MESSAGE DETECTED"
	NoValidEncodingDetected = "NO VALID ENCODING DETECTED"
)

// Outcome is the result of one decode call. Text holds the normalized
// plaintext for Decoded outcomes; Err holds the cause for Failed ones.
type Outcome struct {
	Type OutcomeType
	Text string
	Err  error
}

// Decoded builds a successful outcome. The text is normalized: trimmed,
// whitespace runs collapsed and upper-cased.
func Decoded(text string) Outcome {
	return Outcome{Type: OutcomeDecoded, Text: normalize(text)}
}

func NoMessageDetected() Outcome { return Outcome{Type: OutcomeNoMessage} }

func NoValidEncoding() Outcome { return Outcome{Type: OutcomeNoValidEncoding} }

func Failed(err error) Outcome {
	if err == nil {
		err = ErrInternal
	}
	return Outcome{Type: OutcomeFailed, Err: err}
}

// OK reports whether the outcome carries decoded text.
func (o Outcome) OK() bool { return o.Type == OutcomeDecoded }

// Format renders the outcome as the string contract for kind k.
func (o Outcome) Format(k Kind) string {
	switch o.Type {
	case OutcomeDecoded:
		return "DECODED: " + o.Text
	case OutcomeNoMessage:
		return NoHiddenMessage
	case OutcomeNoValidEncoding:
		return NoValidEncodingDetected
	default:
		msg := ErrInternal.Error()
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return k.FailureContext() + ": " + msg
	}
}

// Decoder breaks one kind of cipher without a key.
type Decoder interface {
	// Kind returns the cipher kind handled by this decoder
	Kind() Kind

	// Description returns a human-readable description
	Description() string

	// Decode recovers plaintext from input. Params carry optional explicit
	// parameters (shift, rails, key) that bypass the search.
	Decode(ctx context.Context, input string, params Params) Outcome
}

// Encoder is implemented by decoders whose cipher can also be applied.
type Encoder interface {
	Encode(input string, params Params) (string, error)
}

// Ranker is implemented by search decoders that can list every candidate
// they considered, each with its score and key parameter.
type Ranker interface {
	Rank(ciphertext string) []Hypothesis
}

// BaseDecoder provides common functionality for decoders
type BaseDecoder struct {
	KindValue        Kind
	DescriptionValue string
}

func (b *BaseDecoder) Kind() Kind {
	return b.KindValue
}

func (b *BaseDecoder) Description() string {
	return b.DescriptionValue
}

// Hypothesis is a scored candidate plaintext. Param records the search
// parameter that produced it (Caesar rotation, rail count).
type Hypothesis struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Param int     `json:"param"`
}

// best returns the strictly highest scoring hypothesis, the first one on
// ties. It panics on an empty slice.
func best(hs []Hypothesis) Hypothesis {
	top := hs[0]
	for _, h := range hs[1:] {
		if h.Score > top.Score {
			top = h
		}
	}
	return top
}

// normalize trims, collapses whitespace to single spaces and upper-cases.
func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

package cipher

import (
	"context"
	"strings"
	"testing"
)

func decodeWith(t *testing.T, kind Kind, input string, params Params) string {
	t.Helper()
	out, err := DefaultRegistry().Decode(context.Background(), kind, input, params)
	if err != nil {
		t.Fatalf("decode %s failed: %v", kind, err)
	}
	return out
}

func TestCaesar(t *testing.T) {
	if got := EncodeCaesar("THE CODE", 5); got != "YMJ HTIJ" {
		t.Fatalf("encode: expected %q, got %q", "YMJ HTIJ", got)
	}

	h := DefaultOracle().BreakCaesar("YMJ HTIJ")
	if h.Param != 21 {
		t.Errorf("expected rotation 21, got %d", h.Param)
	}
	if h.Text != "THE CODE" {
		t.Errorf("expected %q, got %q", "THE CODE", h.Text)
	}

	if got := decodeWith(t, KindCaesar, "YMJ HTIJ", nil); got != "DECODED: THE CODE" {
		t.Errorf("unexpected output %q", got)
	}
	if got := decodeWith(t, KindCaesar, "ymj htij", Params{"shift": 5}); got != "DECODED: THE CODE" {
		t.Errorf("explicit shift: unexpected output %q", got)
	}
}

func TestRotatePreservesCaseAndPunctuation(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"abc XYZ!", 1, "bcd YZA!"},
		{"Hello, World", 26, "Hello, World"},
		{"Hello", -1, "Gdkkn"},
		{"héllo", 1, "iémmp"},
	}
	for _, tt := range tests {
		if got := Rotate(tt.input, tt.n); got != tt.expected {
			t.Errorf("Rotate(%q, %d) = %q, expected %q", tt.input, tt.n, got, tt.expected)
		}
	}
}

func TestRankCaesarExcludesZeroShift(t *testing.T) {
	ranked := DefaultOracle().RankCaesar("ABC")
	if len(ranked) != 25 {
		t.Fatalf("expected 25 candidates, got %d", len(ranked))
	}
	for i, h := range ranked {
		if h.Param != i+1 {
			t.Errorf("candidate %d has rotation %d", i, h.Param)
		}
	}
}

func TestCaesarTieKeepsLowestShift(t *testing.T) {
	// Digits never change, so every rotation scores the same.
	h := DefaultOracle().BreakCaesar("12345")
	if h.Param != 1 {
		t.Errorf("expected rotation 1 on ties, got %d", h.Param)
	}
}

func TestAtbashInvolution(t *testing.T) {
	inputs := []string{"HELLO", "Hello World", "abcdefghijklmnopqrstuvwxyz", "Mixed, With 123!"}
	for _, in := range inputs {
		if got := Atbash(Atbash(in)); got != in {
			t.Errorf("Atbash(Atbash(%q)) = %q", in, got)
		}
	}
	if got := Atbash("AbZ"); got != "ZyA" {
		t.Errorf("expected ZyA, got %q", got)
	}
	if got := decodeWith(t, KindAtbash, "gsv xlwv", nil); got != "DECODED: THE CODE" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestMorse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"slash separator", ".... . .-.. .-.. --- / .-- --- .-. .-.. -..", "DECODED: HELLO WORLD"},
		{"pipe separator", ".... ..|.-- ---", "DECODED: HI WO"},
		{"triple space", "... ---   ...", "DECODED: SO S"},
		{"digits", ".---- ..--- ...--", "DECODED: 123"},
		{"surrounding whitespace", "   .-   ", "DECODED: A"},
		{"empty", "", "DECODED: "},
		{"unknown symbol aborts", ".... ......-", "Error decoding Morse code: unknown morse symbol: ......-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindMorse, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMorseRoundTrip(t *testing.T) {
	encoded, err := EncodeMorse("sos 42")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded != "... --- ... / ....- ..---" {
		t.Errorf("unexpected encoding %q", encoded)
	}
	decoded, err := DecodeMorse(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != "SOS 42" {
		t.Errorf("expected SOS 42, got %q", decoded)
	}

	if _, err := EncodeMorse("hi!"); err == nil {
		t.Error("expected error for unencodable character")
	}
}

func TestRailPattern(t *testing.T) {
	got := RailPattern(8, 3)
	expected := []int{0, 1, 2, 1, 0, 1, 2, 1}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("pattern = %v, expected %v", got, expected)
		}
	}
}

func TestRailFenceRoundTrip(t *testing.T) {
	if got := EncodeRailFence("HELLOWORLD", 2); got != "HLOOLELWRD" {
		t.Fatalf("encode: expected HLOOLELWRD, got %q", got)
	}
	if got := DecodeRailFence("HLOOLELWRD", 2); got != "HELLOWORLD" {
		t.Fatalf("decode: expected HELLOWORLD, got %q", got)
	}
	if got := decodeWith(t, KindRailFence, "HLOOLELWRD", Params{"rails": 2}); got != "DECODED: HELLOWORLD" {
		t.Errorf("unexpected output %q", got)
	}

	for rails := 2; rails <= 6; rails++ {
		plain := "WEAREDISCOVEREDFLEEATONCE"
		if got := DecodeRailFence(EncodeRailFence(plain, rails), rails); got != plain {
			t.Errorf("rails=%d: round trip gave %q", rails, got)
		}
	}
}

func TestRailFenceDegenerate(t *testing.T) {
	tests := []struct {
		input string
		rails int
	}{
		{"ABC", 3},
		{"ABC", 10},
		{"ABC", 1},
		{"ABC", 0},
	}
	for _, tt := range tests {
		if got := DecodeRailFence(tt.input, tt.rails); got != tt.input {
			t.Errorf("DecodeRailFence(%q, %d) = %q, expected input unchanged", tt.input, tt.rails, got)
		}
	}
}

func TestRailFenceSolver(t *testing.T) {
	for rails := 2; rails <= 5; rails++ {
		cipher := EncodeRailFence("LLAMASHIDINGINMOUNTAINBASE", rails)
		got := decodeWith(t, KindRailFence, cipher, nil)
		if got != "DECODED: LLAMAS HIDING IN MOUNTAIN BASE" {
			t.Errorf("rails=%d: unexpected output %q", rails, got)
		}
	}
}

func TestSegment(t *testing.T) {
	dict := PatternLexicon()
	tests := []struct {
		input    string
		expected string
	}{
		{"LLAMASHIDINGINMOUNTAINBASE", "LLAMAS HIDING IN MOUNTAIN BASE"},
		{"xyzcode", "XYZ CODE"},
		{"HELLOWORLD", "HELLOWORLD"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Segment(tt.input, dict); got != tt.expected {
			t.Errorf("Segment(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestPolybius(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"three letters", "44 23 15", "DECODED: THE"},
		{"comma and slash", "44,23/15", "DECODED: THE"},
		{"24 is I", "24", "DECODED: I"},
		{"noise removed", "[44] [23] [15]", "DECODED: THE"},
		{"out of grid", "44 23 61", "Error decoding Polybius square: unknown coordinate: 61"},
		{"too long", "4423", "Error decoding Polybius square: unknown coordinate: 4423"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindPolybius, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	if got := EncodePolybius("the jam"); got != "44 23 15 / 24 11 32" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestAcrosticPriority(t *testing.T) {
	text := "Home\nEagle\nLove\nLake\nOcean"
	c, ok := ExtractAcrostic(text)
	if !ok {
		t.Fatal("expected a message")
	}
	if c.Strategy != StrategyLineInitials || c.Letters != "HELLO" {
		t.Errorf("expected line initials HELLO, got %s %q", c.Strategy, c.Letters)
	}

	candidates := AcrosticCandidates(text)
	if candidates[2].Letters == "" {
		t.Error("sentence strategy should also produce letters for this input")
	}
	if got := decodeWith(t, KindAcrostic, text, nil); got != "DECODED: HELLO" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestAcrosticFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"word strategy after punctuation lines", "- apple\n- banana\n* cherry", "DECODED: ABC"},
		{"digits only", "1. 2. 3.", NoHiddenMessage},
		{"blank", "   \n\n  ", NoHiddenMessage},
		{"crlf lines", "Hi\r\nIt's\r\n", "DECODED: HI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindAcrostic, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hello", "8 5 12 12 15", "DECODED: HELLO"},
		{"out of range invalidates all", "8 5 30", NoValidEncodingDetected},
		{"negative", "-1 5", NoValidEncodingDetected},
		{"zero is space", "8 0 9", "DECODED: H I"},
		{"separators", "8,5/12.12;15", "DECODED: HELLO"},
		{"dash reads as sign", "8-5", NoValidEncodingDetected},
		{"no integers", "hello", NoValidEncodingDetected},
		{"only zeros", "0 0", "DECODED: "},
		{"overflow", "99999999999999999999999", NoValidEncodingDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindNumeric, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	if got := EncodeA1Z26("Hi you"); got != "8 9 0 25 15 21" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestKeypad(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hello", "44 33 555 555 666", "DECODED: HELLO"},
		{"space key", "44 444 0 9999", "DECODED: HI Z"},
		{"four presses on seven", "7777", "DECODED: S"},
		{"too many presses", "4444", "Error decoding phone keypad: unknown keypad sequence: 4444"},
		{"mixed digits", "43", "Error decoding phone keypad: unknown keypad sequence: 43"},
		{"key one", "1", "Error decoding phone keypad: unknown keypad sequence: 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindKeypad, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	encoded := EncodeKeypad("hello you")
	if decoded, err := DecodeKeypad(encoded); err != nil || decoded != "HELLO YOU" {
		t.Errorf("round trip gave %q, %v", decoded, err)
	}
}

func TestReverseAndCapitals(t *testing.T) {
	if got := decodeWith(t, KindReverse, "edoc terces", nil); got != "DECODED: SECRET CODE" {
		t.Errorf("reverse: unexpected output %q", got)
	}

	text := "the Quick brown Fox. Jumps over It"
	if got := ExtractCapitals(text); got != "QFI" {
		t.Errorf("expected QFI, got %q", got)
	}
	if got := decodeWith(t, KindCapitals, "Nothing hidden here. Really.", nil); got != NoHiddenMessage {
		t.Errorf("capitals: unexpected output %q", got)
	}
}

func TestBase64(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"padded", "SGVsbG8gV29ybGQ=", "DECODED: HELLO WORLD"},
		{"raw", "SGVsbG8gV29ybGQ", "DECODED: HELLO WORLD"},
		{"wrapped", "SGVsbG8g\nV29ybGQ=", "DECODED: HELLO WORLD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeWith(t, KindBase64, tt.input, nil); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	got := decodeWith(t, KindBase64, "!!!!", nil)
	if !strings.HasPrefix(got, "Error decoding Base64: base64 decode failed") {
		t.Errorf("unexpected failure output %q", got)
	}
	got = decodeWith(t, KindBase64, "AAECAw==", nil)
	if got != "Error decoding Base64: "+errNotText.Error() {
		t.Errorf("binary payload: unexpected output %q", got)
	}
}

func TestMultiLayer(t *testing.T) {
	plain := "THE SECRET CODE"
	tests := []struct {
		name   string
		cipher string
		steps  []string
	}{
		{"atbash then caesar", Atbash(Rotate(plain, 3)), []string{"atbash", "caesar rotation 23"}},
		{"caesar then atbash", Rotate(Atbash(plain), 5), []string{"atbash", "caesar rotation 5"}},
		{"plain", plain, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DefaultOracle().UnwrapLayers(tt.cipher)
			if res.Text != plain {
				t.Errorf("expected %q, got %q", plain, res.Text)
			}
			if strings.Join(res.Steps, "|") != strings.Join(tt.steps, "|") {
				t.Errorf("expected steps %v, got %v", tt.steps, res.Steps)
			}
		})
	}

	if got := decodeWith(t, KindMultiLayer, Atbash(Rotate(plain, 3)), nil); got != "DECODED: "+plain {
		t.Errorf("unexpected output %q", got)
	}
}

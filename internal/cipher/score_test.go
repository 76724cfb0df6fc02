package cipher

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"empty", "", 0},
		{"two words", "THE CODE", 40 + 10*3.0/8 + 1},
		{"rare letters", "QXZJ", -2},
		{"no words", "BCD", 0},
		{"punctuation splits words", "THE,CODE", 40 + 10*3.0/8},
		{"embedded word does not count", "THECODE", 10 * 3.0 / 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.input)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Score(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	if Score("the secret code") != Score("THE SECRET CODE") {
		t.Error("score should ignore case")
	}
}

func TestScoreDeterministic(t *testing.T) {
	input := "Meet the agent at the mountain base"
	first := Score(input)
	for i := 0; i < 10; i++ {
		if got := Score(input); got != first {
			t.Fatalf("score changed between calls: %v != %v", got, first)
		}
	}
}

func TestLexicon(t *testing.T) {
	l := NewLexicon("code", " the ", "", "CODE", "mountain")

	if l.Len() != 3 {
		t.Fatalf("expected 3 words, got %d", l.Len())
	}
	if !l.Contains("CODE") || l.Contains("code") {
		t.Error("lexicon should hold upper-case words only")
	}
	if diff := cmp.Diff([]string{"MOUNTAIN", "CODE", "THE"}, l.Words()); diff != "" {
		t.Errorf("words not ordered longest first (-want +got):\n%s", diff)
	}

	extended := l.With("llama")
	if !extended.Contains("LLAMA") || l.Contains("LLAMA") {
		t.Error("With must return a new lexicon and leave the original untouched")
	}
}

func TestOracleCustomLexicon(t *testing.T) {
	o := NewOracle(DefaultLexicon().With("zebra"))
	if o.Hits("ZEBRA CODE") != 2 {
		t.Errorf("expected 2 hits, got %d", o.Hits("ZEBRA CODE"))
	}
	if DefaultOracle().Hits("ZEBRA CODE") != 1 {
		t.Error("default oracle must not see extra words")
	}
}

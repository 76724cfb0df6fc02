package cipher

import (
	"context"
	"errors"
	"testing"
)

func TestDetectTopKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Kind
	}{
		{"morse", ".... . .-.. .-.. --- / .-- --- .-. .-.. -..", KindMorse},
		{"polybius", "44 23 15", KindPolybius},
		{"numeric", "8 5 12 12 15", KindNumeric},
		{"keypad", "44 33 555 555 666", KindKeypad},
		{"caesar", "YMJ HTIJ", KindCaesar},
		{"atbash", "gsv hvxivg xlwv", KindAtbash},
		{"acrostic", "Home\nEagle\nLove\nLake\nOcean", KindAcrostic},
		{"base64", "SGVsbG8gV29ybGQ=", KindBase64},
	}

	detector := NewDetector(nil)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := detector.Detect(ctx, tt.input)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if len(results) == 0 {
				t.Fatal("expected at least one detection")
			}
			if results[0].Kind != tt.expected {
				t.Errorf("expected %s first, got %+v", tt.expected, results)
			}
		})
	}
}

func TestDetectSortedAndFiltered(t *testing.T) {
	results, err := NewDetector(nil).Detect(context.Background(), "Home\nEagle\nLove\nLake\nOcean")
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Confidence < minConfidence {
			t.Errorf("result %d below threshold: %+v", i, r)
		}
		if i > 0 && r.Confidence > results[i-1].Confidence {
			t.Errorf("results not sorted at %d", i)
		}
		if r.Reasoning == "" {
			t.Errorf("result %d has no reasoning", i)
		}
	}
}

func TestDetectEmptyInput(t *testing.T) {
	_, err := NewDetector(nil).Detect(context.Background(), "  \n ")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestAuto(t *testing.T) {
	reg := newTestRegistry(t)
	det := NewDetector(reg.Oracle())
	ctx := context.Background()

	tests := []struct {
		input    string
		kind     Kind
		expected string
	}{
		{"YMJ HTIJ", KindCaesar, "DECODED: THE CODE"},
		{".... ..", KindMorse, "DECODED: HI"},
		{"8 5 12 12 15", KindNumeric, "DECODED: HELLO"},
	}
	for _, tt := range tests {
		res, detections, err := Auto(ctx, reg, det, tt.input)
		if err != nil {
			t.Fatalf("Auto(%q) failed: %v", tt.input, err)
		}
		if len(detections) == 0 {
			t.Errorf("Auto(%q) returned no detections", tt.input)
		}
		if res.Detection.Kind != tt.kind || res.Output != tt.expected {
			t.Errorf("Auto(%q) = %s %q, expected %s %q", tt.input, res.Detection.Kind, res.Output, tt.kind, tt.expected)
		}
	}
}

func TestDecodeAll(t *testing.T) {
	reg := newTestRegistry(t)
	results, err := DecodeAll(context.Background(), reg, NewDetector(reg.Oracle()), "44 23 15")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Output != "DECODED: THE" {
		t.Errorf("unexpected results %+v", results)
	}
}

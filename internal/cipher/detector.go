package cipher

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DetectionResult is one candidate kind for an input.
type DetectionResult struct {
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
}

// minConfidence drops weak guesses from Detect.
const minConfidence = 0.3

var (
	morseCharset    = regexp.MustCompile(`^[.\-/|\s]+$`)
	polybiusCharset = regexp.MustCompile(`^[1-5\s,/]+$`)
	base64Charset   = regexp.MustCompile(`^[A-Za-z0-9+/_-]+=*$`)
)

// Detector guesses which kinds could have produced a text. The guesses are
// heuristic and ordered by confidence.
type Detector struct {
	oracle *Oracle
}

// NewDetector creates a detector that scores letter ciphers with oracle.
func NewDetector(oracle *Oracle) *Detector {
	if oracle == nil {
		oracle = DefaultOracle()
	}
	return &Detector{oracle: oracle}
}

// Detect returns candidate kinds for input with confidence of at least 0.3,
// highest first.
func (d *Detector) Detect(ctx context.Context, input string) ([]DetectionResult, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []DetectionResult{}

	results = append(results, d.detectMorse(text)...)
	results = append(results, d.detectPolybius(text)...)
	results = append(results, d.detectNumeric(text)...)
	results = append(results, d.detectKeypad(text)...)
	results = append(results, d.detectBase64(text)...)
	results = append(results, d.detectAcrostic(input)...)
	results = append(results, d.detectCapitals(text)...)
	results = append(results, d.detectLetters(text)...)

	sortResultsByConfidence(results)

	filtered := []DetectionResult{}
	for _, r := range results {
		if r.Confidence >= minConfidence {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// SupportedKinds lists the kinds Detect can propose.
func (d *Detector) SupportedKinds() []Kind {
	return []Kind{
		KindMorse, KindPolybius, KindNumeric, KindKeypad, KindBase64,
		KindAcrostic, KindCapitals, KindAtbash, KindCaesar, KindReverse,
		KindMultiLayer, KindRailFence, KindSubstitution,
	}
}

func (d *Detector) detectMorse(text string) []DetectionResult {
	if !morseCharset.MatchString(text) || !strings.ContainsAny(text, ".-") {
		return nil
	}
	if _, err := DecodeMorse(text); err != nil {
		return []DetectionResult{{
			Kind:       KindMorse,
			Confidence: 0.5,
			Reasoning:  fmt.Sprintf("Only dots and dashes, but %v", err),
		}}
	}
	return []DetectionResult{{
		Kind:       KindMorse,
		Confidence: 0.95,
		Reasoning:  "Only dots, dashes and separators; every symbol is valid Morse",
	}}
}

func (d *Detector) detectPolybius(text string) []DetectionResult {
	if !polybiusCharset.MatchString(text) {
		return nil
	}
	tokens := polybiusTokens(text)
	for _, tok := range tokens {
		if len(tok) != 2 {
			return nil
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return []DetectionResult{{
		Kind:       KindPolybius,
		Confidence: 0.9,
		Reasoning:  fmt.Sprintf("%d coordinate pairs with digits 1-5", len(tokens)),
	}}
}

func (d *Detector) detectNumeric(text string) []DetectionResult {
	tokens := integerPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return nil
	}
	if _, ok := DecodeA1Z26(text); !ok {
		return nil
	}

	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	density := float64(digits) / float64(len(strings.Join(strings.Fields(text), "")))

	confidence := 0.5 + math.Min(density, 1)*0.35
	return []DetectionResult{{
		Kind:       KindNumeric,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("%d integers, all within 0-26", len(tokens)),
	}}
}

func (d *Detector) detectKeypad(text string) []DetectionResult {
	for _, r := range text {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return nil
		}
	}
	if _, err := DecodeKeypad(text); err != nil {
		return nil
	}
	repeated := 0
	tokens := polybiusTokens(text)
	for _, tok := range tokens {
		if len(tok) > 1 {
			repeated++
		}
	}
	if repeated == 0 {
		return []DetectionResult{{
			Kind:       KindKeypad,
			Confidence: 0.35,
			Reasoning:  "Single keypad digits",
		}}
	}
	return []DetectionResult{{
		Kind:       KindKeypad,
		Confidence: 0.7,
		Reasoning:  fmt.Sprintf("%d of %d tokens are repeated key presses", repeated, len(tokens)),
	}}
}

func (d *Detector) detectBase64(text string) []DetectionResult {
	compact := strings.Join(strings.Fields(text), "")
	if len(compact) < 8 || !base64Charset.MatchString(compact) {
		return nil
	}
	if _, err := DecodeBase64(compact); err != nil {
		return nil
	}
	confidence := 0.85
	// Valid Base64 should be a multiple of 4 or carry padding
	if len(compact)%4 != 0 && !strings.HasSuffix(compact, "=") {
		confidence = 0.6
	}
	return []DetectionResult{{
		Kind:       KindBase64,
		Confidence: confidence,
		Reasoning:  "Matches Base64 alphabet and decodes to printable text",
	}}
}

func (d *Detector) detectAcrostic(text string) []DetectionResult {
	lines := 0
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	if lines < 3 {
		return nil
	}
	confidence := math.Min(0.4+0.05*float64(lines), 0.75)
	return []DetectionResult{{
		Kind:       KindAcrostic,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("%d non-blank lines", lines),
	}}
}

func (d *Detector) detectCapitals(text string) []DetectionResult {
	caps := ExtractCapitals(text)
	if len(caps) < 3 {
		return nil
	}
	lower := 0
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			lower++
		}
	}
	if lower < 3*len(caps) {
		return nil
	}
	return []DetectionResult{{
		Kind:       KindCapitals,
		Confidence: 0.45,
		Reasoning:  fmt.Sprintf("%d capitals inside sentences", len(caps)),
	}}
}

// detectLetters handles mostly alphabetic input: it tries the cheap keyless
// transforms and falls back to transposition or substitution guesses based
// on the index of coincidence.
func (d *Detector) detectLetters(text string) []DetectionResult {
	letters, other := 0, 0
	for _, r := range text {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			letters++
		case unicode.IsSpace(r) || unicode.IsPunct(r):
		default:
			other++
		}
	}
	if letters == 0 || other*4 > letters {
		return nil
	}

	results := []DetectionResult{}
	if d.oracle.Hits(text) > 0 {
		// Already reads as plain text; nothing to undo.
		return results
	}

	fromHits := func(hits int) float64 {
		return math.Min(0.5+0.15*float64(hits), 0.9)
	}

	if hits := d.oracle.Hits(Atbash(text)); hits > 0 {
		results = append(results, DetectionResult{
			Kind:       KindAtbash,
			Confidence: fromHits(hits),
			Reasoning:  fmt.Sprintf("Atbash reveals %d known words", hits),
		})
	}
	if best := d.oracle.BreakCaesar(text); d.oracle.Hits(best.Text) > 0 {
		hits := d.oracle.Hits(best.Text)
		results = append(results, DetectionResult{
			Kind:       KindCaesar,
			Confidence: fromHits(hits),
			Reasoning:  fmt.Sprintf("Rotation %d reveals %d known words", best.Param, hits),
		})
	}
	if hits := d.oracle.Hits(Reverse(text)); hits > 0 {
		results = append(results, DetectionResult{
			Kind:       KindReverse,
			Confidence: fromHits(hits),
			Reasoning:  fmt.Sprintf("Reversed text contains %d known words", hits),
		})
	}
	if len(results) > 0 {
		return results
	}

	if layered := d.oracle.UnwrapLayers(text); len(layered.Steps) > 1 && d.oracle.Hits(layered.Text) > 0 {
		results = append(results, DetectionResult{
			Kind:       KindMultiLayer,
			Confidence: 0.65,
			Reasoning:  "Undone by " + strings.Join(layered.Steps, ", "),
		})
	}

	ioc := IndexOfCoincidence(text)
	englishLike := ioc >= 0.055
	switch {
	case englishLike && !strings.ContainsAny(text, " \t\n") && letters >= 6:
		results = append(results,
			DetectionResult{
				Kind:       KindRailFence,
				Confidence: 0.55,
				Reasoning:  fmt.Sprintf("English letter statistics (IoC %.3f) without word breaks", ioc),
			},
			DetectionResult{
				Kind:       KindSubstitution,
				Confidence: 0.4,
				Reasoning:  fmt.Sprintf("Letters only (IoC %.3f)", ioc),
			})
	case englishLike:
		results = append(results, DetectionResult{
			Kind:       KindSubstitution,
			Confidence: 0.5,
			Reasoning:  fmt.Sprintf("Monoalphabetic letter statistics (IoC %.3f)", ioc),
		})
	default:
		results = append(results, DetectionResult{
			Kind:       KindSubstitution,
			Confidence: 0.3,
			Reasoning:  fmt.Sprintf("Letters with flat statistics (IoC %.3f)", ioc),
		})
	}
	return results
}

// sortResultsByConfidence orders results highest first, keeping detector
// order on ties.
func sortResultsByConfidence(results []DetectionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
}

// DecodeResult pairs a detection with what its decoder produced.
type DecodeResult struct {
	Detection DetectionResult `json:"detection"`
	Outcome   Outcome         `json:"-"`
	Output    string          `json:"output"`
}

// DecodeAll runs the decoder of every detected kind, best guess first.
func DecodeAll(ctx context.Context, reg *Registry, det *Detector, input string) ([]DecodeResult, error) {
	detections, err := det.Detect(ctx, input)
	if err != nil {
		return nil, err
	}

	results := []DecodeResult{}
	for _, detection := range detections {
		out, err := reg.DecodeOutcome(ctx, detection.Kind, input, nil)
		if err != nil {
			continue
		}
		results = append(results, DecodeResult{
			Detection: detection,
			Outcome:   out,
			Output:    out.Format(detection.Kind),
		})
	}
	return results, nil
}

// Auto decodes input with the most likely kind that succeeds. When nothing
// decodes it returns the first attempt, or ErrNoHypothesis if no kind was
// detected at all.
func Auto(ctx context.Context, reg *Registry, det *Detector, input string) (DecodeResult, []DetectionResult, error) {
	detections, err := det.Detect(ctx, input)
	if err != nil {
		return DecodeResult{}, nil, err
	}

	var first *DecodeResult
	for _, detection := range detections {
		out, err := reg.DecodeOutcome(ctx, detection.Kind, input, nil)
		if err != nil {
			continue
		}
		res := DecodeResult{Detection: detection, Outcome: out, Output: out.Format(detection.Kind)}
		if out.OK() {
			return res, detections, nil
		}
		if first == nil {
			first = &res
		}
	}
	if first != nil {
		return *first, detections, nil
	}
	return DecodeResult{}, detections, ErrNoHypothesis
}

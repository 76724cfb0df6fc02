package cipher

import (
	"context"
	"fmt"
)

// layer is one keyless, parameter-free transform tried as the outer layer.
type layer struct {
	name  string
	apply func(string) string
}

var outerLayers = []layer{
	{"", func(s string) string { return s }},
	{"atbash", Atbash},
	{"reverse", Reverse},
	{"atbash+reverse", func(s string) string { return Reverse(Atbash(s)) }},
}

// LayeredResult is the best two-layer unwrapping of a ciphertext.
type LayeredResult struct {
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Steps    []string `json:"steps"`
	Rotation int      `json:"rotation"`
}

// UnwrapLayers tries every outer layer followed by every Caesar rotation
// 0-25 and keeps the best scoring text. Ties keep the earliest candidate,
// so plain input stays unchanged.
func (o *Oracle) UnwrapLayers(ciphertext string) LayeredResult {
	var top LayeredResult
	first := true
	for _, l := range outerLayers {
		inner := l.apply(ciphertext)
		for rot := 0; rot < 26; rot++ {
			text := Rotate(inner, rot)
			score := o.Score(text)
			if !first && score <= top.Score {
				continue
			}
			first = false

			var steps []string
			if l.name != "" {
				steps = append(steps, l.name)
			}
			if rot != 0 {
				steps = append(steps, fmt.Sprintf("caesar rotation %d", rot))
			}
			top = LayeredResult{Text: text, Score: score, Steps: steps, Rotation: rot}
		}
	}
	return top
}

type multiLayerDecoder struct {
	BaseDecoder
	oracle *Oracle
}

func NewMultiLayerDecoder(oracle *Oracle) Decoder {
	return &multiLayerDecoder{
		BaseDecoder: BaseDecoder{
			KindValue:        KindMultiLayer,
			DescriptionValue: "Two layers: Atbash and/or reversal followed by a Caesar shift",
		},
		oracle: oracle,
	}
}

func (d *multiLayerDecoder) Decode(_ context.Context, input string, _ Params) Outcome {
	return Decoded(d.oracle.UnwrapLayers(input).Text)
}

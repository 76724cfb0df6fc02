package cipher

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Step is one decoder invocation within a chain.
type Step struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Chain decodes layered ciphertext by running steps in order, feeding each
// decoded text into the next step.
type Chain struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// ChainResult reports how far a chain got. Failed is the index of the step
// that stopped the chain, or -1 when every step decoded.
type ChainResult struct {
	Output   string
	Outcome  Outcome
	Kind     Kind
	StepsRun int
	Failed   int
}

// ParseStep parses "kind" or "kind:name=value,name=value".
func ParseStep(spec string) (Step, error) {
	name, rest, hasParams := strings.Cut(strings.TrimSpace(spec), ":")
	kind, err := ParseKind(name)
	if err != nil {
		return Step{}, err
	}
	step := Step{Kind: kind}
	if hasParams && strings.TrimSpace(rest) != "" {
		params, err := ParseParams(strings.Split(rest, ","))
		if err != nil {
			return Step{}, fmt.Errorf("step %q: %w", spec, err)
		}
		step.Params = params
	}
	return step, nil
}

// String renders the step in the form accepted by ParseStep.
func (s Step) String() string {
	if len(s.Params) == 0 {
		return string(s.Kind)
	}
	pairs := make([]string, 0, len(s.Params))
	for _, k := range slices.Sorted(maps.Keys(s.Params)) {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, s.Params[k]))
	}
	return string(s.Kind) + ":" + strings.Join(pairs, ",")
}

// Execute runs the chain. An unknown kind is an error; a step that does not
// decode stops the chain and its outcome is returned.
func (c *Chain) Execute(ctx context.Context, reg *Registry, input string) (ChainResult, error) {
	if len(c.Steps) == 0 {
		return ChainResult{}, fmt.Errorf("chain has no steps")
	}

	text := input
	var res ChainResult
	for i, step := range c.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := reg.DecodeOutcome(ctx, step.Kind, text, step.Params)
		if err != nil {
			return res, fmt.Errorf("unknown decoder at step %d: %w", i, err)
		}
		res = ChainResult{
			Output:   out.Format(step.Kind),
			Outcome:  out,
			Kind:     step.Kind,
			StepsRun: i + 1,
			Failed:   -1,
		}
		if !out.OK() {
			res.Failed = i
			return res, nil
		}
		text = out.Text
	}
	return res, nil
}

// Encode applies the encoders of every step in reverse order, producing a
// ciphertext that Execute decodes back to plaintext.
func (c *Chain) Encode(reg *Registry, plaintext string) (string, error) {
	text := plaintext
	for i := len(c.Steps) - 1; i >= 0; i-- {
		step := c.Steps[i]
		next, err := reg.Encode(step.Kind, text, step.Params)
		if err != nil {
			return "", fmt.Errorf("encoder %s failed at step %d: %w", step.Kind, i, err)
		}
		text = next
	}
	return text, nil
}

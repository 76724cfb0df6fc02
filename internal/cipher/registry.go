package cipher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// SolverConfig tunes the search-based decoders.
type SolverConfig struct {
	// Restarts is the number of independent hill-climbing attempts.
	Restarts int
	// Iterations is the number of proposed swaps per attempt.
	Iterations int
	// MinRails and MaxRails bound the rail counts tried by the Rail Fence search.
	MinRails int
	MaxRails int
	// Parallel caps how many substitution restarts run concurrently.
	Parallel int
	// ExtraWords are added to both the scoring lexicon and the rail
	// segmentation dictionary.
	ExtraWords []string
}

// DefaultSolverConfig returns the stock search parameters.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Restarts:   10,
		Iterations: 2000,
		MinRails:   2,
		MaxRails:   6,
		Parallel:   1,
	}
}

// Validate checks the search bounds.
func (c SolverConfig) Validate() error {
	var errs []error
	if c.Restarts < 1 {
		errs = append(errs, fmt.Errorf("restarts must be at least 1, got %d", c.Restarts))
	}
	if c.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", c.Iterations))
	}
	if c.MinRails < 2 {
		errs = append(errs, fmt.Errorf("min rails must be at least 2, got %d", c.MinRails))
	}
	if c.MaxRails < c.MinRails {
		errs = append(errs, fmt.Errorf("max rails %d is below min rails %d", c.MaxRails, c.MinRails))
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", c.Parallel))
	}
	return errors.Join(errs...)
}

// Registry maps every Kind to its decoder. A Registry is safe for
// concurrent use; decoders hold no mutable state.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Kind]Decoder
	oracle   *Oracle
	cfg      SolverConfig
}

// NewRegistry builds a registry holding every built-in decoder, configured
// from cfg.
func NewRegistry(cfg SolverConfig) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver config: %w", err)
	}

	oracle := NewOracle(DefaultLexicon().With(cfg.ExtraWords...))
	dictionary := PatternLexicon().With(cfg.ExtraWords...)

	r := &Registry{
		decoders: make(map[Kind]Decoder, len(allKinds)),
		oracle:   oracle,
		cfg:      cfg,
	}
	builtins := []Decoder{
		NewCaesarDecoder(oracle),
		NewAtbashDecoder(),
		NewSubstitutionDecoder(oracle, cfg),
		NewMorseDecoder(),
		NewRailFenceDecoder(oracle, dictionary, cfg.MinRails, cfg.MaxRails),
		NewPolybiusDecoder(),
		NewAcrosticDecoder(),
		NewNumericDecoder(),
		NewKeypadDecoder(),
		NewReverseDecoder(),
		NewCapitalsDecoder(),
		NewMultiLayerDecoder(oracle),
		NewBase64Decoder(),
	}
	for _, d := range builtins {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(DefaultSolverConfig())
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns a shared registry built from DefaultSolverConfig.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register adds d to the registry. Registering a kind twice is an error.
func (r *Registry) Register(d Decoder) error {
	if d == nil {
		return fmt.Errorf("cannot register nil decoder")
	}

	kind := d.Kind()
	if kind == "" {
		return fmt.Errorf("decoder kind cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decoders[kind]; exists {
		return fmt.Errorf("decoder %s is already registered", kind)
	}

	r.decoders[kind] = d
	return nil
}

// Lookup returns the decoder for kind.
func (r *Registry) Lookup(kind Kind) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decoders[kind]
	return d, ok
}

// List returns all registered decoders, built-ins first in canonical order.
func (r *Registry) List() []Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Decoder, 0, len(r.decoders))
	for _, d := range r.decoders {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Decoder) int {
		ia, ib := slices.Index(allKinds, a.Kind()), slices.Index(allKinds, b.Kind())
		if ia < 0 {
			ia = len(allKinds)
		}
		if ib < 0 {
			ib = len(allKinds)
		}
		if ia != ib {
			return ia - ib
		}
		if a.Kind() < b.Kind() {
			return -1
		}
		if a.Kind() > b.Kind() {
			return 1
		}
		return 0
	})
	return out
}

// Oracle returns the scoring oracle shared by the registry's decoders.
func (r *Registry) Oracle() *Oracle {
	return r.oracle
}

// Config returns the solver configuration the registry was built with.
func (r *Registry) Config() SolverConfig {
	return r.cfg
}

// DecodeOutcome runs the decoder for kind. Panics inside the decoder are
// reported as Failed outcomes.
func (r *Registry) DecodeOutcome(ctx context.Context, kind Kind, input string, params Params) (Outcome, error) {
	d, ok := r.Lookup(kind)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return safeDecode(func() Outcome {
		return d.Decode(ctx, input, params)
	}), nil
}

// Decode runs the decoder for kind and renders its outcome. The only error
// returned is ErrUnknownKind; decode failures are part of the string.
func (r *Registry) Decode(ctx context.Context, kind Kind, input string, params Params) (string, error) {
	out, err := r.DecodeOutcome(ctx, kind, input, params)
	if err != nil {
		return "", err
	}
	return out.Format(kind), nil
}

// Encode applies the cipher for kind to plaintext.
func (r *Registry) Encode(kind Kind, plaintext string, params Params) (string, error) {
	d, ok := r.Lookup(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	enc, ok := d.(Encoder)
	if !ok {
		return "", fmt.Errorf("%s does not support encoding", kind)
	}
	return enc.Encode(plaintext, params)
}

// Rank returns every hypothesis the decoder for kind scored, in search
// order.
func (r *Registry) Rank(kind Kind, ciphertext string) ([]Hypothesis, error) {
	d, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	rk, ok := d.(Ranker)
	if !ok {
		return nil, fmt.Errorf("%s does not support ranking", kind)
	}
	return rk.Rank(ciphertext), nil
}

// Decode runs kind against input using the default registry.
func Decode(ctx context.Context, kind Kind, input string) (string, error) {
	return DefaultRegistry().Decode(ctx, kind, input, nil)
}

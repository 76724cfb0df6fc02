// Package service wraps the cipher engine with the logging, metrics and
// tracing shared by every cipherbreak transport.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/observability/metrics"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
)

// MaxBatchItems bounds a single Batch call.
const MaxBatchItems = 256

// ErrRecipeNotFound is returned when a named recipe does not exist.
var ErrRecipeNotFound = errors.New("recipe not found")

// Result is a rendered decode.
type Result struct {
	Kind    cipher.Kind `json:"kind"`
	Output  string      `json:"output"`
	Outcome string      `json:"outcome"`
}

// AutoResult is the outcome of identification followed by decoding.
type AutoResult struct {
	Result
	Confidence float64                  `json:"confidence"`
	Detections []cipher.DetectionResult `json:"detections"`
}

// BatchItem is one decode request inside a batch.
type BatchItem struct {
	Kind   string        `json:"kind"`
	Input  string        `json:"input"`
	Params cipher.Params `json:"params,omitempty"`
}

// BatchResult pairs a batch item with its result or error.
type BatchResult struct {
	Result
	Error string `json:"error,omitempty"`
}

// DecoderInfo describes a registered decoder.
type DecoderInfo struct {
	Kind        cipher.Kind `json:"kind"`
	Description string      `json:"description"`
	Encode      bool        `json:"encode"`
	Rank        bool        `json:"rank"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the collectors decode calls are recorded in.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRecipes sets the recipe store.
func WithRecipes(rm *cipher.RecipeManager) Option {
	return func(s *Service) {
		if rm != nil {
			s.recipes = rm
		}
	}
}

// WithBatchParallelism bounds how many batch items decode at once.
func WithBatchParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// Service is safe for concurrent use.
type Service struct {
	registry   *cipher.Registry
	detector   *cipher.Detector
	recipes    *cipher.RecipeManager
	logger     *logging.Logger
	metrics    *metrics.Metrics
	batchLimit int
}

// New builds a Service over reg.
func New(reg *cipher.Registry, opts ...Option) *Service {
	s := &Service{
		registry:   reg,
		detector:   cipher.NewDetector(reg.Oracle()),
		recipes:    cipher.NewRecipeManager(""),
		logger:     logging.Nop(),
		batchLimit: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the underlying registry.
func (s *Service) Registry() *cipher.Registry { return s.registry }

// Recipes returns the recipe store.
func (s *Service) Recipes() *cipher.RecipeManager { return s.recipes }

// Decoders lists every registered decoder in canonical order.
func (s *Service) Decoders() []DecoderInfo {
	decoders := s.registry.List()
	out := make([]DecoderInfo, 0, len(decoders))
	for _, d := range decoders {
		_, enc := d.(cipher.Encoder)
		_, rank := d.(cipher.Ranker)
		out = append(out, DecoderInfo{
			Kind:        d.Kind(),
			Description: d.Description(),
			Encode:      enc,
			Rank:        rank,
		})
	}
	return out
}

// Decode runs one decoder. name may be any accepted kind alias. Errors are
// limited to unknown kinds; decode failures are carried in the result.
func (s *Service) Decode(ctx context.Context, name, input string, params cipher.Params) (Result, error) {
	kind, err := cipher.ParseKind(name)
	if err != nil {
		return Result{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "cipher.decode",
		attribute.String("cipher.kind", string(kind)),
		attribute.Int("cipher.input_len", len(input)),
	)
	start := time.Now()
	out, err := s.registry.DecodeOutcome(ctx, kind, input, params)
	elapsed := time.Since(start)
	if err != nil {
		tracing.End(span, err)
		return Result{}, err
	}
	span.SetAttributes(attribute.String("cipher.outcome", out.Type.String()))
	tracing.End(span, out.Err)

	s.metrics.ObserveDecode(ctx, string(kind), out.Type.String(), elapsed)
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("outcome", out.Type.String()),
		zap.Int("input_len", len(input)),
		zap.Duration("duration", elapsed),
	}
	if out.Err != nil {
		s.logger.Warn("decode failed", append(fields, zap.Error(out.Err))...)
	} else {
		s.logger.Info("decode", fields...)
	}

	return Result{Kind: kind, Output: out.Format(kind), Outcome: out.Type.String()}, nil
}

// Encode applies the cipher for name to plaintext.
func (s *Service) Encode(ctx context.Context, name, plaintext string, params cipher.Params) (string, error) {
	kind, err := cipher.ParseKind(name)
	if err != nil {
		return "", err
	}
	_, span := tracing.StartSpan(ctx, "cipher.encode", attribute.String("cipher.kind", string(kind)))
	out, err := s.registry.Encode(kind, plaintext, params)
	tracing.End(span, err)
	if err != nil {
		s.logger.Debug("encode failed", zap.String("kind", string(kind)), zap.Error(err))
		return "", err
	}
	return out, nil
}

// Identify ranks the cipher kinds that plausibly produced input.
func (s *Service) Identify(ctx context.Context, input string) ([]cipher.DetectionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "cipher.identify", attribute.Int("cipher.input_len", len(input)))
	results, err := s.detector.Detect(ctx, input)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	top := "none"
	if len(results) > 0 {
		top = string(results[0].Kind)
	}
	s.metrics.IncrementDetect(top)
	s.logger.Debug("identify", zap.String("top", top), zap.Int("candidates", len(results)))
	return results, nil
}

// Auto identifies input and returns the first candidate that decodes.
func (s *Service) Auto(ctx context.Context, input string) (AutoResult, error) {
	ctx, span := tracing.StartSpan(ctx, "cipher.auto", attribute.Int("cipher.input_len", len(input)))
	start := time.Now()
	res, detections, err := cipher.Auto(ctx, s.registry, s.detector, input)
	tracing.End(span, err)
	if err != nil {
		return AutoResult{}, err
	}
	kind := res.Detection.Kind
	s.metrics.ObserveDecode(ctx, string(kind), res.Outcome.Type.String(), time.Since(start))
	s.logger.Info("auto decode",
		zap.String("kind", string(kind)),
		zap.Float64("confidence", res.Detection.Confidence),
		zap.String("outcome", res.Outcome.Type.String()),
	)
	return AutoResult{
		Result: Result{
			Kind:    kind,
			Output:  res.Output,
			Outcome: res.Outcome.Type.String(),
		},
		Confidence: res.Detection.Confidence,
		Detections: detections,
	}, nil
}

// Rank lists every hypothesis a search decoder scored.
func (s *Service) Rank(ctx context.Context, name, input string) ([]cipher.Hypothesis, error) {
	kind, err := cipher.ParseKind(name)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartSpan(ctx, "cipher.rank", attribute.String("cipher.kind", string(kind)))
	hs, err := s.registry.Rank(kind, input)
	tracing.End(span, err)
	return hs, err
}

// Chain runs steps against input.
func (s *Service) Chain(ctx context.Context, steps []cipher.Step, input string) (cipher.ChainResult, error) {
	ctx, span := tracing.StartSpan(ctx, "cipher.chain", attribute.Int("cipher.steps", len(steps)))
	chain := cipher.Chain{Steps: steps}
	res, err := chain.Execute(ctx, s.registry, input)
	tracing.End(span, err)
	if err != nil {
		return res, err
	}
	s.logger.Info("chain",
		zap.Int("steps", len(steps)),
		zap.Int("steps_run", res.StepsRun),
		zap.Int("failed_step", res.Failed),
	)
	return res, nil
}

// RunRecipe executes the chain stored under name.
func (s *Service) RunRecipe(ctx context.Context, name, input string) (cipher.ChainResult, error) {
	recipe, ok := s.recipes.GetRecipe(name)
	if !ok {
		return cipher.ChainResult{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}
	return s.Chain(ctx, recipe.Chain.Steps, input)
}

// Batch decodes every item with bounded parallelism. Results keep the
// order of items. A per-item error does not fail the batch.
func (s *Service) Batch(ctx context.Context, items []BatchItem) ([]BatchResult, error) {
	if len(items) > MaxBatchItems {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d items", cipher.ErrInvalidParam, len(items), MaxBatchItems)
	}
	s.metrics.AddBatchItems(len(items))

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Decode(gctx, item.Kind, item.Input, item.Params)
			if err != nil {
				results[i] = BatchResult{Result: Result{Kind: cipher.Kind(item.Kind)}, Error: err.Error()}
				return nil
			}
			results[i] = BatchResult{Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Frequency returns the letter frequency table and index of coincidence.
func (s *Service) Frequency(input string) ([]cipher.LetterFrequency, float64) {
	return cipher.FrequencyAnalysis(input), cipher.IndexOfCoincidence(input)
}

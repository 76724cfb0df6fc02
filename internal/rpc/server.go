// Package rpc serves the cipher engine over gRPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// Server implements DecoderServer on top of a service.Service.
type Server struct {
	svc    *service.Service
	logger *logging.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger overrides the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer constructs a Decoder service backed by svc.
func NewServer(svc *service.Service, opts ...ServerOption) *Server {
	s := &Server{svc: svc, logger: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode runs one decoder.
func (s *Server) Decode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	item, err := batchItemFromStruct(req)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Decode(ctx, item.Kind, item.Input, item.Params)
	if err != nil {
		return nil, statusFromError(err)
	}
	return resultStruct(res, nil)
}

// Identify ranks candidate kinds for the input.
func (s *Server) Identify(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	detections, err := s.svc.Identify(ctx, req.GetValue())
	if err != nil {
		return nil, statusFromError(err)
	}
	return structpb.NewStruct(map[string]any{"detections": detectionList(detections)})
}

// Auto identifies and decodes the input.
func (s *Server) Auto(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.svc.Auto(ctx, req.GetValue())
	if err != nil {
		return nil, statusFromError(err)
	}
	return resultStruct(res.Result, map[string]any{
		"confidence": res.Confidence,
		"detections": detectionList(res.Detections),
	})
}

// Batch decodes every item and streams the results in order.
func (s *Server) Batch(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	raw := req.GetFields()["items"].GetListValue().GetValues()
	if len(raw) == 0 {
		return status.Error(codes.InvalidArgument, "items are required")
	}
	items := make([]service.BatchItem, 0, len(raw))
	for i, v := range raw {
		item, err := batchItemFromStruct(v.GetStructValue())
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "item %d: %s", i, status.Convert(err).Message())
		}
		items = append(items, item)
	}

	results, err := s.svc.Batch(stream.Context(), items)
	if err != nil {
		return statusFromError(err)
	}
	for i, res := range results {
		var extra map[string]any
		if res.Error != "" {
			extra = map[string]any{"error": res.Error}
		}
		msg, err := resultStruct(res.Result, extra)
		if err != nil {
			return err
		}
		if err := stream.Send(msg); err != nil {
			s.logger.Debug("batch stream closed", zap.Int("sent", i), zap.Error(err))
			return err
		}
	}
	return nil
}

func batchItemFromStruct(req *structpb.Struct) (service.BatchItem, error) {
	fields := req.GetFields()
	kind := strings.TrimSpace(fields["kind"].GetStringValue())
	if kind == "" {
		return service.BatchItem{}, status.Error(codes.InvalidArgument, "kind is required")
	}
	item := service.BatchItem{Kind: kind, Input: fields["input"].GetStringValue()}
	if p := fields["params"].GetStructValue(); p != nil {
		item.Params = paramsFromStruct(p)
	}
	return item, nil
}

// paramsFromStruct narrows integral numbers to int so params read back the
// way they were written.
func paramsFromStruct(p *structpb.Struct) cipher.Params {
	params := make(cipher.Params, len(p.GetFields()))
	for name, value := range p.AsMap() {
		if f, ok := value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
			params[name] = int(f)
			continue
		}
		params[name] = value
	}
	return params
}

func resultStruct(res service.Result, extra map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":    string(res.Kind),
		"output":  res.Output,
		"outcome": res.Outcome,
	}
	for k, v := range extra {
		fields[k] = v
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return msg, nil
}

func detectionList(detections []cipher.DetectionResult) []any {
	out := make([]any, 0, len(detections))
	for _, d := range detections {
		out = append(out, map[string]any{
			"kind":       string(d.Kind),
			"confidence": d.Confidence,
			"reasoning":  d.Reasoning,
		})
	}
	return out
}

// statusFromError maps engine errors to gRPC codes.
func statusFromError(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, cipher.ErrUnknownKind), errors.Is(err, service.ErrRecipeNotFound):
		code = codes.NotFound
	case errors.Is(err, cipher.ErrInvalidParam), errors.Is(err, cipher.ErrEmptyInput):
		code = codes.InvalidArgument
	case errors.Is(err, cipher.ErrNoHypothesis):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		return status.Error(codes.Internal, fmt.Sprintf("decode: %v", err))
	}
	return status.Error(code, err.Error())
}

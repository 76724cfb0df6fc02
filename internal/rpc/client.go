package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// Client calls a remote Decoder service.
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sends token as a bearer credential on every call.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DialOptions returns the options every cipherbreak client connection should
// carry.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{grpc.WithUnaryInterceptor(tracing.UnaryClientInterceptor())}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return ctx
}

// Decode runs one decoder remotely.
func (c *Client) Decode(ctx context.Context, kind, input string, params cipher.Params) (service.Result, error) {
	req, err := itemStruct(service.BatchItem{Kind: kind, Input: input, Params: params})
	if err != nil {
		return service.Result{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), methodDecode, req, out); err != nil {
		return service.Result{}, err
	}
	return resultFromStruct(out), nil
}

// Identify asks the server to rank candidate kinds.
func (c *Client) Identify(ctx context.Context, input string) ([]cipher.DetectionResult, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), methodIdentify, wrapperspb.String(input), out); err != nil {
		return nil, err
	}
	return detectionsFromStruct(out), nil
}

// Auto asks the server to identify and decode input.
func (c *Client) Auto(ctx context.Context, input string) (service.AutoResult, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), methodAuto, wrapperspb.String(input), out); err != nil {
		return service.AutoResult{}, err
	}
	return service.AutoResult{
		Result:     resultFromStruct(out),
		Confidence: out.GetFields()["confidence"].GetNumberValue(),
		Detections: detectionsFromStruct(out),
	}, nil
}

// Batch decodes items remotely, collecting the streamed results.
func (c *Client) Batch(ctx context.Context, items []service.BatchItem) ([]service.BatchResult, error) {
	list := make([]any, 0, len(items))
	for _, item := range items {
		s, err := itemStruct(item)
		if err != nil {
			return nil, err
		}
		list = append(list, s.AsMap())
	}
	req, err := structpb.NewStruct(map[string]any{"items": list})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	ctx = tracing.InjectMetadata(c.outgoing(ctx))
	stream, err := c.conn.NewStream(ctx, &DecoderServiceDesc.Streams[0], methodBatch)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	results := make([]service.BatchResult, 0, len(items))
	for {
		msg := new(structpb.Struct)
		err := stream.RecvMsg(msg)
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return nil, err
		}
		results = append(results, service.BatchResult{
			Result: resultFromStruct(msg),
			Error:  msg.GetFields()["error"].GetStringValue(),
		})
	}
}

func itemStruct(item service.BatchItem) (*structpb.Struct, error) {
	fields := map[string]any{"kind": item.Kind, "input": item.Input}
	if len(item.Params) > 0 {
		params := make(map[string]any, len(item.Params))
		for k, v := range item.Params {
			if n, ok := v.(json.Number); ok {
				v = n.String()
			}
			params[k] = v
		}
		fields["params"] = params
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return s, nil
}

func resultFromStruct(s *structpb.Struct) service.Result {
	fields := s.GetFields()
	return service.Result{
		Kind:    cipher.Kind(fields["kind"].GetStringValue()),
		Output:  fields["output"].GetStringValue(),
		Outcome: fields["outcome"].GetStringValue(),
	}
}

func detectionsFromStruct(s *structpb.Struct) []cipher.DetectionResult {
	values := s.GetFields()["detections"].GetListValue().GetValues()
	out := make([]cipher.DetectionResult, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		out = append(out, cipher.DetectionResult{
			Kind:       cipher.Kind(f["kind"].GetStringValue()),
			Confidence: f["confidence"].GetNumberValue(),
			Reasoning:  f["reasoning"].GetStringValue(),
		})
	}
	return out
}

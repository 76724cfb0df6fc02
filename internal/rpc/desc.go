package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cipherbreak.v1.Decoder"

const (
	methodDecode   = "/" + ServiceName + "/Decode"
	methodIdentify = "/" + ServiceName + "/Identify"
	methodAuto     = "/" + ServiceName + "/Auto"
	methodBatch    = "/" + ServiceName + "/Batch"
)

// DecoderServer is the server API for the Decoder service. Messages are
// protobuf well-known types so the service needs no generated code.
type DecoderServer interface {
	// Decode takes {kind, input, params} and returns {kind, output, outcome}.
	Decode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Identify returns {detections: [{kind, confidence, reasoning}]}.
	Identify(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Auto returns {kind, output, outcome, confidence, detections}.
	Auto(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Batch takes {items: [{kind, input, params}]} and streams one result
	// per item in request order.
	Batch(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterDecoderServer registers srv with s.
func RegisterDecoderServer(s grpc.ServiceRegistrar, srv DecoderServer) {
	s.RegisterService(&DecoderServiceDesc, srv)
}

// DecoderServiceDesc describes the Decoder service.
var DecoderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DecoderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Decode", Handler: decodeHandler},
		{MethodName: "Identify", Handler: identifyHandler},
		{MethodName: "Auto", Handler: autoHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Batch", Handler: batchHandler, ServerStreams: true},
	},
	Metadata: "cipherbreak/v1/decoder.proto",
}

func decodeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecoderServer).Decode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDecode}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DecoderServer).Decode(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func identifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecoderServer).Identify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodIdentify}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DecoderServer).Identify(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func autoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecoderServer).Auto(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAuto}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DecoderServer).Auto(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func batchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DecoderServer).Batch(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

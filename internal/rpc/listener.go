package rpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/observability/metrics"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
)

// TokenValidator checks a bearer token taken from the authorization
// metadata.
type TokenValidator func(token string) error

// Options configures the gRPC listener.
type Options struct {
	Logger          *logging.Logger
	Metrics         *metrics.Metrics
	ValidateToken   TokenValidator
	ShutdownTimeout time.Duration
}

// Listener owns a grpc.Server with the Decoder and health services
// registered.
type Listener struct {
	grpc    *grpc.Server
	health  *health.Server
	logger  *logging.Logger
	timeout time.Duration
}

// NewListener builds the gRPC server for srv.
func NewListener(srv DecoderServer, opts Options) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	unary := []grpc.UnaryServerInterceptor{
		tracing.UnaryServerInterceptor(),
		observeUnary(logger, opts.Metrics),
	}
	stream := []grpc.StreamServerInterceptor{
		tracing.StreamServerInterceptor(),
		observeStream(logger, opts.Metrics),
	}
	if opts.ValidateToken != nil {
		unary = append(unary, authUnary(opts.ValidateToken))
		stream = append(stream, authStream(opts.ValidateToken))
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)
	RegisterDecoderServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return &Listener{grpc: gs, health: hs, logger: logger, timeout: timeout}
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully, forcing a stop after the shutdown timeout.
func (l *Listener) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		l.health.Shutdown()

		done := make(chan struct{})
		go func() {
			l.grpc.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(l.timeout):
			l.grpc.Stop()
		}
	}()

	l.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	if err := l.grpc.Serve(lis); err != nil {
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
	return nil
}

func observeUnary(logger *logging.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		record(ctx, logger, m, info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

func observeStream(logger *logging.Logger, m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		record(ss.Context(), logger, m, info.FullMethod, err, time.Since(start))
		return err
	}
}

func record(ctx context.Context, logger *logging.Logger, m *metrics.Metrics, method string, err error, elapsed time.Duration) {
	code := status.Code(err)
	m.ObserveRPC(ctx, "grpc", method, code.String(), elapsed)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("duration", elapsed),
	}
	if code == codes.Internal || code == codes.Unknown {
		logger.Error("grpc request", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("grpc request", fields...)
}

func authUnary(validate TokenValidator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := authorize(ctx, info.FullMethod, validate); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func authStream(validate TokenValidator) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := authorize(ss.Context(), info.FullMethod, validate); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

// bearerToken extracts the token from an authorization value. The scheme
// is matched case-insensitively, as the REST listener does.
func bearerToken(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len("bearer ") || !strings.EqualFold(value[:len("bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(value[len("bearer "):])
	return token, token != ""
}

// authorize checks the bearer token. Health checks stay public.
func authorize(ctx context.Context, method string, validate TokenValidator) error {
	if strings.HasPrefix(method, "/grpc.health.v1.Health/") {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return status.Error(codes.Unauthenticated, "missing bearer token")
	}
	token, found := bearerToken(values[0])
	if !found {
		return status.Error(codes.Unauthenticated, "missing bearer token")
	}
	if err := validate(token); err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return nil
}

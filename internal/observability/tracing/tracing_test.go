package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test", SampleRatio: 1}, sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpanAndEnd(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "decode")
	if TraceIDFromContext(ctx) == "" {
		t.Fatal("expected trace id in context")
	}
	End(span, errors.New("boom"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "decode" || spans[0].Status().Code != codes.Error {
		t.Fatalf("unexpected span %s %v", spans[0].Name(), spans[0].Status())
	}
}

func TestUnaryServerInterceptorContinuesTrace(t *testing.T) {
	recorder := installRecorder(t)

	parentCtx, parent := StartSpan(context.Background(), "client")
	out := InjectMetadata(parentCtx)
	md, _ := metadata.FromOutgoingContext(out)
	if len(md.Get("traceparent")) == 0 {
		t.Fatal("expected traceparent in outgoing metadata")
	}
	parent.End()

	incoming := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: "/cipherbreak.v1.Decoder/Decode"}
	_, err := UnaryServerInterceptor()(incoming, nil, info, func(ctx context.Context, _ any) (any, error) {
		if TraceIDFromContext(ctx) != TraceIDFromContext(parentCtx) {
			t.Error("handler span should share the caller's trace")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	server := spans[1]
	if server.Name() != info.FullMethod {
		t.Fatalf("unexpected span name %q", server.Name())
	}
	found := false
	for _, kv := range server.Attributes() {
		if kv.Key == "rpc.method" && kv.Value.AsString() == "Decode" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing rpc.method attribute: %v", server.Attributes())
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	recorder := installRecorder(t)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "GET /healthz" {
		t.Fatalf("unexpected spans %v", spans)
	}
}

func TestMiddlewareNamesSpansByRoute(t *testing.T) {
	recorder := installRecorder(t)

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Post("/recipes/{name}/run", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for _, name := range []string{"layered", "other"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/recipes/"+name+"/run", nil))
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, span := range spans {
		if span.Name() != "POST /recipes/{name}/run" {
			t.Fatalf("unexpected span name %q", span.Name())
		}
	}
}

func TestSampleRatioZeroDropsRootSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test", SampleRatio: 0}, sdktrace.WithSyncer(exporter))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tracer := provider.Tracer("test")
	for i := 0; i < 20; i++ {
		_, span := tracer.Start(context.Background(), "decode")
		span.End()
	}
	if got := len(exporter.GetSpans()); got != 0 {
		t.Fatalf("sample_ratio 0 exported %d of 20 spans", got)
	}
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Exporter: "zipkin"}); !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("expected ErrUnknownExporter, got %v", err)
	}
	shutdown, err := Setup(context.Background(), Config{Exporter: "none"})
	if err != nil {
		t.Fatalf("Setup none: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSplitMethod(t *testing.T) {
	tests := []struct {
		full    string
		service string
		method  string
	}{
		{"/cipherbreak.v1.Decoder/Auto", "cipherbreak.v1.Decoder", "Auto"},
		{"bare", "bare", ""},
	}
	for _, tt := range tests {
		s, m := splitMethod(tt.full)
		if s != tt.service || m != tt.method {
			t.Errorf("splitMethod(%q) = %q %q", tt.full, s, m)
		}
	}
}

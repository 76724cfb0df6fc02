package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds the cipherbreak collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Decode calls by kind and outcome type
	DecodeTotal *prometheus.CounterVec

	// Decode latency by kind
	DecodeDuration *prometheus.HistogramVec

	// Identification calls by top detected kind
	DetectTotal *prometheus.CounterVec

	// Transport requests by component, method and status code
	RPCRequests *prometheus.CounterVec

	// Transport latency by component, method and status code
	RPCDuration *prometheus.HistogramVec

	// Items handled by batch requests
	BatchItems prometheus.Counter
}

// New registers every collector with reg. A nil reg uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		DecodeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherbreak_decode_total",
			Help: "Total decode calls by cipher kind and outcome.",
		}, []string{"kind", "outcome"}),

		DecodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cipherbreak_decode_duration_seconds",
			Help:    "Duration of decode calls by cipher kind.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),

		DetectTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherbreak_detect_total",
			Help: "Total identification calls by top detected kind.",
		}, []string{"kind"}),

		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherbreak_rpc_requests_total",
			Help: "Total requests handled by cipherbreak transports.",
		}, []string{"component", "method", "code"}),

		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cipherbreak_rpc_duration_seconds",
			Help:    "Latency of transport handlers by component, method and code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component", "method", "code"}),

		BatchItems: factory.NewCounter(prometheus.CounterOpts{
			Name: "cipherbreak_batch_items_total",
			Help: "Total items submitted through batch decode.",
		}),
	}
}

// ObserveDecode records one decode call. When ctx carries a sampled span
// its trace ID is attached to the latency sample as an exemplar.
func (m *Metrics) ObserveDecode(ctx context.Context, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.DecodeTotal.WithLabelValues(kind, outcome).Inc()
	observe(ctx, m.DecodeDuration.WithLabelValues(kind), d)
}

// IncrementDetect records an identification whose best candidate was kind.
func (m *Metrics) IncrementDetect(kind string) {
	if m != nil {
		m.DetectTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveRPC records a transport request.
func (m *Metrics) ObserveRPC(ctx context.Context, component, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(component, method, code).Inc()
	observe(ctx, m.RPCDuration.WithLabelValues(component, method, code), d)
}

// AddBatchItems counts items submitted in one batch.
func (m *Metrics) AddBatchItems(n int) {
	if m != nil {
		m.BatchItems.Add(float64(n))
	}
}

func observe(ctx context.Context, o prometheus.Observer, d time.Duration) {
	sc := trace.SpanContextFromContext(ctx)
	if eo, ok := o.(prometheus.ExemplarObserver); ok && sc.IsSampled() {
		eo.ObserveWithExemplar(d.Seconds(), prometheus.Labels{"trace_id": sc.TraceID().String()})
		return
	}
	o.Observe(d.Seconds())
}

// Handler exposes the collectors in g in the Prometheus text format. A nil
// g uses the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/observability/metrics"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config configures the REST API server.
type Config struct {
	Addr            string
	JWTSecret       []byte
	JWTIssuer       string
	DefaultTokenTTL time.Duration
	ShutdownTimeout time.Duration
	Logger          *logging.Logger
	Metrics         *metrics.Metrics
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
}

// Server exposes the cipher engine over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	cfg           Config
	svc           *service.Service
	httpServer    *http.Server
	authenticator *Authenticator
	logger        *logging.Logger
	metrics       *metrics.Metrics
}

// NewServer constructs a REST API server using the provided configuration.
// Authentication is enabled when JWTSecret is set.
func NewServer(cfg Config, svc *service.Service) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("api address must be provided")
	}
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		metrics: cfg.Metrics,
	}
	if len(cfg.JWTSecret) > 0 {
		auth, err := NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.DefaultTokenTTL)
		if err != nil {
			return nil, err
		}
		s.authenticator = auth
	}
	return s, nil
}

// Authenticator returns the token authority, or nil when auth is disabled.
func (s *Server) Authenticator() *Authenticator { return s.authenticator }

// Handler returns the routed handler without h2c wrapping.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(tracing.Middleware)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.cfg.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireJWT)
		r.Get("/decoders", s.handleDecoders)
		r.Post("/decode/{kind}", s.handleDecode)
		r.Post("/encode/{kind}", s.handleEncode)
		r.Post("/rank/{kind}", s.handleRank)
		r.Post("/identify", s.handleIdentify)
		r.Post("/auto", s.handleAuto)
		r.Post("/chain", s.handleChain)
		r.Post("/batch", s.handleBatch)
		r.Post("/frequency", s.handleFrequency)
		r.Get("/recipes", s.handleListRecipes)
		r.Post("/recipes", s.handleSaveRecipe)
		r.Delete("/recipes/{name}", s.handleDeleteRecipe)
		r.Post("/recipes/{name}/run", s.handleRunRecipe)
	})
	return r
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.logger.Info("api listening", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancelShutdown()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: RequestID(r.Context()),
		TraceID:   tracing.TraceIDFromContext(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

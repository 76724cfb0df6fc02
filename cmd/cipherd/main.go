package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/cipherbreak/internal/api"
	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/config"
	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/observability/metrics"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
	"github.com/RowanDark/cipherbreak/internal/rpc"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a cipherbreak.yml config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// listeners are the sockets cipherd serves on. Metrics is optional.
type listeners struct {
	http    net.Listener
	grpc    net.Listener
	metrics net.Listener
}

func run(ctx context.Context, cfg config.Config) error {
	var ls listeners
	var err error
	if ls.http, err = net.Listen("tcp", cfg.Server.HTTPAddr); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.HTTPAddr, err)
	}
	if ls.grpc, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
		_ = ls.http.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCAddr, err)
	}
	if cfg.Server.MetricsAddr != "" {
		if ls.metrics, err = net.Listen("tcp", cfg.Server.MetricsAddr); err != nil {
			_ = ls.http.Close()
			_ = ls.grpc.Close()
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.MetricsAddr, err)
		}
	}
	return serve(ctx, cfg, ls)
}

func newLogger(cfg config.Config) (*logging.Logger, error) {
	opts := []logging.Option{
		logging.WithLevel(cfg.Log.Level),
		logging.WithFormat(cfg.Log.Format),
	}
	if cfg.Log.File != "" {
		opts = append(opts, logging.WithFile(cfg.Log.File))
	}
	return logging.New("cipherd", opts...)
}

func serve(ctx context.Context, cfg config.Config, ls listeners) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", zap.Error(err))
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	reg, err := cipher.NewRegistry(cfg.SolverConfig())
	if err != nil {
		return err
	}
	recipes := cipher.NewRecipeManager(cfg.Recipes.Dir)
	if err := recipes.LoadRecipes(); err != nil {
		logger.Warn("load recipes", zap.String("dir", cfg.Recipes.Dir), zap.Error(err))
	}
	svc := service.New(reg,
		service.WithLogger(logger.WithComponent("service")),
		service.WithMetrics(m),
		service.WithRecipes(recipes),
		service.WithBatchParallelism(cfg.Solver.Parallel),
	)

	// /metrics rides on the API listener unless a dedicated one is set.
	var apiGatherer prometheus.Gatherer
	if ls.metrics == nil {
		apiGatherer = promRegistry
	}
	apiServer, err := api.NewServer(api.Config{
		Addr:            ls.http.Addr().String(),
		JWTSecret:       []byte(cfg.Server.JWTSecret),
		JWTIssuer:       cfg.Server.JWTIssuer,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger.WithComponent("api"),
		Metrics:         m,
		Gatherer:        apiGatherer,
	}, svc)
	if err != nil {
		return err
	}

	grpcOpts := rpc.Options{
		Logger:          logger.WithComponent("grpc"),
		Metrics:         m,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if auth := apiServer.Authenticator(); auth != nil {
		grpcOpts.ValidateToken = func(token string) error {
			_, err := auth.Validate(token)
			return err
		}
	}
	grpcListener := rpc.NewListener(rpc.NewServer(svc, rpc.WithLogger(logger.WithComponent("grpc"))), grpcOpts)

	logger.Info("cipherd starting",
		zap.String("version", version),
		zap.String("http_addr", ls.http.Addr().String()),
		zap.String("grpc_addr", ls.grpc.Addr().String()),
		zap.Bool("auth", apiServer.Authenticator() != nil),
		zap.String("trace_exporter", cfg.Tracing.Exporter),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.Serve(gctx, ls.http) })
	g.Go(func() error { return grpcListener.Serve(gctx, ls.grpc) })
	if ls.metrics != nil {
		g.Go(func() error { return serveMetrics(gctx, ls.metrics, promRegistry, cfg.Server.ShutdownTimeout) })
	}

	err = g.Wait()
	logger.Info("cipherd stopped")
	return err
}

func serveMetrics(ctx context.Context, lis net.Listener, gatherer prometheus.Gatherer, timeout time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

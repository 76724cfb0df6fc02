package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/RowanDark/cipherbreak/internal/config"
	"github.com/RowanDark/cipherbreak/internal/rpc"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return lis
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Recipes.Dir = t.TempDir()
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Server.JWTSecret = "daemon-secret"
	return cfg
}

func TestServeBootsAndShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ls := listeners{http: listen(t), grpc: listen(t), metrics: listen(t)}
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, testConfig(t), ls)
	}()

	base := "http://" + ls.http.Addr().String()
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(base + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("api never answered: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected healthz status %d", resp.StatusCode)
	}

	// Auth is on because a secret is configured.
	resp, err = http.Post(base+"/api/v1/decode/atbash", "application/json", bytes.NewBufferString(`{"input":"zyx"}`))
	if err != nil {
		t.Fatalf("decode request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	conn, err := grpc.NewClient(ls.grpc.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial server: %v", err)
	}
	health, err := healthpb.NewHealthClient(conn).Check(dialCtx, &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health status %v", health.GetStatus())
	}
	conn.Close()

	resp, err = http.Get("http://" + ls.metrics.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("metrics missing expected series:\n%s", body)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestRunRejectsBusyAddress(t *testing.T) {
	busy := listen(t)
	defer busy.Close()

	cfg := testConfig(t)
	cfg.Server.HTTPAddr = busy.Addr().String()
	if err := run(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "failed to listen") {
		t.Fatalf("expected listen error, got %v", err)
	}
}

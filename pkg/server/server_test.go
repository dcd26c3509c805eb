package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/telemetry/health"
	"mercator-hq/retainer/pkg/telemetry/metrics"
)

func startServer(t *testing.T, srv *Server) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == "" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not start listening")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return "http://" + srv.Addr(), cancel, errChan
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_StartAndShutdown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := New("127.0.0.1:0", mux)

	base, cancel, errChan := startServer(t, srv)

	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}
	if code, body := get(t, base+"/ping"); code != http.StatusOK || body != "pong" {
		t.Errorf("GET /ping = %d %q", code, body)
	}

	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}

	// Shutdown after the fact is a no-op.
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestServer_AlreadyRunning(t *testing.T) {
	srv := New("127.0.0.1:0", http.NewServeMux())
	_, cancel, errChan := startServer(t, srv)
	defer func() {
		cancel()
		<-errChan
	}()

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := New("256.0.0.1:bad", http.NewServeMux())
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Start() with an invalid address should fail")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after a failed start")
	}
}

func TestNewFromConfig_Routes(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:0"

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	collector.RecordStep("archive", "archive_messages", 3)

	checker := health.New(time.Second)
	var ready atomic.Bool
	ready.Store(true)
	checker.RegisterCheck("scheduler", health.SchedulerCheck(ready.Load))

	srv := NewFromConfig(&cfg.Telemetry, collector, checker)
	base, cancel, errChan := startServer(t, srv)
	defer func() {
		cancel()
		<-errChan
	}()

	code, body := get(t, base+cfg.Telemetry.Metrics.Path)
	if code != http.StatusOK {
		t.Fatalf("GET metrics = %d", code)
	}
	if !strings.Contains(body, `retainer_rows_total{pipeline="archive",step="archive_messages"} 3`) {
		t.Errorf("metrics body missing rows counter:\n%s", body)
	}

	if code, _ := get(t, base+cfg.Telemetry.Health.LivenessPath); code != http.StatusOK {
		t.Errorf("GET liveness = %d, want 200", code)
	}
	if code, _ := get(t, base+cfg.Telemetry.Health.ReadinessPath); code != http.StatusOK {
		t.Errorf("GET readiness = %d, want 200", code)
	}

	ready.Store(false)
	if code, _ := get(t, base+cfg.Telemetry.Health.ReadinessPath); code != http.StatusServiceUnavailable {
		t.Errorf("GET readiness with stopped scheduler = %d, want 503", code)
	}
}

func TestNewFromConfig_DisabledEndpoints(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Telemetry.Health.Enabled = false

	srv := NewFromConfig(&cfg.Telemetry, nil, nil)
	req, _ := http.NewRequest(http.MethodGet, cfg.Telemetry.Metrics.Path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics path = %d, want 404", rec.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

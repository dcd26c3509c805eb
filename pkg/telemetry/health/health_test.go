package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/retainer/pkg/config"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestNew(t *testing.T) {
	if got := New(0).checkTimeout; got != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", got)
	}
	if got := New(time.Second).checkTimeout; got != time.Second {
		t.Errorf("expected timeout 1s, got %v", got)
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		unhealthy  []string
	}{
		{
			name:       "no checks is ready",
			checks:     map[string]CheckFunc{},
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"database":  DatabaseCheck(fakePinger{}),
				"scheduler": SchedulerCheck(func() bool { return true }),
			},
			wantStatus: StatusReady,
		},
		{
			name: "database down",
			checks: map[string]CheckFunc{
				"database":  DatabaseCheck(fakePinger{err: errors.New("connection refused")}),
				"scheduler": SchedulerCheck(func() bool { return true }),
			},
			wantStatus: StatusDegraded,
			unhealthy:  []string{"database"},
		},
		{
			name: "scheduler stopped",
			checks: map[string]CheckFunc{
				"scheduler": SchedulerCheck(func() bool { return false }),
			},
			wantStatus: StatusDegraded,
			unhealthy:  []string{"scheduler"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, status.Status)
			}
			for _, name := range tt.unhealthy {
				if status.Checks[name].Status != StatusUnhealthy {
					t.Errorf("expected %s unhealthy, got %+v", name, status.Checks[name])
				}
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	if status.Checks["slow"].Message != "health check timeout" {
		t.Errorf("expected timeout message, got %+v", status.Checks["slow"])
	}
}

func TestDirectoryCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx := context.Background()
	if err := DirectoryCheck(dir)(ctx); err != nil {
		t.Errorf("expected directory healthy, got %v", err)
	}
	if err := DirectoryCheck(file)(ctx); err == nil {
		t.Error("expected error for a regular file")
	}
	if err := DirectoryCheck(filepath.Join(dir, "missing"))(ctx); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("database", DatabaseCheck(fakePinger{err: errors.New("down")}))

	mux := http.NewServeMux()
	Register(mux, checker, &config.HealthConfig{LivenessPath: "/healthz", ReadinessPath: "/readyz"})

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, StatusOK},
		{http.MethodGet, "/readyz", http.StatusServiceUnavailable, StatusDegraded},
		{http.MethodHead, "/readyz", http.StatusServiceUnavailable, ""},
		{http.MethodPost, "/healthz", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody == "" {
				return
			}
			var status HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if status.Status != tt.wantBody {
				t.Errorf("expected status %q, got %q", tt.wantBody, status.Status)
			}
		})
	}
}

func TestListChecks(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("scheduler", SchedulerCheck(func() bool { return true }))
	checker.RegisterCheck("database", DatabaseCheck(fakePinger{}))

	names := checker.ListChecks()
	if len(names) != 2 || names[0] != "database" || names[1] != "scheduler" {
		t.Errorf("unexpected check names: %v", names)
	}
}

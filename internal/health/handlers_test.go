package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockChecker is a mock implementation of Checker for testing.
type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(ctx context.Context) error {
	return m.err
}

func TestHealth(t *testing.T) {
	h := NewHandlers(HandlersConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %s, want healthy", resp.Status)
	}
	if resp.Checks["runtime"] != "ok" {
		t.Errorf("runtime check = %s, want ok", resp.Checks["runtime"])
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	h := NewHandlers(HandlersConfig{})

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		db         Checker
		redis      Checker
		wantStatus int
		wantDB     string
		wantRedis  string
	}{
		{
			name:       "no checkers configured",
			wantStatus: http.StatusOK,
			wantDB:     "ok",
			wantRedis:  "ok",
		},
		{
			name:       "all healthy",
			db:         &mockChecker{},
			redis:      &mockChecker{},
			wantStatus: http.StatusOK,
			wantDB:     "ok",
			wantRedis:  "ok",
		},
		{
			name:       "database down",
			db:         &mockChecker{err: errors.New("connection refused")},
			redis:      &mockChecker{},
			wantStatus: http.StatusServiceUnavailable,
			wantDB:     "error",
			wantRedis:  "ok",
		},
		{
			name:       "redis down",
			db:         &mockChecker{},
			redis:      &mockChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantDB:     "ok",
			wantRedis:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(HandlersConfig{
				DBChecker:    tt.db,
				RedisChecker: tt.redis,
			})

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			rec := httptest.NewRecorder()
			h.Ready(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Checks["database"] != tt.wantDB {
				t.Errorf("database check = %s, want %s", resp.Checks["database"], tt.wantDB)
			}
			if resp.Checks["redis"] != tt.wantRedis {
				t.Errorf("redis check = %s, want %s", resp.Checks["redis"], tt.wantRedis)
			}
		})
	}
}

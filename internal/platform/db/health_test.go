package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"healthy", nil, http.StatusOK, `"healthy"`},
		{"unhealthy", errors.New("connection refused"), http.StatusServiceUnavailable, `"unhealthy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := HealthHandler(fakePinger{err: tt.err})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("expected body to contain %s, got %s", tt.body, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("driver error must not be exposed")
			}
		})
	}
}

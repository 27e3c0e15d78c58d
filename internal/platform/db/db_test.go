package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_NoPool(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", HealthHandler(nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" || body["sessions"] != "memory" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestNewPool_BadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "://not-a-url", 1, 1)
	if err == nil {
		t.Fatal("expected error for malformed database url")
	}
}

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestEphemeralSecretIsRandom(t *testing.T) {
	a := ephemeralSecret()
	b := ephemeralSecret()
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
	if a == b {
		t.Error("two ephemeral secrets should not be identical")
	}
}

func TestLoginRateLimitScopedToLoginRoute(t *testing.T) {
	e := echo.New()
	e.Use(loginRateLimit(0, 2)) // no refill, two attempts
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.POST("/login", ok)
	e.GET("/menu", ok)

	post := func(path string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec.Code
	}
	get := func(path string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if post("/login") != http.StatusOK || post("/login") != http.StatusOK {
		t.Fatal("burst attempts should pass")
	}
	if post("/login") != http.StatusTooManyRequests {
		t.Error("third attempt should be limited")
	}
	for i := 0; i < 5; i++ {
		if get("/menu") != http.StatusOK {
			t.Fatal("non-login routes must not be limited")
		}
	}
}

package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, 0, func() string { return token }, zerolog.Nop())
	return c, srv
}

func TestRequest_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}, "tok-123")

	if _, err := c.Request(context.Background(), http.MethodGet, "/api/doctors", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestRequest_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, "")

	if _, err := c.Request(context.Background(), http.MethodGet, "/api/login", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestRequest_ServerMessageSurfaced(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"drug already exists"}`))
	}, "tok")

	_, err := c.Request(context.Background(), http.MethodPost, "/api/drugs", map[string]string{"name": "x"})
	apiErr := AsError(err)
	if apiErr == nil {
		t.Fatal("expected an error")
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", apiErr.Status)
	}
	if apiErr.Message != "drug already exists" {
		t.Errorf("expected server message verbatim, got %q", apiErr.Message)
	}
}

func TestRequest_FallbackToStatusText(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`not json`))
	}, "tok")

	_, err := c.Request(context.Background(), http.MethodGet, "/api/bills", nil)
	apiErr := AsError(err)
	if apiErr == nil || apiErr.Message != "Internal Server Error" {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening anymore

	c := New(url, 0, nil, zerolog.Nop())
	_, err := c.Request(context.Background(), http.MethodGet, "/api/tests", nil)
	apiErr := AsError(err)
	if apiErr == nil {
		t.Fatal("expected an error")
	}
	if !apiErr.IsNetwork() {
		t.Errorf("expected network-class error, got status %d", apiErr.Status)
	}
	if apiErr.Message != "network" {
		t.Errorf("expected message \"network\", got %q", apiErr.Message)
	}
}

func TestRequest_UnauthorizedFiresHook(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}, "stale")

	fired := 0
	c.OnUnauthorized(func() { fired++ })

	_, err := c.Request(context.Background(), http.MethodGet, "/api/reports", nil)
	apiErr := AsError(err)
	if apiErr == nil || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if fired != 1 {
		t.Errorf("expected hook to fire once, fired %d times", fired)
	}
}

func TestGetList_DecodesArray(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Amoxicillin"},{"id":2,"name":"Ibuprofen"}]`))
	}, "tok")

	items, err := c.GetList(context.Background(), "/api/drugs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 records, got %d", len(items))
	}
	if items[0].String("name") != "Amoxicillin" {
		t.Errorf("unexpected first record: %v", items[0])
	}
	if items[1].ID("") != "2" {
		t.Errorf("expected id 2, got %q", items[1].ID(""))
	}
}

func TestDelete_PropagatesSuccess(t *testing.T) {
	var method, path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{"message":"deleted"}`))
	}, "tok")

	if err := c.Delete(context.Background(), "/api/equipment/7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodDelete || path != "/api/equipment/7" {
		t.Errorf("unexpected request %s %s", method, path)
	}
}

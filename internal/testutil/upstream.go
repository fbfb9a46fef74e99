package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shiptrack/internal/config"
)

// NewUpstream starts a fake commerce API and returns a ShopConfig pointing at
// it. The server is torn down with the test.
func NewUpstream(t *testing.T, handler http.Handler) (*httptest.Server, config.ShopConfig) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv, config.ShopConfig{
		Slug:    "test-shop",
		Token:   "test-token",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}
}

// WriteJSON encodes v onto a fake upstream response.
func WriteJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encoding fake upstream response: %v", err)
	}
}

package edge

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_UsesEnvironment(t *testing.T) {
	var gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"value":1},"id":1}`))
	}))
	defer upstream.Close()

	t.Setenv("SOLANA_UPSTREAM", upstream.URL)
	t.Setenv("ALLOW_ORIGIN", "https://lockrion.com")
	t.Setenv("LOG_LEVEL", "error")

	h, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/solana/balance/abc", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "https://lockrion.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "https://lockrion.com")
	}

	var env struct {
		Method string `json:"method"`
		Params []any  `json:"params"`
	}
	if err := json.Unmarshal([]byte(gotBody), &env); err != nil {
		t.Fatalf("unmarshal upstream body: %v", err)
	}
	if env.Method != "getBalance" || len(env.Params) == 0 || env.Params[0] != "abc" {
		t.Errorf("upstream envelope = %+v, want getBalance for abc", env)
	}
}

func TestNew_PreflightHasMaxAge(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	h, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/solana", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if v := rec.Header().Get("Access-Control-Max-Age"); v != "86400" {
		t.Errorf("Access-Control-Max-Age = %q, want %q", v, "86400")
	}
	if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}
}

func TestNew_InvalidEnvironment(t *testing.T) {
	t.Setenv("SOLANA_UPSTREAM", "ftp://rpc.example.com")

	_, err := New()
	if err == nil {
		t.Fatal("New() expected error for invalid SOLANA_UPSTREAM, got nil")
	}
	if !strings.Contains(err.Error(), "solana_url") {
		t.Errorf("error = %q, want mention of solana_url", err)
	}
}

func TestHandler_HealthAndNotFound(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/health", http.StatusOK, `{"ok":true}`},
		{"/nonexistent", http.StatusNotFound, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			Handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

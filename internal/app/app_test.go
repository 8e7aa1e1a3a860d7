package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"lockrion-proxy/internal/config"
	"lockrion-proxy/internal/handler"
)

func testConfig(solanaURL, coinGeckoURL string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080, BodyMaxBytes: 1024},
		Upstream: config.UpstreamConfig{SolanaURL: solanaURL, CoinGeckoURL: coinGeckoURL, TimeoutSeconds: 5, IdleConnections: 10},
		CORS:     config.CORSConfig{AllowOrigin: "https://lockrion.com", MaxAgeSeconds: 86400},
		Log:      config.LogConfig{Level: "error", Format: "json"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// buildEcho assembles the gateway exactly as both adapters do.
func buildEcho(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	var e *echo.Echo
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, handler.Version("test")),
		Module,
		fx.Populate(&e),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx.New() error = %v", err)
	}
	return e
}

func countingUpstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestModule_PreflightOnAnyPath(t *testing.T) {
	var calls atomic.Int32
	up := countingUpstream(t, &calls)
	e := buildEcho(t, testConfig(up.URL, up.URL))

	for _, path := range []string{"/health", "/api/solana", "/api/coingecko/simple/price", "/nonexistent", "/"} {
		t.Run(path, func(t *testing.T) {
			rec := do(e, http.MethodOptions, path, "")

			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
			want := map[string]string{
				"Access-Control-Allow-Origin":  "https://lockrion.com",
				"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type",
				"Access-Control-Max-Age":       "86400",
			}
			for k, v := range want {
				if got := rec.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}

	if calls.Load() != 0 {
		t.Errorf("upstream calls = %d, want 0", calls.Load())
	}
}

func TestModule_CORSOnEveryResponse(t *testing.T) {
	var calls atomic.Int32
	up := countingUpstream(t, &calls)
	e := buildEcho(t, testConfig(up.URL, "http://127.0.0.1:1"))

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"rpc", http.MethodPost, "/api/solana", `{"jsonrpc":"2.0","id":1,"method":"getSlot"}`, http.StatusOK},
		{"missing pubkey", http.MethodGet, "/api/solana/balance/", "", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/api/coingecko/anything", "", http.StatusMethodNotAllowed},
		{"upstream failure", http.MethodGet, "/api/coingecko/ping", "", http.StatusBadGateway},
		{"not found", http.MethodGet, "/nonexistent", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.target, tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "https://lockrion.com" {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "https://lockrion.com")
			}
			if v := rec.Header().Get("Vary"); v != "Origin" {
				t.Errorf("Vary = %q, want %q", v, "Origin")
			}
			if rec.Header().Get(echo.HeaderXRequestID) == "" {
				t.Error("expected X-Request-Id on response")
			}
		})
	}
}

func TestModule_BodyLimit(t *testing.T) {
	var calls atomic.Int32
	up := countingUpstream(t, &calls)
	e := buildEcho(t, testConfig(up.URL, up.URL))

	rec := do(e, http.MethodPost, "/api/solana", `{"pad":"`+strings.Repeat("x", 2048)+`"}`)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if calls.Load() != 0 {
		t.Errorf("upstream calls = %d, want 0", calls.Load())
	}
}

func TestModule_MetricsEndpoint(t *testing.T) {
	var calls atomic.Int32
	up := countingUpstream(t, &calls)
	e := buildEcho(t, testConfig(up.URL, up.URL))

	_ = do(e, http.MethodGet, "/api/coingecko/ping", "")
	rec := do(e, http.MethodGet, "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	for _, want := range []string{
		`lockrion_proxy_http_requests_total{method="GET",path_prefix="/api/coingecko",status_code="200"} 1`,
		`lockrion_proxy_upstream_responses_total{status_code="200",upstream="coingecko"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		info  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"ERROR", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{Log: config.LogConfig{Level: tt.level, Format: "text"}})
			ctx := context.Background()
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.info {
				t.Errorf("info enabled = %v, want %v", got, tt.info)
			}
		})
	}
}

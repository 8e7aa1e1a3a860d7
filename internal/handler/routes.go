package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lockrion-proxy/internal/config"
	"lockrion-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/health", health.Health)
	e.GET("/status", health.Status)

	// The bare and trailing-slash forms reach the handler so an empty key
	// gets MISSING_PUBKEY instead of a 404.
	e.GET("/api/solana/balance", proxy.SolanaBalance)
	e.GET("/api/solana/balance/", proxy.SolanaBalance)
	e.GET("/api/solana/balance/:pubkey", proxy.SolanaBalance)
	e.POST("/api/solana", proxy.SolanaRPC)

	e.Any(coinGeckoPrefix+"/*", proxy.CoinGecko)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

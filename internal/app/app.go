// Package app assembles the gateway into a ready *echo.Echo. Both hosting
// adapters (the standalone server and the edge handler) build on Module.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"lockrion-proxy/internal/client"
	"lockrion-proxy/internal/config"
	"lockrion-proxy/internal/handler"
	"lockrion-proxy/internal/metrics"
	"lockrion-proxy/internal/middleware"
	"lockrion-proxy/internal/service"
)

// Module provides every gateway component and registers the routes. The
// including fx.App must supply *config.Config and handler.Version.
var Module = fx.Options(
	fx.Provide(
		NewLogger,
		NewEcho,
		metrics.New,
		fx.Annotate(client.NewUpstreamClient, fx.As(new(service.Doer))),
		service.NewGateway,
		handler.NewProxyHandler,
		handler.NewHealthHandler,
	),
	fx.Invoke(handler.RegisterRoutes),
)

// NewLogger builds the process logger from the log config.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h).With("service", "lockrion-proxy")
}

// NewEcho creates the Echo instance with the middleware chain. CORS sits
// inside logging and metrics so preflights and rejected requests are still
// observed.
func NewEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	// Inbound timeouts to mitigate slow-client attacks. Upstream calls are
	// bounded by the client timeout, so WriteTimeout leaves headroom above it.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second + 30*time.Second
	e.Server.IdleTimeout = 120 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.CORS(cfg.CORS))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))

	return e
}

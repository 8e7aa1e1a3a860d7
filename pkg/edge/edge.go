// Package edge adapts the gateway to serverless Go runtimes that invoke a
// plain http.Handler (or a func(http.ResponseWriter, *http.Request)) per
// request instead of running a listener.
//
// Configuration comes from the environment only: SOLANA_UPSTREAM,
// ALLOW_ORIGIN, LOG_LEVEL and, if set, CONFIG_PATH.
package edge

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"lockrion-proxy/internal/app"
	"lockrion-proxy/internal/config"
	"lockrion-proxy/internal/handler"
)

// Version is reported on /status by the edge deployment.
var Version = "edge"

var (
	once    sync.Once
	shared  http.Handler
	initErr error
)

// New builds a gateway handler from the current environment. Each call
// builds an independent handler.
func New() (http.Handler, error) {
	var cli config.CLI
	parser, err := kong.New(&cli, kong.Name("lockrion-proxy-edge"))
	if err != nil {
		return nil, fmt.Errorf("edge: build cli parser: %w", err)
	}
	if _, err := parser.Parse(nil); err != nil {
		return nil, fmt.Errorf("edge: resolve environment: %w", err)
	}

	var e *echo.Echo
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(&cli, handler.Version(Version)),
		fx.Provide(config.Load),
		app.Module,
		fx.Populate(&e),
	)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("edge: %w", err)
	}
	// No lifecycle hooks are registered; Start only completes fx bookkeeping.
	if err := fxApp.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("edge: start: %w", err)
	}
	return e, nil
}

// Handler is the per-request entry point. The gateway is built on first use
// and reused by later invocations in the same instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		shared, initErr = New()
	})
	if initErr != nil {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		http.Error(w, "proxy misconfigured: "+initErr.Error(), http.StatusInternalServerError)
		return
	}
	shared.ServeHTTP(w, r)
}

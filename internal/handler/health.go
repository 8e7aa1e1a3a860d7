// Package handler contains the Echo handlers and route table of the gateway.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lockrion-proxy/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Health returns {"ok":true} without touching any upstream.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type statusBody struct {
	OK                bool   `json:"ok"`
	Version           string `json:"version"`
	SolanaUpstream    string `json:"solana_upstream"`
	CoinGeckoUpstream string `json:"coingecko_upstream"`
}

// Status reports the build version and upstream origins.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusBody{
		OK:                true,
		Version:           string(h.version),
		SolanaUpstream:    h.cfg.Upstream.SolanaOrigin(),
		CoinGeckoUpstream: h.cfg.Upstream.CoinGeckoURL,
	})
}

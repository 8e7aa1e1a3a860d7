package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"lockrion-proxy/internal/model"
	"lockrion-proxy/internal/service"
)

const coinGeckoPrefix = "/api/coingecko"

// apiKeyPattern matches API key query values embedded in upstream URLs,
// e.g. Helius "?api-key=..." in a Solana RPC endpoint.
var apiKeyPattern = regexp.MustCompile(`(?i)(api[-_]?key=)[^&\s"]+`)

// ProxyHandler exposes the gateway operations over HTTP.
type ProxyHandler struct {
	gateway *service.Gateway
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(gw *service.Gateway, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		gateway: gw,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// SolanaBalance handles GET /api/solana/balance/:pubkey.
func (h *ProxyHandler) SolanaBalance(c echo.Context) error {
	resp, err := h.gateway.Balance(c.Request().Context(), c.Param("pubkey"))
	if err != nil {
		return h.mapError(c, err)
	}
	return h.relay(c, resp)
}

// SolanaRPC handles POST /api/solana, forwarding the raw body unchanged.
func (h *ProxyHandler) SolanaRPC(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit surfaces oversized bodies as *echo.HTTPError.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}

	resp, err := h.gateway.SolanaRPC(c.Request().Context(), bytes.NewReader(body))
	if err != nil {
		return h.mapError(c, err)
	}
	return h.relay(c, resp)
}

// CoinGecko handles /api/coingecko/*. Only GET is proxied.
func (h *ProxyHandler) CoinGecko(c echo.Context) error {
	req := c.Request()
	if req.Method != http.MethodGet {
		return echo.ErrMethodNotAllowed
	}

	path := strings.TrimPrefix(req.URL.EscapedPath(), coinGeckoPrefix)
	resp, err := h.gateway.CoinGecko(req.Context(), path, req.URL.RawQuery)
	if err != nil {
		return h.mapError(c, err)
	}
	return h.relay(c, resp)
}

// relay writes the upstream status and body verbatim, plus the headers the
// gateway injected.
func (h *ProxyHandler) relay(c echo.Context, resp *model.ProxyResponse) error {
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)

	// The status is already sent; a failed copy leaves the client with a
	// truncated body, so only log it.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", sanitizeError(err),
			"path", c.Request().URL.Path,
		)
	}
	return nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrMissingPubkey) {
		return c.JSON(http.StatusBadRequest, model.ErrorBody{Error: "MISSING_PUBKEY"})
	}

	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		details := sanitizeError(ue.Err)
		h.logger.Error("proxy error",
			"upstream", ue.Upstream,
			"err", details,
			"path", c.Request().URL.Path,
		)
		return c.JSON(http.StatusBadGateway, model.ErrorBody{Error: ue.Code(), Details: details})
	}

	return err
}

// sanitizeError redacts API keys from error messages that may contain upstream URLs.
func sanitizeError(err error) string {
	return apiKeyPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}

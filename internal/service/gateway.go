// Package service implements the gateway operations: building upstream
// requests for the Solana and CoinGecko APIs and executing them.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"lockrion-proxy/internal/config"
	"lockrion-proxy/internal/model"
)

// ErrMissingPubkey is returned when a balance lookup has an empty public key.
var ErrMissingPubkey = errors.New("missing pubkey")

// CoinGeckoCacheControl is the caching hint attached to CoinGecko responses
// so edge caches absorb bursts against the public API's rate limit.
const CoinGeckoCacheControl = "public, max-age=20"

// UpstreamError reports a call that failed before any upstream HTTP response
// was received (DNS, connect, TLS, timeout, cancellation).
type UpstreamError struct {
	Upstream string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Upstream, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Code returns the client-facing error code, e.g. SOLANA_PROXY_FAILED.
func (e *UpstreamError) Code() string {
	return strings.ToUpper(e.Upstream) + "_PROXY_FAILED"
}

// Doer executes a single upstream request.
type Doer interface {
	Do(ctx context.Context, ur *model.UpstreamRequest) (*model.ProxyResponse, error)
}

// Gateway builds and forwards requests to the two fixed upstreams.
type Gateway struct {
	client       Doer
	logger       *slog.Logger
	solanaURL    string
	coinGeckoURL string
}

// NewGateway creates a Gateway. It accepts any Doer so tests can observe
// outbound calls; production wiring passes *client.UpstreamClient.
func NewGateway(c Doer, cfg *config.Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:       c,
		logger:       logger.With("component", "gateway"),
		solanaURL:    cfg.Upstream.SolanaURL,
		coinGeckoURL: strings.TrimRight(cfg.Upstream.CoinGeckoURL, "/"),
	}
}

// Balance looks up the lamport balance of pubkey with a getBalance call at
// "confirmed" commitment.
func (g *Gateway) Balance(ctx context.Context, pubkey string) (*model.ProxyResponse, error) {
	pubkey = strings.TrimSpace(pubkey)
	if pubkey == "" {
		return nil, ErrMissingPubkey
	}

	payload, err := json.Marshal(NewBalanceRequest(pubkey))
	if err != nil {
		return nil, fmt.Errorf("encode getBalance request: %w", err)
	}

	return g.SolanaRPC(ctx, bytes.NewReader(payload))
}

// NewBalanceRequest returns the getBalance envelope for pubkey.
func NewBalanceRequest(pubkey string) *model.RPCRequest {
	return &model.RPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getBalance",
		Params:  []any{pubkey, map[string]string{"commitment": "confirmed"}},
	}
}

// SolanaRPC forwards body unchanged as a JSON-RPC POST to the Solana upstream.
func (g *Gateway) SolanaRPC(ctx context.Context, body io.Reader) (*model.ProxyResponse, error) {
	resp, err := g.forward(ctx, &model.UpstreamRequest{
		Upstream: model.UpstreamSolana,
		Method:   http.MethodPost,
		URL:      g.solanaURL,
		Header:   http.Header{"Content-Type": {"application/json"}},
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

// CoinGecko issues a GET for path (relative to the CoinGecko API base, with a
// leading slash) and rawQuery, which is appended verbatim.
func (g *Gateway) CoinGecko(ctx context.Context, path, rawQuery string) (*model.ProxyResponse, error) {
	resp, err := g.forward(ctx, &model.UpstreamRequest{
		Upstream: model.UpstreamCoinGecko,
		Method:   http.MethodGet,
		URL:      g.CoinGeckoURL(path, rawQuery),
		Header:   http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, err
	}
	resp.Header.Set("Content-Type", "application/json")
	resp.Header.Set("Cache-Control", CoinGeckoCacheControl)
	return resp, nil
}

// CoinGeckoURL joins the CoinGecko base with path and rawQuery.
func (g *Gateway) CoinGeckoURL(path, rawQuery string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := g.coinGeckoURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

func (g *Gateway) forward(ctx context.Context, ur *model.UpstreamRequest) (*model.ProxyResponse, error) {
	resp, err := g.client.Do(ctx, ur)
	if err != nil {
		return nil, &UpstreamError{Upstream: ur.Upstream, Err: err}
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	g.logger.Debug("upstream responded",
		"upstream", ur.Upstream,
		"status", resp.StatusCode,
	)
	return resp, nil
}

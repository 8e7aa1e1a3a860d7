// Package model defines the transport-neutral request/response types shared by
// the gateway core and its hosting adapters.
package model

import (
	"io"
	"net/http"
)

// Upstream names used in logs, metrics and error codes.
const (
	UpstreamSolana    = "solana"
	UpstreamCoinGecko = "coingecko"
)

// UpstreamRequest is a single outbound call to one of the fixed upstreams.
type UpstreamRequest struct {
	Upstream string
	Method   string
	URL      string
	Header   http.Header
	Body     io.Reader
}

// ProxyResponse is the upstream response to be relayed back to the caller.
// Header holds only the headers the gateway injects; upstream headers are not
// relayed.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// ErrorBody is the JSON body of gateway-generated error responses.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

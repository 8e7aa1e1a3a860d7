// Package middleware provides Echo middleware for CORS, logging and metrics.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"lockrion-proxy/internal/config"
)

const (
	allowMethods = "GET,POST,OPTIONS"
	allowHeaders = "Content-Type"
)

// CORS returns an Echo middleware that stamps the configured allow-origin on
// every response and answers any OPTIONS request with 204, whatever the path.
// Headers are set before the handler runs so error responses carry them too.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	maxAge := strconv.Itoa(cfg.MaxAgeSeconds)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			h.Set(echo.HeaderAccessControlMaxAge, maxAge)
			return c.NoContent(http.StatusNoContent)
		}
	}
}

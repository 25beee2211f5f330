package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderPolicy controls the response headers that vary by deployment.
type HeaderPolicy struct {
	// HSTS is only sent when TLS terminates in front of the server.
	HSTS bool
	// PublicPrefixes lists GET paths serving reference data that shared
	// caches may keep for PublicMaxAge. Everything else is no-store.
	PublicPrefixes []string
	PublicMaxAge   time.Duration
}

// SecurityHeaders sets hardening headers on every response of the JSON API.
func SecurityHeaders(p HeaderPolicy) echo.MiddlewareFunc {
	publicCache := "public, max-age=" + strconv.Itoa(int(p.PublicMaxAge.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			if p.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			if p.PublicMaxAge > 0 && c.Request().Method == http.MethodGet && hasPrefix(c.Request().URL.Path, p.PublicPrefixes) {
				h.Set("Cache-Control", publicCache)
			} else {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration. The API is read-only public data,
// so the default deployment allows any origin for GET.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int // preflight cache lifetime in seconds
}

// CORS returns CORS middleware.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*"
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			h := c.Response().Header()

			// Responses differ by origin unless every origin is allowed.
			if !wildcard {
				h.Add(echo.HeaderVary, echo.HeaderOrigin)
			}

			switch {
			case origin == "":
				// Same-origin or non-browser caller; nothing to negotiate.
			case wildcard:
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			case originAllowed(cfg.AllowOrigins, origin):
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			default:
				return next(c)
			}

			if c.Request().Method == http.MethodOptions {
				if len(cfg.AllowMethods) > 0 {
					h.Set(echo.HeaderAccessControlAllowMethods, strings.Join(cfg.AllowMethods, ", "))
				}
				if len(cfg.AllowHeaders) > 0 {
					h.Set(echo.HeaderAccessControlAllowHeaders, strings.Join(cfg.AllowHeaders, ", "))
				}
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits right after request-id and logging middleware.  For
every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when a database is configured.
  4. Stores a `*RequestInfo` value in `request.Context`, so the signup
     handlers and the archive can read UA and Geo attributes without
     reparsing.

Instrumentation
---------------
With `ZAP_LEVEL=debug`, each invocation logs a DEBUG span containing the
client IP, country ISO, browser, device class, bot flag, and path.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/eventsignup/internal/logger"
	"github.com/yanizio/eventsignup/internal/ua"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich returns middleware that attaches *RequestInfo and forwards.  geo
// may be nil.
func Enrich(geo *GeoDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				UA:          ua.Parse(r.UserAgent()),
				Geo:         geo.Lookup(clientIP(r)),
				PrimaryLang: primaryLang(r.Header.Get("Accept-Language")),
				Timestamp:   time.Now().UTC(),
			}

			logger.FromContext(r.Context()).Debugw("request info",
				"ip", info.Geo.IP,
				"country", info.Geo.CountryISO,
				"browser", info.UA.Browser,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most parseable address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}

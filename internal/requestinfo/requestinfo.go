//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, and timestamp).  These
//  structs are inert.  They contain no pointers to database handles or
//  large buffers, so they are safe to log or store with a registration.
//
//  Dependencies
//  • internal/ua                         (uasurfer wrapper)
//  • github.com/oschwald/geoip2-golang   (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/eventsignup/internal/ua"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Geo holds IP-based geolocation hints.
// These are best-effort and may be empty if the DB has no match.
type Geo struct {
	IP         net.IP // client address after proxy headers
	CountryISO string // "EG", "US", ...
	City       string // "Cairo", "Giza", ...
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA          ua.Info
	Geo         Geo
	PrimaryLang string // first Accept-Language tag ("ar", "en", ...)
	Timestamp   time.Time
}

//
//  -----------------------------
//  GeoLite2 reader
//  -----------------------------
//

// GeoDB wraps a MaxMind reader.  A nil *GeoDB is valid and answers every
// lookup with the bare IP.
type GeoDB struct {
	r *geoip2.Reader
}

// OpenGeo opens the GeoLite2-City database at path.
func OpenGeo(path string) (*GeoDB, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	return &GeoDB{r: r}, nil
}

// Close releases the reader.
func (g *GeoDB) Close() error {
	if g == nil || g.r == nil {
		return nil
	}
	return g.r.Close()
}

// Lookup returns best-effort Geo data for ip.
func (g *GeoDB) Lookup(ip net.IP) Geo {
	if g == nil || g.r == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := g.r.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

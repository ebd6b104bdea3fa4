// internal/relay/client.go
//
// Signup – relay: HTTP client for the spreadsheet script endpoint.
//
// Context
//   Submit sends exactly one form-encoded POST and classifies whatever comes
//   back into a Response (see response.go).  It never returns an error; a
//   failed request is just another shape.  No retries: the user resubmits.
//
// Workflow
//   1. Encode the payload with url.Values.
//   2. POST with Content-Type application/x-www-form-urlencoded;charset=UTF-8.
//   3. 3xx with redirects disabled → OpaqueSuccess.
//   4. 2xx JSON → JSONResult (unparseable → success), 2xx other → PlainSuccess.
//   5. Non-2xx → HTTPError with up to 200 UTF-16 units of body.
//   6. Transport failure → NetworkError.
//
// Notes
//   •  The transport comes from go-cleanhttp so no shared DefaultTransport
//      state leaks in.
//   •  Timeout is optional.  Zero leaves the request bound only to ctx.
//
//------------------------------------------------------------------------------

package relay

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/metrics"
)

// ContentType is sent with every submission.
const ContentType = "application/x-www-form-urlencoded;charset=UTF-8"

// detailLimit caps the body excerpt carried by HTTPError, in UTF-16 units.
const detailLimit = 200

// Client posts payloads to one endpoint.  Safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	log      *zap.SugaredLogger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled cleanhttp client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout bounds each submission.  Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithLogger sets the logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

// WithoutRedirects stops the client at the first 3xx.  The script endpoint
// then looks opaque and is treated as accepted.
func WithoutRedirects() Option {
	return func(c *Client) {
		hc := *c.http
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		c.http = &hc
	}
}

// New returns a Client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     cleanhttp.DefaultPooledClient(),
		log:      zap.S(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit relays p and returns the normalised result.
func (c *Client) Submit(ctx context.Context, p form.Payload) Result {
	start := time.Now()
	resp := c.Send(ctx, p)
	kind := Kind(resp)
	res := Normalize(resp)

	metrics.RelayDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.RelayResponsesTotal.WithLabelValues(kind).Inc()

	if res.OK {
		c.log.Infow("relay accepted", "kind", kind, "elapsed", time.Since(start))
	} else {
		c.log.Warnw("relay rejected", "kind", kind, "error", res.Error)
	}
	return res
}

// Send performs the request and classifies the answer without normalising
// it.
func (c *Client) Send(ctx context.Context, p form.Payload) Response {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body := strings.NewReader(p.Values().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return NetworkError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", ContentType)

	res, err := c.http.Do(req)
	if err != nil {
		return NetworkError{Message: transportMessage(err)}
	}
	defer res.Body.Close()

	return classify(res)
}

func classify(res *http.Response) Response {
	switch {
	case res.StatusCode >= 300 && res.StatusCode < 400:
		return OpaqueSuccess{}

	case res.StatusCode >= 200 && res.StatusCode < 300:
		if !isJSON(res.Header.Get("Content-Type")) {
			return PlainSuccess{}
		}
		raw, err := io.ReadAll(res.Body)
		if err != nil {
			return JSONResult{OK: true}
		}
		return decodeJSON(raw)

	default:
		return HTTPError{
			Status:     res.StatusCode,
			StatusText: statusText(res),
			Detail:     readDetail(res.Body),
		}
	}
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(ct, "application/json")
	}
	return mt == "application/json"
}

// statusText returns the reason phrase the server sent, or the canonical one.
func statusText(res *http.Response) string {
	if _, text, ok := strings.Cut(res.Status, " "); ok {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return http.StatusText(res.StatusCode)
}

// readDetail returns the longest prefix of r that fits in detailLimit UTF-16
// units.  A surrogate pair straddling the limit is dropped whole.  Read
// failures yield whatever was read so far.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, detailLimit*utf8.UTFMax))
	s := string(raw)
	units := 0
	for i, c := range s {
		units += utf16.RuneLen(c)
		if units > detailLimit {
			return s[:i]
		}
	}
	return s
}

// transportMessage unwraps *url.Error so the message reads like the
// underlying failure rather than repeating the method and URL.
func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

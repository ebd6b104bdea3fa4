// internal/relay/response.go
//
// Signup – relay: response shapes and normalisation.
//
// Context
//   The sheet endpoint answers in one of a handful of shapes.  Each shape is
//   its own type, the set is closed by the unexported isResponse marker, and
//   Normalize switches over it to produce the single Result the controller
//   understands.
//
//   Shape            Result
//   ─────            ──────
//   OpaqueSuccess    ok
//   JSONResult       ok = body.ok, error = body.error
//   PlainSuccess     ok
//   HTTPError        "http-<status> <statusText> <detail>"
//   NetworkError     "network-error: <message>"
//
//------------------------------------------------------------------------------

package relay

import (
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// Result is the normalised outcome of one submission.  Error is meaningful
// only when OK is false.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Response is one of OpaqueSuccess, JSONResult, PlainSuccess, HTTPError, or
// NetworkError.
type Response interface{ isResponse() }

// OpaqueSuccess is an answer whose status and body cannot be inspected.
type OpaqueSuccess struct{}

// JSONResult is a 2xx JSON body.
type JSONResult struct {
	OK    bool
	Error string
}

// PlainSuccess is a 2xx answer that is not JSON.
type PlainSuccess struct{}

// HTTPError is a non-2xx answer.  Detail holds at most detailLimit
// UTF-16 units of the body.
type HTTPError struct {
	Status     int
	StatusText string
	Detail     string
}

// NetworkError means the request never completed.
type NetworkError struct{ Message string }

func (OpaqueSuccess) isResponse() {}
func (JSONResult) isResponse()    {}
func (PlainSuccess) isResponse()  {}
func (HTTPError) isResponse()     {}
func (NetworkError) isResponse()  {}

// Kind names the shape for logs and metrics.
func Kind(r Response) string {
	switch r.(type) {
	case OpaqueSuccess:
		return "opaque"
	case JSONResult:
		return "json"
	case PlainSuccess:
		return "plain"
	case HTTPError:
		return "http_error"
	case NetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Normalize maps a Response onto a Result.
func Normalize(r Response) Result {
	switch v := r.(type) {
	case OpaqueSuccess, PlainSuccess:
		return Result{OK: true}
	case JSONResult:
		if v.OK {
			return Result{OK: true}
		}
		return Result{OK: false, Error: v.Error}
	case HTTPError:
		msg := fmt.Sprintf("http-%d %s %s", v.Status, v.StatusText, v.Detail)
		return Result{OK: false, Error: strings.TrimSpace(msg)}
	case NetworkError:
		return Result{OK: false, Error: "network-error: " + v.Message}
	default:
		return Result{OK: false}
	}
}

// -----------------------------------------------------------------------------
// JSON body decoding
// -----------------------------------------------------------------------------

// truthy reports whether v, decoded from JSON, counts as a yes.  The strings
// "true" and "false" mean what they say; everything else follows the
// usual script rules: false, 0, "", and null are no.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch t {
		case "true":
			return true
		case "false":
			return false
		}
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true // arrays and objects, even empty ones
	}
}

// decodeJSON parses a 2xx JSON body.  A body that does not parse counts as
// success.  A body that parses to anything but an object carries no ok
// field and so counts as failure.
func decodeJSON(body []byte) JSONResult {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return JSONResult{OK: true}
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return JSONResult{}
	}
	res := JSONResult{OK: truthy(obj["ok"])}
	switch e := obj["error"].(type) {
	case nil:
	case string:
		res.Error = e
	default:
		res.Error = fmt.Sprint(e)
	}
	return res
}

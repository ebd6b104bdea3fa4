// internal/form/csrf.go
//
// Signup – Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Every rendered signup page embeds a hidden `csrf_token` input.  The
//   server verifies it on POST to ensure the request came from a form it
//   rendered.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Makes every rendered form unique, so the
//      token also serves as the form-instance key in internal/web.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed with the configured secret.  Verifies authenticity.
//
// Workflow
//   •  NewCSRF(secret)  → signer; a nil or short secret gets a random key.
//   •  Generate()       → token string for the renderer.
//   •  Verify(tok)      → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	tokenBytes   = 16 + 8 + sha256.Size // nonce + ts + sig
	csrfMaxAge   = 2 * time.Hour        // token valid window
	minSecretLen = 32
)

// CSRF signs and verifies form tokens.  Safe for concurrent use.
type CSRF struct {
	secret    []byte
	ephemeral bool
	now       func() time.Time
}

// NewCSRF returns a signer keyed with secret.  When secret is shorter than
// 32 bytes a random key is generated; tokens then die with the process.
func NewCSRF(secret []byte) *CSRF {
	c := &CSRF{secret: secret, now: time.Now}
	if len(secret) < minSecretLen {
		c.secret = make([]byte, minSecretLen)
		_, _ = rand.Read(c.secret)
		c.ephemeral = true
	}
	return c
}

// DecodeSecret turns the configured base64url key into bytes.  Invalid input
// yields nil, which NewCSRF replaces with a random key.
func DecodeSecret(s string) []byte {
	if s == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Ephemeral reports whether the signer runs on a generated key.
func (c *CSRF) Ephemeral() bool { return c.ephemeral }

// Generate creates a new token.  Call once per form render.
func (c *CSRF) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > csrfMaxAge || issued.Sub(now) > time.Minute {
		// Older than csrfMaxAge, or from the future (clock skew).
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

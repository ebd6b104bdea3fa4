// internal/vault/vault.go
//
// Vault client wrapper for configuration secrets.
//
// Context
// -------
//   - Provides a concurrency‑safe wrapper around the HashiCorp Vault Go SDK.
//   - Adds background token renewal, a KV‑v2 getter, and per‑key caching.
//   - Resolves `vault:<mount>/<path>#<key>` references found in config, so
//     the relay endpoint, CSRF key, and archive DSN can live outside YAML.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S())               // during boot.
//  2. val, err := cli.Resolve(ctx, "vault:kv/signup#dsn") // config loader.
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// RefPrefix marks a config value that must be fetched from Vault.
const RefPrefix = "vault:"

// ResolveTTL is how long resolved references stay cached.
const ResolveTTL = 5 * time.Minute

// ErrBadRef is returned for a reference without a path or a key.
var ErrBadRef = errors.New("vault: malformed reference")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Create once at startup.  Zero value
// is invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token‑renewal loop
// that stops when ctx is cancelled.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault‑token).
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		log:   log,
		cache: make(map[string]cached),
	}

	go c.renewLoop(ctx)

	return c, nil
}

// IsRef reports whether s is a Vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// ParseRef splits `vault:<path>#<key>` into its parts.
func ParseRef(s string) (secretPath, key string, err error) {
	if !IsRef(s) {
		return "", "", fmt.Errorf("%w: %q lacks %q prefix", ErrBadRef, s, RefPrefix)
	}
	secretPath, key, ok := strings.Cut(strings.TrimPrefix(s, RefPrefix), "#")
	if !ok || secretPath == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, s)
	}
	return secretPath, key, nil
}

// Resolve fetches the value a reference points at.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	p, k, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, p, k, ResolveTTL)
}

// GetKV fetches a single key from a KV‑v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non‑empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		c.renewOnce(ctx)
	}
}

// renewOnce probes the token and, when renewable, keeps it alive until the
// renewer stops or ctx ends.
func (c *Client) renewOnce(ctx context.Context) {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("vault token renew failed", "err", err)
		backoff(ctx, 30*time.Second)
		return
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Infow("vault token not renewable, sleeping", "for", time.Hour)
		backoff(ctx, time.Hour)
		return
	}

	watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: sec,
	})
	if err != nil {
		c.log.Warnw("vault watcher init failed", "err", err)
		backoff(ctx, 30*time.Second)
		return
	}
	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			backoff(ctx, 15*time.Second)
			return
		case ev := <-watcher.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

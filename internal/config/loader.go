// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env` file.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `SIGNUP_`, where `__` maps to “.”
     (e.g., `SIGNUP_RELAY__ENDPOINT → relay.endpoint`).

After merging, every string value that starts with `vault:` is replaced by
the secret it names.  The tree is then unmarshalled into strongly-typed
structs, defaulted, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, secret resolution.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span: final “config loaded” with key highlights.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • The Vault client is only dialled when a `vault:` value is present.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/vault"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "SIGNUP_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SIGNUP_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves Vault references,
// validates, and caches Config.
func Load(ctx context.Context) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	return LoadFrom(ctx, root, dialVault)
}

// dialVault opens a Vault client that lives for the rest of the process.
func dialVault(ctx context.Context) (SecretResolver, error) {
	return vault.New(context.WithoutCancel(ctx), zap.S())
}

// LoadFrom builds Config from <root>/conf/global.yaml plus the environment.
// openSecrets is called at most once, and only if a `vault:` value exists.
func LoadFrom(ctx context.Context, root string, openSecrets func(context.Context) (SecretResolver, error)) (*Config, error) {
	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("config: load %s: %w", yamlPath, err)
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: SIGNUP_RELAY__ENDPOINT → relay.endpoint
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config: env overlay: %w", err)
	}

	if err := resolveSecrets(ctx, k, openSecrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if !k.Exists("relay.follow_redirects") {
		_ = k.Set("relay.follow_redirects", true)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Signup.Instances == 0 {
		cfg.Signup.Instances = DefaultInstances
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"follow_redirects", cfg.Relay.FollowRedirects,
		"archive", cfg.Database.DSN != "",
		"geo", cfg.Geo.DBPath != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// envKey maps SIGNUP_HTTP__LISTEN_ADDR to http.listen_addr.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets swaps every `vault:` string in k for the secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, open func(context.Context) (SecretResolver, error)) error {
	var refs []string
	for _, key := range k.Keys() {
		if s, ok := k.Get(key).(string); ok && vault.IsRef(s) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	if open == nil {
		return fmt.Errorf("config: %s uses vault but no resolver is configured", refs[0])
	}

	sr, err := open(ctx)
	if err != nil {
		return fmt.Errorf("config: open vault: %w", err)
	}
	for _, key := range refs {
		val, err := sr.Resolve(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the most recently loaded Config, or nil before Load.
func Get() *Config { return current.Load() }

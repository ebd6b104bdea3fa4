// internal/config/model.go
//
// Typed configuration model for the signup service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `SIGNUP_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault references, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"path/filepath"
	"time"
)

// DefaultInstances caps the number of live form instances kept in memory.
const DefaultInstances = 1024

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Relay section
//

// Relay points at the spreadsheet script that stores registrations.
//
// FollowRedirects defaults to true.  When false, a 3xx answer from the
// script is treated as an opaque success.  Timeout zero means no limit
// beyond the request context.
type Relay struct {
	Endpoint        string        `koanf:"endpoint"         validate:"required,url"`
	FollowRedirects bool          `koanf:"follow_redirects"`
	Timeout         time.Duration `koanf:"timeout"          validate:"gte=0"`
}

//
// Signup section
//

// Signup tunes the form itself.  CSRFKey is base64url; an empty or short
// key makes the service generate a per-process secret.  FormFile overrides
// the embedded form definition.
type Signup struct {
	CSRFKey   string `koanf:"csrf_key"`
	FormFile  string `koanf:"form_file"`
	Instances int    `koanf:"instances" validate:"gte=0"`
}

//
// Optional integrations
//

// Geo enables GeoLite2 lookups when DBPath is set.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Database enables the MySQL registration archive when DSN is set.  The
// DSN usually arrives as a `vault:` reference so the password never sits
// in a flat file.
type Database struct {
	DSN string `koanf:"dsn"`
}

// Log picks the log directory.  Relative paths hang off Paths.Root.
type Log struct {
	Dir string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SIGNUP_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Relay    Relay    `koanf:"relay"`
	Signup   Signup   `koanf:"signup"`
	Geo      Geo      `koanf:"geo"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// LogDir returns the absolute log directory.
func (c *Config) LogDir() string {
	dir := c.Log.Dir
	if dir == "" {
		dir = "logs"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Paths.Root, dir)
}

// FormFile returns the absolute path of the definition override, or "" to
// use the embedded one.
func (c *Config) FormFile() string {
	f := c.Signup.FormFile
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(c.Paths.Root, f)
}

// cmd/web/main.go
//
// Event signup – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (system-wide file → .env fallback).
//
//  2. Load configuration (YAML, SIGNUP_ env overrides, Vault references).
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Load the form definition and the CSRF signer.
//
//  5. Build the relay client for the spreadsheet script.
//
//  6. Optional: open the MySQL archive and the GeoLite2 database.
//
//  7. Serve until SIGINT or SIGTERM, then drain in-flight submissions.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/config"
	"github.com/yanizio/eventsignup/internal/database"
	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/logger"
	"github.com/yanizio/eventsignup/internal/relay"
	"github.com/yanizio/eventsignup/internal/requestinfo"
	"github.com/yanizio/eventsignup/internal/server"
	"github.com/yanizio/eventsignup/internal/store"
	"github.com/yanizio/eventsignup/internal/web"
)

const serverEnvPath = "/usr/local/etc/eventsignup/global.env"

// loadEnv prefers the system-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Console logger until the file logger is up.
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.LogDir(), runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 1.  Form definition and CSRF signer ─────────────────────────────
	//
	def, err := form.LoadDefinition(cfg.FormFile())
	if err != nil {
		logOut.Fatalw("load form definition", "err", err)
	}
	csrf := form.NewCSRF(form.DecodeSecret(cfg.Signup.CSRFKey))
	if csrf.Ephemeral() {
		logOut.Warnw("signup.csrf_key unset or short, using a per-process key")
	}

	//
	// ── 2.  Relay client ────────────────────────────────────────────────
	//
	relayOpts := []relay.Option{relay.WithLogger(logOut), relay.WithTimeout(cfg.Relay.Timeout)}
	if !cfg.Relay.FollowRedirects {
		relayOpts = append(relayOpts, relay.WithoutRedirects())
	}
	client := relay.New(cfg.Relay.Endpoint, relayOpts...)

	webOpts := []web.Option{
		web.WithLogger(logOut),
		web.WithInstances(cfg.Signup.Instances),
		web.WithForceHTTPS(cfg.HTTP.ForceHTTPS),
	}

	//
	// ── 3.  Optional archive ────────────────────────────────────────────
	//
	if cfg.Database.DSN != "" {
		db, err := database.Open(ctx, cfg.Database.DSN)
		if err != nil {
			logOut.Fatalw("connect archive DB", "err", err)
		}
		defer db.Close()

		archive := store.New(db, logOut)
		if err := archive.EnsureSchema(ctx); err != nil {
			logOut.Fatalw("archive schema", "err", err)
		}
		n, _ := archive.Count(ctx)
		logOut.Infow("archive online", "registrations", n)
		webOpts = append(webOpts, web.WithObserver(archive.Observe))
	}

	//
	// ── 4.  Optional GeoLite2 ───────────────────────────────────────────
	//
	if cfg.Geo.DBPath != "" {
		geo, err := requestinfo.OpenGeo(cfg.Geo.DBPath)
		if err != nil {
			logOut.Warnw("geo lookups disabled", "err", err)
		} else {
			defer geo.Close()
			webOpts = append(webOpts, web.WithGeo(geo))
		}
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	site, err := web.New(def, csrf, client, webOpts...)
	if err != nil {
		logOut.Fatalw("build web server", "err", err)
	}

	srv := server.New(cfg.HTTP.ListenAddr, site.Routes())
	if err := server.Run(ctx, srv, logOut); err != nil {
		logOut.Errorw("http server", "err", err)
		os.Exit(1)
	}
	logOut.Infow("bye")
}

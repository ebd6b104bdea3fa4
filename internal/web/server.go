// internal/web/server.go
//
// Signup – web: router and form-instance registry.
//
// Context
//   The signup page is rendered on the server.  Each GET / hands out a fresh
//   form instance: a CSRF token, a feedback.Page holding what the browser
//   shows, and a signup.Controller driving that page.  Instances live in an
//   LRU keyed by the token, so a second POST of the same rendered form meets
//   the controller that is still busy with the first one.
//
// Routes
//   GET  /            render a new form
//   POST /signup      submit, re-render (422 invalid, 409 busy, 502 relay
//                     failure, 403 bad token)
//   GET  /api/form    definition + token as JSON
//   POST /api/signup  same flow, JSON or form body, JSON answer
//   GET  /healthz     liveness
//   GET  /metrics     Prometheus
//   GET  /static/*    CSS and script
//
//------------------------------------------------------------------------------

package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/cache"
	"github.com/yanizio/eventsignup/internal/feedback"
	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/logger"
	"github.com/yanizio/eventsignup/internal/metrics"
	"github.com/yanizio/eventsignup/internal/middleware"
	"github.com/yanizio/eventsignup/internal/requestinfo"
	"github.com/yanizio/eventsignup/internal/signup"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// csrfField is the hidden input carrying the form token.
const csrfField = "csrf_token"

// DefaultInstances is used when WithInstances is not given.
const DefaultInstances = 1024

var errBadToken = errors.New("web: invalid or expired form token")

// Server serves the signup page and API.
type Server struct {
	def        *form.Definition
	csrf       *form.CSRF
	submitter  signup.Submitter
	observe    signup.Observer
	log        *zap.SugaredLogger
	geo        *requestinfo.GeoDB
	forceHTTPS bool
	toastDelay time.Duration
	now        func() time.Time

	tmpl *template.Template

	mu    sync.Mutex // serialises lookup-or-adopt
	forms *cache.LRU
	size  int
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the base logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(s *Server) { s.log = l } }

// WithObserver is passed to every controller.
func WithObserver(fn signup.Observer) Option { return func(s *Server) { s.observe = fn } }

// WithInstances caps the number of live form instances.
func WithInstances(n int) Option { return func(s *Server) { s.size = n } }

// WithToastDelay overrides feedback.ToastDelay.
func WithToastDelay(d time.Duration) Option { return func(s *Server) { s.toastDelay = d } }

// WithGeo enables GeoLite2 lookups in the request metadata.
func WithGeo(g *requestinfo.GeoDB) Option { return func(s *Server) { s.geo = g } }

// WithForceHTTPS redirects plain-HTTP requests.
func WithForceHTTPS(on bool) Option { return func(s *Server) { s.forceHTTPS = on } }

// New builds a Server.  def, csrf, and submitter are required.
func New(def *form.Definition, csrf *form.CSRF, submitter signup.Submitter, opts ...Option) (*Server, error) {
	s := &Server{
		def:        def,
		csrf:       csrf,
		submitter:  submitter,
		log:        zap.S(),
		toastDelay: feedback.ToastDelay,
		now:        time.Now,
		size:       DefaultInstances,
	}
	for _, o := range opts {
		o(s)
	}
	if s.size < 1 {
		s.size = DefaultInstances
	}

	tmpl, err := template.ParseFS(templateFS, "templates/signup.html")
	if err != nil {
		return nil, err
	}
	s.tmpl = tmpl

	s.forms = cache.New(s.size)
	s.forms.OnEvict(func(_, v any) {
		v.(*instance).page.HideToast()
		metrics.ActiveForms.Dec()
	})
	return s, nil
}

// Routes returns the root handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(s.forceHTTPS))
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich(s.geo))

	r.Get("/", s.handlePage)
	r.Post("/signup", s.handleSubmit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/form", s.handleAPIForm)
		r.Post("/signup", s.handleAPISubmit)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return r
}

// requestLogger puts a request-scoped logger in the context and logs one
// line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.log.With("request_id", chimw.GetReqID(r.Context()))
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

		l.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// -----------------------------------------------------------------------------
// Form instances
// -----------------------------------------------------------------------------

type instance struct {
	token string
	page  *feedback.Page
	ctl   *signup.Controller
}

// newInstance issues a token and registers a fresh instance for it.
func (s *Server) newInstance() (*instance, error) {
	tok, err := s.csrf.Generate()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adopt(tok), nil
}

// lookup returns the instance for tok.  A valid token whose instance was
// evicted (or issued before a restart) gets a new one.
func (s *Server) lookup(tok string) (*instance, error) {
	if !s.csrf.Verify(tok) {
		return nil, errBadToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.forms.Get(tok); ok {
		return v.(*instance), nil
	}
	return s.adopt(tok), nil
}

// adopt must be called with s.mu held.
func (s *Server) adopt(tok string) *instance {
	page := feedback.NewPage(feedback.NewToast(s.toastDelay), s.def.SubmitLabel)
	opts := []signup.Option{signup.WithLogger(s.log)}
	if s.observe != nil {
		opts = append(opts, signup.WithObserver(s.observe))
	}
	inst := &instance{
		token: tok,
		page:  page,
		ctl:   signup.New(page, s.submitter, opts...),
	}
	s.forms.Add(tok, inst)
	metrics.ActiveForms.Inc()
	return inst
}

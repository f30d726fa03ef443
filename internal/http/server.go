package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"boardview/internal/board"
	"boardview/internal/log"
	"boardview/internal/middleware/ratelimit"
	"boardview/internal/middleware/security"
	"boardview/internal/middleware/trace"
	"boardview/internal/render"
	appweb "boardview/web"
)

// DashboardSource produces a freshly fetched board index per call.
type DashboardSource interface {
	BoardID() string
	Index(ctx context.Context) (*board.Index, error)
}

// Options tune the server. Zero values fall back to defaults.
type Options struct {
	Logger             *log.Logger
	UpcomingWindow     time.Duration
	RateLimitPerMinute int
	// Now is the clock used for upcoming and month defaults.
	Now func() time.Time
}

type appMetrics struct {
	uptime       time.Time
	boardFetches atomic.Int64
	fetchErrors  atomic.Int64
}

type Server struct {
	http.Server
	templates *template.Template
	source    DashboardSource
	logger    *log.Logger
	slog      *log.StructuredLogger

	upcomingWindow time.Duration
	now            func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, source DashboardSource, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.FromSlog(nil, log.ComponentHTTP)
	}
	if opts.UpcomingWindow <= 0 {
		opts.UpcomingWindow = 14 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		source:           source,
		logger:           logger,
		slog:             log.NewStructuredLogger(logger),
		upcomingWindow:   opts.UpcomingWindow,
		now:              opts.Now,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	t, err := template.New("").Funcs(render.FuncMap()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	page := func(pattern string, h http.HandlerFunc) {
		limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit)
		mux.Handle(pattern, security.NoStore(limited(h)))
	}
	page("GET /{$}", s.handleInProgress)
	page("GET /done", s.handleDone)
	page("GET /backlog", s.handleBacklog)
	page("GET /upcoming", s.handleUpcoming)
	page("GET /activity", s.handleActivity)
	page("GET /products", s.handleProducts)
	page("GET /epics", s.handleEpics)
	page("GET /labels", s.handleLabels)
	page("GET /labels/{name}", s.handleLabel)
	page("GET /members", s.handleMembers)
	page("GET /members/{id}", s.handleMember)
	page("GET /highlights", s.handleHighlights)
	page("GET /events", s.handleEvents)
	mux.Handle("/", http.HandlerFunc(s.handleNotFound))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	s.renderError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again in a minute.")
}

package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	appweb "spendlog/web"
)

// ExpenseService is what the expense endpoints need
type ExpenseService interface {
	CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
	CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error)
	RecentExpenses(ctx context.Context) ([]core.RecentExpense, error)
	SpendingTrend(ctx context.Context) ([]core.DailyTotal, error)
	Stats(ctx context.Context) (core.Stats, error)
	Snapshot(ctx context.Context) ([]core.CategoryAmount, error)
	Ready(ctx context.Context) error
}

// ChatSession is the advisor conversation slot
type ChatSession interface {
	Initialize(ctx context.Context, snapshot []core.CategoryAmount) string
	SendMessage(ctx context.Context, text string) string
}

// Config holds the server's tunables
type Config struct {
	RateLimitPerMinute int
	// MaxBodyBytes caps JSON request bodies
	MaxBodyBytes int64
}

type Server struct {
	http.Server
	templates *template.Template
	expenses  ExpenseService
	chat      ChatSession
	logger    *log.Logger

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	ipResolver      *security.ClientIPResolver
	maxBodyBytes    int64
	startedAt       time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, cfg Config, expenses ExpenseService, chat ChatSession, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	mux := http.NewServeMux()
	resolver := security.NewClientIPResolver()

	s := &Server{
		expenses:        expenses,
		chat:            chat,
		logger:          logger,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		traceMiddleware: trace.NewMiddleware(logger, resolver.ClientIP),
		ipResolver:      resolver,
		maxBodyBytes:    cfg.MaxBodyBytes,
		startedAt:       time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := func(h http.HandlerFunc) http.Handler {
		return s.rateLimiter.Middleware(resolver.ClientIP, s.writeRateLimited)(h)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /add_expense", limited(s.handleAddExpense))
	mux.HandleFunc("GET /expenses", s.handleCategoryTotals)
	mux.HandleFunc("GET /recent_expenses", s.handleRecentExpenses)
	mux.HandleFunc("GET /spending_trend", s.handleSpendingTrend)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.Handle("POST /init_chat", limited(s.handleInitChat))
	mux.Handle("POST /chat", limited(s.handleChat))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.traceMiddleware.Middleware(s.recoverPanics(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// recoverPanics turns a handler panic into a 500 JSON error
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Handler panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

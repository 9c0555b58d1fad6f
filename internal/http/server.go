package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"budgetboard/internal/core"
	blog "budgetboard/internal/log"
	"budgetboard/internal/middleware/ratelimit"
	"budgetboard/internal/middleware/security"
	"budgetboard/internal/middleware/trace"
	"budgetboard/internal/services"
	"budgetboard/internal/sheets"
	"budgetboard/internal/storage"
	appweb "budgetboard/web"
)

// pages names the templates rendered inside the layout.
var pages = []string{"dashboard", "entity", "analytics", "reports", "error"}

// Options carries the dependencies of a Server. Sheets may be nil.
type Options struct {
	Addr               string
	Board              *services.Board
	Reports            *services.Reports
	Sheets             sheets.ReportPublisher
	Logger             *blog.Logger
	PageSize           int
	RateLimitPerMinute int
}

// Server embeds http.Server and serves the JSON API and the HTML pages.
type Server struct {
	http.Server

	pages    map[string]*template.Template
	board    *services.Board
	store    *storage.SQLiteRepository
	reports  *services.Reports
	sheets   sheets.ReportPublisher
	logger   *blog.Logger
	pageSize int

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started time.Time
	now     func() time.Time
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = blog.New(blog.DefaultConfig())
	}
	logger = logger.WithComponent(blog.ComponentHTTP)

	s := &Server{
		board:    opts.Board,
		store:    opts.Board.Store(),
		reports:  opts.Reports,
		sheets:   opts.Sheets,
		logger:   logger,
		pageSize: opts.PageSize,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector: security.NewDetector(),
		started:  time.Now(),
		now:      time.Now,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	var err error
	if s.pages, err = parsePages(); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	s.Server = http.Server{
		Addr:           opts.Addr,
		Handler:        s.middleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s, nil
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Format() },
	"pct":   func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
	"width": func(p float64) float64 {
		switch {
		case p < 0:
			return 0
		case p > 100:
			return 100
		}
		return p
	},
	"add": func(a, b int) int { return a + b },
}

func parsePages() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(appweb.TemplatesFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Pages
	mux.HandleFunc("GET /{$}", s.handleDashboardPage)
	mux.HandleFunc("GET /projects", s.handleProjectsPage)
	mux.HandleFunc("GET /managers", s.handleManagersPage)
	mux.HandleFunc("GET /categories", s.handleCategoriesPage)
	mux.HandleFunc("GET /budgets", s.handleBudgetsPage)
	mux.HandleFunc("GET /expenses", s.handleExpensesPage)
	mux.HandleFunc("GET /analytics", s.handleAnalyticsPage)
	mux.HandleFunc("GET /reports", s.handleReportsPage)

	// Entities
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/all", s.handleAllProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /api/managers", s.handleListManagers)
	mux.HandleFunc("GET /api/managers/{id}", s.handleGetManager)
	mux.HandleFunc("POST /api/managers", s.handleCreateManager)
	mux.HandleFunc("PUT /api/managers/{id}", s.handleUpdateManager)
	mux.HandleFunc("DELETE /api/managers/{id}", s.handleDeleteManager)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/categories/all", s.handleAllCategories)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/budgets/all", s.handleAllBudgets)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	// Aggregations and exports
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/reports/monthly.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /api/reports/monthly.pdf", s.handleExportPDF)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategoryReport)
	mux.HandleFunc("POST /api/reports/sheets", s.handlePublishSheets)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	return nil
}

// middleware wraps the mux, outermost first: request logger, tracing,
// security headers, probe detection, API rate limiting and JSON errors.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := apiErrors(next)
	h = s.limitAPI(h)
	h = s.detect(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	return blog.Middleware(s.logger)(h)
}

func (s *Server) detect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			blog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				blog.FieldClientIP, s.detector.ExtractClientIP(r),
				blog.FieldMethod, r.Method,
				blog.FieldPath, r.URL.Path,
				blog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitAPI(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		blog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			blog.FieldClientIP, s.detector.ExtractClientIP(r),
			blog.FieldPath, r.URL.Path)
		writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// apiErrors turns the mux's plain-text 404 and 405 replies under /api/ into
// JSON error bodies.
func apiErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(&apiErrorWriter{ResponseWriter: w}, r)
	})
}

type apiErrorWriter struct {
	http.ResponseWriter
	swallow bool
}

func (w *apiErrorWriter) WriteHeader(code int) {
	plain := strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain")
	if plain && (code == http.StatusNotFound || code == http.StatusMethodNotAllowed) {
		body, _ := json.Marshal(map[string]string{"error": strings.ToLower(http.StatusText(code))})
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.ResponseWriter.WriteHeader(code)
		_, _ = w.ResponseWriter.Write(append(body, '\n'))
		w.swallow = true
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *apiErrorWriter) Write(b []byte) (int, error) {
	if w.swallow {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *apiErrorWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// render executes page inside the layout. Output is buffered so a template
// failure still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data.Sheets = s.sheets != nil
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		blog.NewStructuredLogger(blog.FromContext(r.Context())).
			LogError(r.Context(), "Template execution failed", err, blog.ErrorTypeInternal, blog.OpRender)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows err as an HTML page with the matching status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		blog.NewStructuredLogger(blog.FromContext(r.Context())).
			LogError(r.Context(), "Page failed", err, errType, blog.OpRender)
		msg = "Something went wrong. Please try again."
	}
	s.render(w, r, status, "error", pageData{Title: http.StatusText(status), Data: msg})
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

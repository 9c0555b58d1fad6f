package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"timestamp":  s.now().Format(time.RFC3339),
		"uptime":     uptime(s.started),
		"requests":   s.tracer.GetMetrics(),
		"rate_limit": s.limiter.GetMetrics(),
		"security":   s.detector.GetMetrics(),
		"cache":      s.reports.CacheStats(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if len(s.pages) != len(pages) {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.store.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.sheets != nil {
		checks["sheets"] = "configured"
	} else {
		checks["sheets"] = "not_configured"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	cacheStats := s.reports.CacheStats()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_average_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_average_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_average_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP rate_limit_clients Clients tracked by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP security_suspicious_requests_total Requests flagged as suspicious\n")
	fmt.Fprintf(w, "# TYPE security_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	names := make([]string, 0, len(cacheStats))
	for name := range cacheStats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "# HELP cache_hits_total Report cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	for _, name := range names {
		fmt.Fprintf(w, "cache_hits_total{cache=%q} %d\n", name, cacheStats[name].Hits)
	}
	fmt.Fprintf(w, "\n# HELP cache_misses_total Report cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	for _, name := range names {
		fmt.Fprintf(w, "cache_misses_total{cache=%q} %d\n", name, cacheStats[name].Misses)
	}
	fmt.Fprintf(w, "\n# HELP cache_entries Report cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	for _, name := range names {
		fmt.Fprintf(w, "cache_entries{cache=%q} %d\n", name, cacheStats[name].Size)
	}

	fmt.Fprintf(w, "\n# HELP uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

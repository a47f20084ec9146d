package routing

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"confide/internal/handlers"
	"confide/internal/middleware"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Create CrossOriginProtection for CSRF protection on mutating routes
	cop := http.NewCrossOriginProtection()

	// Public API
	mux.Handle("POST /api/confessions", cop.Handler(http.HandlerFunc(h.HandleSubmit)))
	mux.Handle("POST /api/votes", cop.Handler(http.HandlerFunc(h.HandleVote)))
	mux.Handle("GET /api/confessions", gzhttp.GzipHandler(http.HandlerFunc(h.HandleFeed)))
	mux.Handle("GET /api/trending", gzhttp.GzipHandler(http.HandlerFunc(h.HandleTrending)))

	// Live streams. Never compressed: gzip buffering would hold frames
	// back from the client.
	mux.HandleFunc("GET /api/events", h.HandleEvents)
	mux.HandleFunc("GET /api/ws", h.HandleWS)

	// Admin surface, authenticated per-request via X-Admin-Key
	mux.Handle("POST /api/admin/approve", cop.Handler(http.HandlerFunc(h.HandleAdminApprove)))
	mux.Handle("DELETE /api/admin/confessions", cop.Handler(http.HandlerFunc(h.HandleAdminDelete)))
	mux.Handle("GET /api/admin/pending", gzhttp.GzipHandler(http.HandlerFunc(h.HandleAdminPending)))
	mux.Handle("GET /api/admin/confessions", gzhttp.GzipHandler(http.HandlerFunc(h.HandleAdminConfessions)))
	mux.Handle("POST /api/admin/verify-key", cop.Handler(http.HandlerFunc(h.HandleAdminVerifyKey)))
	mux.Handle("GET /api/admin/audit", gzhttp.GzipHandler(http.HandlerFunc(h.HandleAdminAudit)))

	// Operational endpoints
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 2. Logging middleware (outermost, wraps everything)
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	return handler
}

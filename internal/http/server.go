// Package http exposes the bookkeeping engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	applog "bizbook/internal/log"
)

// Server wraps http.Server with the API routes and a request rate
// limiter.
type Server struct {
	http.Server

	books        Bookkeeper
	trendWindow  int
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server. trendWindow is the default number of most
// recent entries bucketed by the trend endpoint.
func NewServer(addr string, books Bookkeeper, trendWindow int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		books:       books,
		trendWindow: trendWindow,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withRequestContext(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withRequestContext(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withRequestContext(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequestContext(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/invoices", s.withRequestContext(s.handleListInvoices))
	mux.HandleFunc("POST /api/invoices", s.withRequestContext(s.handleCreateInvoice))
	mux.HandleFunc("PUT /api/invoices/{id}", s.withRequestContext(s.handleUpdateInvoice))
	mux.HandleFunc("DELETE /api/invoices/{id}", s.withRequestContext(s.handleDeleteInvoice))

	mux.HandleFunc("GET /api/balances", s.withRequestContext(s.handleBalances))
	mux.HandleFunc("GET /api/summary", s.withRequestContext(s.handleSummary))
	mux.HandleFunc("GET /api/trend", s.withRequestContext(s.handleTrend))
	mux.HandleFunc("GET /api/reports", s.withRequestContext(s.handleReport))
	mux.HandleFunc("GET /api/reports/export", s.withRequestContext(s.handleExportReport))
	mux.HandleFunc("GET /api/insights/latest", s.withRequestContext(s.handleLatestInsight))

	mux.HandleFunc("GET /api/banks", s.withRequestContext(s.handleListBanks))
	mux.HandleFunc("POST /api/banks", s.withRequestContext(s.handleCreateBank))
	mux.HandleFunc("DELETE /api/banks/{id}", s.withRequestContext(s.handleDeleteBank))

	mux.HandleFunc("GET /api/staff", s.withRequestContext(s.handleListStaff))
	mux.HandleFunc("POST /api/staff", s.withRequestContext(s.handleCreateStaff))
	mux.HandleFunc("DELETE /api/staff/{id}", s.withRequestContext(s.handleDeleteStaff))

	mux.HandleFunc("GET /api/inventory", s.withRequestContext(s.handleListInventory))
	mux.HandleFunc("POST /api/inventory", s.withRequestContext(s.handleCreateInventory))
	mux.HandleFunc("DELETE /api/inventory/{id}", s.withRequestContext(s.handleDeleteInventory))

	return s
}

// Shutdown stops the listener and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestContext stamps a request id, applies rate limiting to
// mutations, and logs start and completion.
func (s *Server) withRequestContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), applog.RequestIDContextKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter captures the status code for the completion log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

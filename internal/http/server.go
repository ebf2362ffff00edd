package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dancelog/internal/core"
)

// RecordStore is the mutable record collection the handlers drive. The
// service layer implements it; handlers never touch storage directly.
type RecordStore interface {
	Records() []core.Record
	Add(ctx context.Context, fields core.RecordFields) (core.Record, error)
	Update(ctx context.Context, id string, fields core.RecordFields) (core.Record, error)
	Remove(ctx context.Context, id string) bool
}

type Server struct {
	http.Server
	store RecordStore
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. One route per presentation intent: dashboard read, add, edit,
// delete.
func NewServer(addr string, store RecordStore) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store: store,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("GET /api/dashboard", s.withRequestContext(s.handleDashboard))
	mux.HandleFunc("GET /api/records", s.withRequestContext(s.handleListRecords))
	mux.HandleFunc("POST /api/records", s.withRequestContext(s.handleAddRecord))
	mux.HandleFunc("PUT /api/records/{id}", s.withRequestContext(s.handleUpdateRecord))
	mux.HandleFunc("DELETE /api/records/{id}", s.withRequestContext(s.handleRemoveRecord))

	return s
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// withRequestContext adds a request id, security headers and request
// logging to a handler.
func (s *Server) withRequestContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request id for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	// The server is only constructed after the record store has loaded.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

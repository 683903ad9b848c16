// Package api provides the admin HTTP API for the activity event ledger.
//
// Two surfaces are offered: a stdlib ServeMux Handler for embedding into any
// http server, and a Forge-router ForgeAPI with OpenAPI metadata.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/ratelimit"
	"github.com/xraph/ledger/signature"
)

// Handler is the root HTTP handler for the ledger admin API.
type Handler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
	mux    *http.ServeMux

	webhookSecret string
	limiter       *ratelimit.Limiter
	recordRate    int
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithWebhookSecret enables HMAC-SHA256 verification of POST /events bodies
// against the X-Hub-Signature-256 header.
func WithWebhookSecret(secret string) HandlerOption {
	return func(h *Handler) { h.webhookSecret = secret }
}

// WithRecordRateLimit caps record calls per workspace per second. Zero means
// unlimited.
func WithRecordRateLimit(perSecond int) HandlerOption {
	return func(h *Handler) { h.recordRate = perSecond }
}

// NewHandler creates a new admin API handler over a Ledger.
func NewHandler(led *ledger.Ledger, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		ledger:  led,
		logger:  logger,
		mux:     http.NewServeMux(),
		limiter: ratelimit.New(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	// Workspaces
	h.mux.HandleFunc("POST /workspaces", h.ensureWorkspace)
	h.mux.HandleFunc("GET /workspaces", h.listWorkspaces)
	h.mux.HandleFunc("GET /workspaces/{id}", h.getWorkspace)

	// Events
	h.mux.HandleFunc("POST /events", h.recordEvent)
	h.mux.HandleFunc("GET /events", h.listEvents)
	h.mux.HandleFunc("GET /events/{id}", h.getEvent)
	h.mux.HandleFunc("GET /events/key/{key}", h.getEventByKey)

	// Dead letters
	h.mux.HandleFunc("GET /dead-letters", h.listDeadLetters)
	h.mux.HandleFunc("GET /dead-letters/{id}", h.getDeadLetter)
	h.mux.HandleFunc("POST /dead-letters/{id}/retry", h.retryDeadLetter)
	h.mux.HandleFunc("POST /dead-letters/{id}/discard", h.discardDeadLetter)

	// Stats and health
	h.mux.HandleFunc("GET /stats", h.getStats)
	h.mux.HandleFunc("GET /health", h.getHealth)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.panicRecovery(h.logging(h.verifySignature(next)))
}

// verifySignature checks the X-Hub-Signature-256 header on event ingestion
// when a webhook secret is configured. Other routes are not signed.
func (h *Handler) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.webhookSecret == "" || r.Method != http.MethodPost || r.URL.Path != "/events" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		sig := r.Header.Get("X-Hub-Signature-256")
		if sig == "" || !signature.Verify(body, h.webhookSecret, sig) {
			h.logger.Warn("rejected event with bad signature", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "invalid payload signature")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryParam returns a query parameter value, or empty string if not present.
func queryParam(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryInt returns a query parameter as int or a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	var n int
	for _, c := range v {
		if c < '0' || c > '9' {
			return defaultVal
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// queryTime returns an RFC3339 query parameter, or nil if absent or invalid.
func queryTime(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

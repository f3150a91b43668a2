// Package mocksink is a local stand-in for the alerting sink. It validates and
// records every payload it receives, which makes it useful for checking a
// monitor's output before pointing it at the real sink.
package mocksink

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

const maxBodyBytes = 1 << 20

// Sink holds the chi router and the payloads received so far.
type Sink struct {
	router chi.Router
	logger *slog.Logger

	mu       sync.Mutex
	payloads []event.Payload
}

// New creates a Sink and registers all routes. Pass nil logger to use the
// default logger.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Sink) Router() chi.Router {
	return s.router
}

// Payloads returns a copy of every accepted payload in arrival order.
func (s *Sink) Payloads() []event.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Payload, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func (s *Sink) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/events", s.handlePostEvents)
	r.Get("/events", s.handleListEvents)
}

// --- Response helpers ---

type reply struct {
	Success  bool   `json:"success"`
	Accepted int    `json:"accepted,omitempty"`
	Message  string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// --- Handlers ---

func (s *Sink) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Sink) handlePostEvents(w http.ResponseWriter, r *http.Request) {
	var p event.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, reply{Message: "invalid JSON: " + err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, reply{Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.payloads = append(s.payloads, p)
	s.mu.Unlock()

	for _, e := range p.Events {
		s.logger.Info("event received",
			"source", p.Source,
			"host", e.Host,
			"service", e.Service,
			"status", e.Status,
			"description", e.Description,
		)
	}
	writeJSON(w, http.StatusOK, reply{Success: true, Accepted: len(p.Events)})
}

func (s *Sink) handleListEvents(w http.ResponseWriter, r *http.Request) {
	payloads := s.Payloads()
	if source := r.URL.Query().Get("source"); source != "" {
		filtered := payloads[:0]
		for _, p := range payloads {
			if p.Source == source {
				filtered = append(filtered, p)
			}
		}
		payloads = filtered
	}
	writeJSON(w, http.StatusOK, payloads)
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Sink) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

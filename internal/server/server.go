package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/model"
)

// SignalSource exposes the most recent evaluation.
type SignalSource interface {
	LatestSignal() (*model.RegimeSignal, time.Time, bool)
}

// StateSource exposes the paper portfolio.
type StateSource interface {
	GetState() model.PortfolioState
}

// Server is the read-only HTTP surface: health, metrics, latest signal and
// portfolio state.
type Server struct {
	router *mux.Router
	http   *http.Server
	signal SignalSource
	state  StateSource
}

type signalResponse struct {
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Signal      *model.RegimeSignal `json:"signal"`
}

// New builds the router. gatherer may be nil to use the default registry.
func New(addr string, gatherer prometheus.Gatherer, signal SignalSource, state StateSource) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{router: mux.NewRouter(), signal: signal, state: state}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/signal", s.latestSignal).Methods(http.MethodGet)
	s.router.HandleFunc("/portfolio", s.portfolio).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) latestSignal(w http.ResponseWriter, r *http.Request) {
	if s.signal == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no signal evaluated yet"})
		return
	}
	sig, at, ok := s.signal.LatestSignal()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no signal evaluated yet"})
		return
	}
	writeJSON(w, http.StatusOK, signalResponse{EvaluatedAt: at, Signal: sig})
}

func (s *Server) portfolio(w http.ResponseWriter, r *http.Request) {
	if s.state == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "portfolio unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, s.state.GetState())
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String()[:8])
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		log.Debug().
			Str("request_id", w.Header().Get("X-Request-ID")).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Package api exposes the screening engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cnis.health/nse/assistant"
	"cnis.health/nse/baseline"
	"cnis.health/nse/diet"
	"cnis.health/nse/records"
	"cnis.health/nse/regional"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// Asker is satisfied by *assistant.Client.
type Asker interface {
	Ask(ctx context.Context, q assistant.Question) (assistant.Answer, error)
}

// Archiver is satisfied by *s3client.Client.
type Archiver interface {
	Key(recordID string, createdAt time.Time) string
	Archive(ctx context.Context, key string, body []byte) error
}

type Server struct {
	store     records.Store
	assessor  *records.Assessor
	resolver  *diet.Resolver
	assistant Asker
	archiver  Archiver
	regional  *regional.Builder
	started   time.Time
	now       func() time.Time
}

type Option func(*Server)

func WithAssistant(a Asker) Option {
	return func(s *Server) { s.assistant = a }
}

func WithArchiver(a Archiver) Option {
	return func(s *Server) { s.archiver = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBaselines replaces the embedded NFHS-5 table used for chat context.
func WithBaselines(t *baseline.Table) Option {
	return func(s *Server) { s.regional.Baselines = t }
}

// WithContextWindow sets how far back chat context counts screenings.
func WithContextWindow(d time.Duration) Option {
	return func(s *Server) { s.regional.Window = d }
}

func New(store records.Store, assessor *records.Assessor, opts ...Option) *Server {
	s := &Server{
		store:    store,
		assessor: assessor,
		resolver: assessor.Resolver,
		regional: &regional.Builder{Store: store, Window: regional.DefaultWindow},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.regional.Baselines == nil {
		s.regional.Baselines = baseline.Default()
	}
	s.regional.Now = s.now
	s.started = s.now()
	return s
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method)
	})

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/screenings", s.createScreening)
		r.Post("/screenings/preview", s.previewScreening)
		r.Get("/screenings", s.listScreenings)
		r.Get("/screenings/{id}", s.getScreening)
		r.Post("/diet", s.recommendDiet)
		r.Get("/region", s.resolveRegion)
		r.Post("/chat", s.chat)
	})
	return r
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err, message string) {
	writeJSON(w, status, errorBody{Error: err, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil {
		requestLog(r).Warn().Err(err).Int("status", http.StatusBadRequest).Msg("Could not decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func isClientError(err error) bool {
	return errors.Is(err, context.Canceled)
}

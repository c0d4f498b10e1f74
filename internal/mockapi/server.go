// Package mockapi is an in-memory stand-in for the Status API, used for
// local runs and tests of the sync client.
package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/statusapi"
)

const maxBodyBytes = 1 << 20

// createRequest is the accepted POST body.
type createRequest struct {
	ID        *string  `json:"_id" validate:"omitempty,max=128"`
	State     string   `json:"state" validate:"required,oneof=critical warning normal"`
	Reason    *string  `json:"reason" validate:"omitempty,max=1024"`
	Timeout   *float64 `json:"timeout" validate:"omitempty,gte=0"`
	CreatedAt *string  `json:"createdAt" validate:"omitempty,datetime=2006-01-02T15:04:05.000Z07:00"`
}

type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    []statusapi.Record `json:"data"`
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

// Server holds the global state list.
type Server struct {
	mu      sync.Mutex
	records []statusapi.Record

	token     string
	now       func() time.Time
	log       zerolog.Logger
	validator *validator.Validate
}

type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func New(opts ...Option) *Server {
	s := &Server{
		now:       time.Now,
		log:       zerolog.Nop(),
		validator: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "mockapi").Logger()
	return s
}

// Routes returns the HTTP handler serving /global/.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.authorize)

	r.Get("/global/", s.list)
	r.Post("/global/", s.create)
	r.Delete("/global/", s.clear)
	r.Delete("/global/{id}", s.remove)
	return r
}

// Seed appends records as-is, bypassing validation.
func (s *Server) Seed(records ...statusapi.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Records returns a copy of the stored list.
func (s *Server) Records() []statusapi.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]statusapi.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.Records()})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	now := statusapi.FormatTime(s.now())
	rec := statusapi.Record{
		ID:        req.ID,
		State:     req.State,
		Reason:    req.Reason,
		Timeout:   req.Timeout,
		CreatedAt: req.CreatedAt,
		UpdatedAt: &now,
	}
	if rec.ID == nil || *rec.ID == "" {
		rec.ID = statusapi.Ptr(uuid.NewString())
	}
	if rec.CreatedAt == nil {
		rec.CreatedAt = &now
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.log.Info().Str("id", *rec.ID).Str("state", rec.State).Msg("global state created")
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: []statusapi.Record{rec}})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.records)
	s.records = nil
	s.mu.Unlock()

	s.log.Info().Int("removed", n).Msg("global state cleared")
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: []statusapi.Record{}})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := -1
	for i, rec := range s.records {
		if rec.ID != nil && *rec.ID == id {
			idx = i
			break
		}
	}
	var removed statusapi.Record
	if idx >= 0 {
		removed = s.records[idx]
		s.records = append(s.records[:idx], s.records[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeError(w, http.StatusNotFound, "global state not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: []statusapi.Record{removed}})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return "invalid global state: " + strings.Join(fields, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	var body errorEnvelope
	body.Data.Message = message
	writeJSON(w, status, body)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"bookline/backend/internal/auth"
	"bookline/backend/internal/service/booking"
	"bookline/backend/internal/service/users"
)

// Server exposes the booking and user services over JSON/HTTP.
type Server struct {
	booking *booking.Service
	users   *users.Service
	tokens  *auth.Tokens
	log     *slog.Logger

	requestTimeout time.Duration
}

func NewServer(bookingSvc *booking.Service, userSvc *users.Service, tokens *auth.Tokens, log *slog.Logger, requestTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		booking:        bookingSvc,
		users:          userSvc,
		tokens:         tokens,
		log:            log,
		requestTimeout: requestTimeout,
	}
}

// Handler builds the routing table and wraps it in the shared middleware
// chain. Catalog and slot lookups are public; everything that reads or
// writes appointments requires a token.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/services", s.handleListServices).Methods(http.MethodGet)
	api.HandleFunc("/employees", s.handleListEmployees).Methods(http.MethodGet)
	api.HandleFunc("/available-slots", s.handleAvailableSlots).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}/availability", s.handleListWindows).Methods(http.MethodGet)

	api.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)
	api.Handle("/users/me", s.withAuth(s.handleMe)).Methods(http.MethodGet)

	api.Handle("/appointments", s.withAuth(s.handleListAppointments)).Methods(http.MethodGet)
	api.Handle("/appointments", s.withAuth(s.handleCreateAppointment)).Methods(http.MethodPost)
	api.Handle("/appointments/{id}/status", s.withAuth(s.requireManager(s.handleUpdateStatus))).Methods(http.MethodPatch)
	api.Handle("/employees/{id}/availability", s.withAuth(s.requireManager(s.handleAddWindow))).Methods(http.MethodPost)

	var h http.Handler = r
	h = s.logRequests(h)
	h = withRequestID(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{log: s.log}))(h)
	if s.requestTimeout > 0 {
		h = s.withTimeout(h)
	}
	return h
}

// withTimeout caps every request's context. Handlers surface the expired
// deadline through serverError, so timeouts come back as JSON like every
// other failure.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"request_id", requestIDFrom(r.Context()),
		)
	})
}

type recoveryLogger struct {
	log *slog.Logger
}

func (l *recoveryLogger) Println(v ...any) {
	l.log.Error("panic recovered", "detail", v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/service/users"
)

type userView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "malformed_input")
		return
	}

	u, err := s.users.Register(r.Context(), users.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "malformed_input")
		return
	}

	u, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserView(u)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "unauthorized")
		return
	}
	u, err := s.users.Get(r.Context(), ident.UserID)
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

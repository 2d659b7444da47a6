package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type AuthHandler struct {
	shoppers Shoppers
	timeout  time.Duration
}

func NewAuthHandler(shoppers Shoppers, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		shoppers: shoppers,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type RegisterRequestDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

func newSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		Authenticated: s.Authenticated(),
		User:          s.User,
	}
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := loadShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	sess, err := s.Session.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newSessionResponse(sess))
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := loadShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	sess, err := s.Session.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, newSessionResponse(sess))
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, SessionResponse{})
		return
	}
	s.Session.Logout(ctx)
	respondJSON(w, r, http.StatusOK, newSessionResponse(s.Session.Current()))
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, SessionResponse{})
		return
	}
	respondJSON(w, r, http.StatusOK, newSessionResponse(s.Session.Current()))
}

package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/crm/internal/domain"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/middleware"
)

// Register handles POST /auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.RegisterRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}

	resp, err := h.Auth.Register(r.Context(), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "Email already registered")
	default:
		writeDomainError(w, r, err, notFoundMsg)
	}
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrUnauthorized):
		slog.Debug("login failed", "email", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		writeDomainError(w, r, err, notFoundMsg)
	}
}

type meResponse struct {
	User *user.User `json:"user"`
}

// Me handles GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.CurrentUser(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, notFoundMsg)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: u})
}

// ListUsers handles GET /users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

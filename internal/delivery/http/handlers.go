package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/netgraph/backend/internal/middleware"
	"github.com/netgraph/backend/internal/usecase"
)

type Handler struct {
	authUsecase  *usecase.AuthUsecase
	graphUsecase *usecase.GraphUsecase
	flagUsecase  *usecase.FlagUsecase
	graphPing    GraphPinger
}

func NewHandler(auth *usecase.AuthUsecase, graph *usecase.GraphUsecase, flag *usecase.FlagUsecase, ping GraphPinger) *Handler {
	return &Handler{
		authUsecase:  auth,
		graphUsecase: graph,
		flagUsecase:  flag,
		graphPing:    ping,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// Auth handlers

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	_, tokens, err := h.authUsecase.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	case errors.Is(err, usecase.ErrUserInactive):
		writeError(w, http.StatusForbidden, "User account is inactive")
		return
	case errors.Is(err, usecase.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.authUsecase.Refresh(req.RefreshToken)
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	case errors.Is(err, usecase.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Logout always acknowledges: presenting an unknown or already revoked token
// is treated as already logged out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.authUsecase.Logout(req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	count, err := h.authUsecase.LogoutAll(userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully logged out from all sessions",
		"count":   count,
	})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authUsecase.GetUserByID(userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

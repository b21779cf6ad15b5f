package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/types"
)

// AccountHandler serves the profile, the premium flow and the admin user list.
type AccountHandler struct {
	users *services.UserService
	log   logging.Logger
}

func NewAccountHandler(users *services.UserService, log logging.Logger) *AccountHandler {
	return &AccountHandler{users: users, log: log}
}

// AccountRouter registers account routes. Every route requires a session.
func AccountRouter(r chi.Router, users *services.UserService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewAccountHandler(users, log)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/profile", handler.Profile)
		r.Post("/request-premium", handler.RequestPremium)
		r.With(RequireAdmin).Post("/admin/approve-premium/{userID}", handler.ApprovePremium)
		r.With(RequireAdmin).Get("/admin/users", handler.ListUsers)
	})
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AccountHandler) RequestPremium(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.RequestPremium(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, PremiumResponse{
		Message: "premium request submitted",
		UserID:  user.ID,
		State:   user.PremiumState(),
	})
}

func (h *AccountHandler) ApprovePremium(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID < 1 {
		writeBadRequest(w, "invalid user id")
		return
	}

	user, err := h.users.ApprovePremium(r.Context(), principal(r), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, PremiumResponse{
		Message: "premium approved",
		UserID:  user.ID,
		State:   user.PremiumState(),
	})
}

func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

type PremiumResponse struct {
	Message string             `json:"message"`
	UserID  int                `json:"user_id"`
	State   types.PremiumState `json:"premium_state"`
}

type UserListResponse struct {
	Users []types.UserWithBalance `json:"users"`
}

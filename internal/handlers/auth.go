package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
)

// AuthHandler provides registration and session endpoints.
type AuthHandler struct {
	users *services.UserService
	log   logging.Logger
}

func NewAuthHandler(users *services.UserService, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// AuthRouter registers the unauthenticated session routes.
func AuthRouter(r chi.Router, users *services.UserService, log logging.Logger) {
	handler := NewAuthHandler(users, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/admin-login", handler.AdminLogin)
}

// RequireAuth resolves the bearer token into a principal and stores it in
// the request context. Any failure answers 401.
func RequireAuth(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, auth.ErrTokenMissing.Error())
				return
			}
			p, err := issuer.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, auth.ErrTokenInvalid.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin rejects every principal except the administrator. It must
// run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireAdmin(principal(r)); err != nil {
			writeError(w, statusFor(apperr.KindOf(err)), apperr.KindOf(err), err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register creates an account. Duplicates answer 400 like other bad input.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceErrorStatus(w, r, h.log, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, user.Summary())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}
	passcode := req.Passcode
	if passcode == "" {
		passcode = req.Code
	}

	token, err := h.users.AdminLogin(strings.TrimSpace(passcode))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminLoginResponse{Token: token, IsAdmin: true})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginRequest accepts the passcode as "passcode" or "code".
type AdminLoginRequest struct {
	Passcode string `json:"passcode"`
	Code     string `json:"code"`
}

type AdminLoginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

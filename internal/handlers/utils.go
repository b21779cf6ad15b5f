package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	maxBodyBytes = 1 << 20

	msgInternal    = "internal server error"
	msgUnavailable = "service temporarily unavailable"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ListResponse is a page of items.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInsufficientFunds:
		return http.StatusConflict
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status of err's kind. Unavailable and
// internal failures are logged and replaced by a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	writeServiceErrorStatus(w, r, log, err, 0)
}

// writeServiceErrorStatus is writeServiceError with a fixed status override
// for the conflict kind.
func writeServiceErrorStatus(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, conflictStatus int) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if kind == apperr.KindConflict && conflictStatus != 0 {
		status = conflictStatus
	}

	message := err.Error()
	switch kind {
	case apperr.KindUnavailable:
		log.Warn(r.Context(), "dependency unavailable", "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
		message = msgUnavailable
	case apperr.KindInternal:
		log.Error(r.Context(), "request failed", "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
		message = msgInternal
	}
	writeError(w, status, kind, message)
}

// decodeJSON reads a JSON body of at most maxBodyBytes into dst. An empty
// body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, apperr.KindInvalidArgument, message)
}

// principal returns the principal attached by RequireAuth.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

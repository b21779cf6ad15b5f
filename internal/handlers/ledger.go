package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/types"
)

// LedgerHandler serves top-ups, the caller's ledger and statement exports.
type LedgerHandler struct {
	ledger  *services.LedgerService
	exports *services.ExportService
	log     logging.Logger
}

func NewLedgerHandler(ledger *services.LedgerService, exports *services.ExportService, log logging.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, exports: exports, log: log}
}

func LedgerRouter(
	r chi.Router,
	ledger *services.LedgerService,
	exports *services.ExportService,
	authMiddleware func(http.Handler) http.Handler,
	log logging.Logger,
) {
	handler := NewLedgerHandler(ledger, exports, log)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/topup", handler.TopUp)
		r.Get("/ledger", handler.Entries)
		r.With(RequireAdmin).Post("/admin/ledger/export", handler.Export)
	})
}

func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	entry, err := h.ledger.TopUp(r.Context(), principal(r), req.Amount)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: entry.BalanceAfter, Entry: entry})
}

func (h *LedgerHandler) Entries(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	items, total, err := h.ledger.Entries(r.Context(), principal(r), offset, limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.LedgerEntry]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	var since time.Time
	if s := strings.TrimSpace(req.Since); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	result, err := h.exports.ExportLedger(r.Context(), principal(r), since)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type TopUpRequest struct {
	Amount int64 `json:"amount"`
}

type BalanceResponse struct {
	Balance int64             `json:"balance"`
	Entry   types.LedgerEntry `json:"entry"`
}

type ExportRequest struct {
	Since string `json:"since"`
}

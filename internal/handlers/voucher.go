package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/types"
)

// VoucherHandler serves voucher redemption and the admin voucher registry.
type VoucherHandler struct {
	vouchers *services.VoucherService
	log      logging.Logger
}

func NewVoucherHandler(vouchers *services.VoucherService, log logging.Logger) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, log: log}
}

func VoucherRouter(r chi.Router, vouchers *services.VoucherService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewVoucherHandler(vouchers, log)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/redeem-voucher", handler.Redeem)
		r.With(RequireAdmin).Post("/admin/vouchers", handler.Create)
		r.With(RequireAdmin).Get("/admin/vouchers", handler.List)
	})
}

func (h *VoucherHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	redemption, err := h.vouchers.Redeem(r.Context(), principal(r), req.Code)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RedeemResponse{
		Code:    redemption.Voucher.Code,
		Amount:  redemption.Voucher.Amount,
		Balance: redemption.Entry.BalanceAfter,
	})
}

func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVoucherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	voucher, err := h.vouchers.Create(r.Context(), principal(r), req.Code, req.Amount)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, voucher)
}

func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.vouchers.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, VoucherListResponse{Vouchers: vouchers})
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type RedeemResponse struct {
	Code    string `json:"code"`
	Amount  int64  `json:"amount"`
	Balance int64  `json:"balance"`
}

type CreateVoucherRequest struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

type VoucherListResponse struct {
	Vouchers []types.Voucher `json:"vouchers"`
}

package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
)

// Services groups the use-cases the HTTP surface depends on.
type Services struct {
	Users    *services.UserService
	Ledger   *services.LedgerService
	Vouchers *services.VoucherService
	Chat     *services.ChatService
	Exports  *services.ExportService
}

// Mount registers every API route on r.
func Mount(r chi.Router, svc Services, issuer *auth.Issuer, log logging.Logger) {
	authMiddleware := RequireAuth(issuer)

	r.Get("/healthz", Healthz)
	AuthRouter(r, svc.Users, log)
	AccountRouter(r, svc.Users, authMiddleware, log)
	LedgerRouter(r, svc.Ledger, svc.Exports, authMiddleware, log)
	VoucherRouter(r, svc.Vouchers, authMiddleware, log)
	ChatRouter(r, svc.Chat, authMiddleware, log)
}

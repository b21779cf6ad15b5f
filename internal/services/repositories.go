package services

import (
	"context"
	"time"

	"github.com/memberhub/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.UserWithBalance, error)
	RequestPremium(ctx context.Context, id int) (types.User, error)
	ApprovePremium(ctx context.Context, id int) (types.User, error)
}

// LedgerRepository defines the atomic balance operations. Implementations
// must apply each movement and its ledger entry as one unit.
type LedgerRepository interface {
	Credit(ctx context.Context, userID int, amount int64, cause types.CreditCause, reference string) (types.LedgerEntry, error)
	Debit(ctx context.Context, userID int, amount int64, reference string) (types.LedgerEntry, error)
	Balance(ctx context.Context, userID int) (int64, error)
	Entries(ctx context.Context, userID, offset, limit int) ([]types.LedgerEntry, int, error)
	EachSince(ctx context.Context, since time.Time, fn func(types.LedgerEntry) error) error
}

// VoucherRepository defines persistence operations for vouchers. Redeem
// must consume the voucher and credit the balance atomically.
type VoucherRepository interface {
	Create(ctx context.Context, voucher types.Voucher) (types.Voucher, error)
	List(ctx context.Context) ([]types.Voucher, error)
	Redeem(ctx context.Context, code string, userID int) (types.Redemption, error)
}

// ChatRepository defines persistence operations for chat messages.
type ChatRepository interface {
	Create(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error)
	List(ctx context.Context) ([]types.ChatMessage, error)
	ListVisibleTo(ctx context.Context, userID int) ([]types.ChatMessage, error)
}

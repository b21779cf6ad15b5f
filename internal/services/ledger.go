package services

import (
	"context"
	"fmt"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/types"
)

// LedgerService exposes balance reads and top-ups to users.
type LedgerService struct {
	repo    LedgerRepository
	emitter *events.Emitter
}

func NewLedgerService(repo LedgerRepository, emitter *events.Emitter) *LedgerService {
	return &LedgerService{repo: repo, emitter: emitter}
}

// TopUp credits amount to the caller. Amounts outside the top-up bounds are
// rejected, never clamped.
func (s *LedgerService) TopUp(ctx context.Context, p auth.Principal, amount int64) (types.LedgerEntry, error) {
	caller, err := auth.RequireNonAdmin(p)
	if err != nil {
		return types.LedgerEntry{}, err
	}
	if amount < types.MinTopUpAmount || amount > types.MaxTopUpAmount {
		return types.LedgerEntry{}, fmt.Errorf("%w: amount must be between %d and %d",
			apperr.ErrInvalidArgument, types.MinTopUpAmount, types.MaxTopUpAmount)
	}

	entry, err := s.repo.Credit(ctx, caller.ID, amount, types.CauseTopUp, "")
	if err != nil {
		return types.LedgerEntry{}, err
	}
	s.emitter.Emit(ctx, events.LedgerCredited, entry)
	return entry, nil
}

// Balance returns the caller's balance; zero when nothing was ever credited.
func (s *LedgerService) Balance(ctx context.Context, p auth.Principal) (int64, error) {
	caller, err := auth.RequireNonAdmin(p)
	if err != nil {
		return 0, err
	}
	return s.repo.Balance(ctx, caller.ID)
}

// Entries returns one page of the caller's ledger, newest first.
func (s *LedgerService) Entries(ctx context.Context, p auth.Principal, offset, limit int) ([]types.LedgerEntry, int, error) {
	caller, err := auth.RequireNonAdmin(p)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.Entries(ctx, caller.ID, offset, limit)
}

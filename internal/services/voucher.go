package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/types"
)

// VoucherService manages voucher creation and redemption.
type VoucherService struct {
	repo    VoucherRepository
	emitter *events.Emitter
}

func NewVoucherService(repo VoucherRepository, emitter *events.Emitter) *VoucherService {
	return &VoucherService{repo: repo, emitter: emitter}
}

// Create registers a new voucher. Admin only.
func (s *VoucherService) Create(ctx context.Context, p auth.Principal, code string, amount int64) (types.Voucher, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return types.Voucher{}, err
	}
	code, err := normalizeCode(code)
	if err != nil {
		return types.Voucher{}, err
	}
	if amount <= 0 {
		return types.Voucher{}, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidArgument)
	}

	voucher, err := s.repo.Create(ctx, types.Voucher{Code: code, Amount: amount})
	if err != nil {
		return types.Voucher{}, err
	}
	s.emitter.Emit(ctx, events.VoucherCreated, voucher)
	return voucher, nil
}

// List returns all vouchers. Admin only.
func (s *VoucherService) List(ctx context.Context, p auth.Principal) ([]types.Voucher, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Redeem consumes code for the caller and credits its amount. An unknown
// code and an already used one both fail with apperr.ErrNotFound.
func (s *VoucherService) Redeem(ctx context.Context, p auth.Principal, code string) (types.Redemption, error) {
	caller, err := auth.RequireNonAdmin(p)
	if err != nil {
		return types.Redemption{}, err
	}
	code, err = normalizeCode(code)
	if err != nil {
		return types.Redemption{}, err
	}

	redemption, err := s.repo.Redeem(ctx, code, caller.ID)
	if err != nil {
		return types.Redemption{}, err
	}
	s.emitter.Emit(ctx, events.VoucherRedeemed, redemption)
	s.emitter.Emit(ctx, events.LedgerCredited, redemption.Entry)
	return redemption, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: voucher code is required", apperr.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(code) > types.MaxVoucherCodeLength {
		return "", fmt.Errorf("%w: voucher code longer than %d characters", apperr.ErrInvalidArgument, types.MaxVoucherCodeLength)
	}
	return code, nil
}

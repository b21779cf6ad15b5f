package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/apiserver/types"
)

const voucherColumns = `id, code, amount, is_used, used_by, used_at, created_at`

// VoucherRepository handles persistence and redemption of vouchers.
type VoucherRepository struct {
	db      *sql.DB
	timeout queryTimeout
	newID   func() string
}

func NewVoucherRepository(db *sql.DB, timeout time.Duration) *VoucherRepository {
	return &VoucherRepository{db: db, timeout: queryTimeout(timeout), newID: uuid.NewString}
}

func scanVoucher(row rowScanner) (types.Voucher, error) {
	var voucher types.Voucher
	var usedBy sql.NullInt64
	var usedAt sql.NullTime
	if err := row.Scan(
		&voucher.ID,
		&voucher.Code,
		&voucher.Amount,
		&voucher.Used,
		&usedBy,
		&usedAt,
		&voucher.CreatedAt,
	); err != nil {
		return types.Voucher{}, err
	}
	if usedBy.Valid {
		id := int(usedBy.Int64)
		voucher.RedeemedBy = &id
	}
	if usedAt.Valid {
		at := usedAt.Time
		voucher.RedeemedAt = &at
	}
	return voucher, nil
}

func (r *VoucherRepository) Create(ctx context.Context, voucher types.Voucher) (types.Voucher, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	const query = `
		INSERT INTO vouchers (code, amount)
		VALUES ($1, $2)
		RETURNING ` + voucherColumns
	created, err := scanVoucher(r.db.QueryRowContext(ctx, query, voucher.Code, voucher.Amount))
	if err != nil {
		return types.Voucher{}, translate("create voucher", err)
	}
	return created, nil
}

// List returns all vouchers, newest first.
func (r *VoucherRepository) List(ctx context.Context) ([]types.Voucher, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	const query = `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate("list vouchers", err)
	}
	defer rows.Close()

	vouchers := make([]types.Voucher, 0)
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, translate("list vouchers", err)
		}
		vouchers = append(vouchers, voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list vouchers", err)
	}
	return vouchers, nil
}

// Redeem consumes the voucher and credits its amount to userID in one
// transaction. The conditional update takes the row lock, so a concurrent
// redeemer of the same code waits and then matches no row.
func (r *VoucherRepository) Redeem(ctx context.Context, code string, userID int) (types.Redemption, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	var redemption types.Redemption
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		const consume = `
			UPDATE vouchers
			SET is_used = TRUE, used_by = $2, used_at = NOW()
			WHERE code = $1 AND is_used = FALSE
			RETURNING ` + voucherColumns
		voucher, err := scanVoucher(tx.QueryRowContext(ctx, consume, code, userID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: invalid or already used code", ErrNotFound)
			}
			return translate("consume voucher", err)
		}

		entry, err := credit(ctx, tx, r.newID(), userID, voucher.Amount, types.CauseVoucher, voucher.Code)
		if err != nil {
			return err
		}
		redemption = types.Redemption{Voucher: voucher, Entry: entry}
		return nil
	})
	if err != nil {
		return types.Redemption{}, err
	}
	return redemption, nil
}

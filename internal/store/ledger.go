package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

// LedgerRepository owns user balances and the entries that explain them.
// Every balance change happens in one transaction with its entry.
type LedgerRepository struct {
	db      *sql.DB
	timeout queryTimeout
	newID   func() string
}

func NewLedgerRepository(db *sql.DB, timeout time.Duration) *LedgerRepository {
	return &LedgerRepository{db: db, timeout: queryTimeout(timeout), newID: uuid.NewString}
}

// Credit adds amount to the user's balance, creating the balance record
// when it is missing.
func (r *LedgerRepository) Credit(ctx context.Context, userID int, amount int64, cause types.CreditCause, reference string) (types.LedgerEntry, error) {
	if amount <= 0 {
		return types.LedgerEntry{}, fmt.Errorf("%w: credit amount must be positive", apperr.ErrInvalidArgument)
	}

	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	var entry types.LedgerEntry
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		var err error
		entry, err = credit(ctx, tx, r.newID(), userID, amount, cause, reference)
		return err
	})
	if err != nil {
		return types.LedgerEntry{}, err
	}
	return entry, nil
}

// Debit subtracts amount from the user's balance. It fails with
// apperr.ErrInsufficientFunds instead of letting the balance go negative.
func (r *LedgerRepository) Debit(ctx context.Context, userID int, amount int64, reference string) (types.LedgerEntry, error) {
	if amount <= 0 {
		return types.LedgerEntry{}, fmt.Errorf("%w: debit amount must be positive", apperr.ErrInvalidArgument)
	}

	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	var entry types.LedgerEntry
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		const query = `
			UPDATE user_balances
			SET balance = balance - $2, updated_at = NOW()
			WHERE user_id = $1 AND balance >= $2
			RETURNING balance`
		var balance int64
		if err := tx.QueryRowContext(ctx, query, userID, amount).Scan(&balance); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: balance is lower than %d", apperr.ErrInsufficientFunds, amount)
			}
			return translate("debit balance", err)
		}

		var err error
		entry, err = insertEntry(ctx, tx, types.LedgerEntry{
			ID:           r.newID(),
			UserID:       userID,
			Amount:       -amount,
			Cause:        types.CauseDebit,
			Reference:    reference,
			BalanceAfter: balance,
		})
		return err
	})
	if err != nil {
		return types.LedgerEntry{}, err
	}
	return entry, nil
}

// Balance returns the user's balance, or zero when no record exists.
func (r *LedgerRepository) Balance(ctx context.Context, userID int) (int64, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	const query = `SELECT balance FROM user_balances WHERE user_id = $1`
	var balance int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, translate("get balance", err)
	}
	return balance, nil
}

// Entries returns one page of the user's entries, newest first, and the
// user's total entry count.
func (r *LedgerRepository) Entries(ctx context.Context, userID, offset, limit int) ([]types.LedgerEntry, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	const countQuery = `SELECT COUNT(1) FROM ledger_entries WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, translate("count ledger entries", err)
	}

	const listQuery = `
		SELECT id, user_id, amount, cause, reference, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, offset, limit)
	if err != nil {
		return nil, 0, translate("list ledger entries", err)
	}
	defer rows.Close()

	entries := make([]types.LedgerEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, translate("list ledger entries", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate("list ledger entries", err)
	}
	return entries, total, nil
}

// EachSince calls fn for every entry created at or after since, oldest
// first. It stops at the first error fn returns.
func (r *LedgerRepository) EachSince(ctx context.Context, since time.Time, fn func(types.LedgerEntry) error) error {
	const query = `
		SELECT id, user_id, amount, cause, reference, balance_after, created_at
		FROM ledger_entries
		WHERE created_at >= $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return translate("scan ledger", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return translate("scan ledger", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return translate("scan ledger", rows.Err())
}

// credit performs the atomic upsert-increment on tx and records the entry.
func credit(ctx context.Context, tx DBTX, id string, userID int, amount int64, cause types.CreditCause, reference string) (types.LedgerEntry, error) {
	const query = `
		INSERT INTO user_balances (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = user_balances.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance`
	var balance int64
	if err := tx.QueryRowContext(ctx, query, userID, amount).Scan(&balance); err != nil {
		return types.LedgerEntry{}, translate("credit balance", err)
	}

	return insertEntry(ctx, tx, types.LedgerEntry{
		ID:           id,
		UserID:       userID,
		Amount:       amount,
		Cause:        cause,
		Reference:    reference,
		BalanceAfter: balance,
	})
}

func insertEntry(ctx context.Context, tx DBTX, entry types.LedgerEntry) (types.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (id, user_id, amount, cause, reference, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	if err := tx.QueryRowContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Amount,
		string(entry.Cause),
		entry.Reference,
		entry.BalanceAfter,
	).Scan(&entry.CreatedAt); err != nil {
		return types.LedgerEntry{}, translate("insert ledger entry", err)
	}
	return entry, nil
}

func scanEntry(row rowScanner) (types.LedgerEntry, error) {
	var entry types.LedgerEntry
	var cause string
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Amount,
		&cause,
		&entry.Reference,
		&entry.BalanceAfter,
		&entry.CreatedAt,
	)
	entry.Cause = types.CreditCause(cause)
	return entry, err
}

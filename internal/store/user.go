package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

const userColumns = `id, username, email, password_hash, is_premium, premium_requested, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db      *sql.DB
	timeout queryTimeout
}

func NewUserRepository(db *sql.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: queryTimeout(timeout)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (types.User, error) {
	var user types.User
	dest := append([]any{
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsPremium,
		&user.PremiumRequested,
		&user.CreatedAt,
		&user.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	return r.getByID(ctx, r.db, id)
}

func (r *UserRepository) getByID(ctx context.Context, db DBTX, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return types.User{}, translate("get user", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, fmt.Errorf("%w: no user with that email", ErrNotFound)
		}
		return types.User{}, translate("get user by email", err)
	}
	return user, nil
}

// Create inserts the user together with its zero balance record.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		const insertUser = `
			INSERT INTO users (username, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id, is_premium, premium_requested, created_at, updated_at`
		if err := tx.QueryRowContext(ctx, insertUser, user.Username, user.Email, user.PasswordHash).Scan(
			&user.ID,
			&user.IsPremium,
			&user.PremiumRequested,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return translate("create user", err)
		}

		const insertBalance = `INSERT INTO user_balances (user_id) VALUES ($1)`
		if _, err := tx.ExecContext(ctx, insertBalance, user.ID); err != nil {
			return translate("create balance", err)
		}
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// List returns every user with the current balance, newest first.
func (r *UserRepository) List(ctx context.Context) ([]types.UserWithBalance, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	const query = `
		SELECT u.id, u.username, u.email, u.password_hash, u.is_premium, u.premium_requested,
		       u.created_at, u.updated_at, COALESCE(b.balance, 0)
		FROM users u
		LEFT JOIN user_balances b ON b.user_id = u.id
		ORDER BY u.created_at DESC, u.id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	users := make([]types.UserWithBalance, 0)
	for rows.Next() {
		var balance int64
		user, err := scanUser(rows, &balance)
		if err != nil {
			return nil, translate("list users", err)
		}
		users = append(users, types.UserWithBalance{User: user, Balance: balance})
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

// RequestPremium moves the user from none to requested.
func (r *UserRepository) RequestPremium(ctx context.Context, id int) (types.User, error) {
	const query = `
		UPDATE users
		SET premium_requested = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_premium AND NOT premium_requested
		RETURNING ` + userColumns
	return r.transition(ctx, id, query, "request premium", func(u types.User) error {
		if u.IsPremium {
			return fmt.Errorf("%w: user is already premium", apperr.ErrConflict)
		}
		return fmt.Errorf("%w: premium already requested", apperr.ErrConflict)
	})
}

// ApprovePremium moves the user from requested to approved.
func (r *UserRepository) ApprovePremium(ctx context.Context, id int) (types.User, error) {
	const query = `
		UPDATE users
		SET is_premium = TRUE, premium_requested = FALSE, updated_at = NOW()
		WHERE id = $1 AND premium_requested AND NOT is_premium
		RETURNING ` + userColumns
	return r.transition(ctx, id, query, "approve premium", func(u types.User) error {
		if u.IsPremium {
			return fmt.Errorf("%w: user is already premium", apperr.ErrConflict)
		}
		return fmt.Errorf("%w: no pending premium request", apperr.ErrConflict)
	})
}

// transition applies a guarded premium state update. When the guard does not
// match, the current row decides between not found and conflict.
func (r *UserRepository) transition(ctx context.Context, id int, query, op string, rejected func(types.User) error) (types.User, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	var user types.User
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		var err error
		user, err = scanUser(tx.QueryRowContext(ctx, query, id))
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return translate(op, err)
		}
		current, err := r.getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		return rejected(current)
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

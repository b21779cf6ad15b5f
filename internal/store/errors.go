package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/memberhub/apiserver/internal/apperr"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = apperr.ErrNotFound

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
	pqCheckViolation      = pq.ErrorCode("23514")

	balanceCheckConstraint = "user_balances_balance_check"
)

var conflictMessages = map[string]string{
	"users_email_key":    "email already registered",
	"users_username_key": "username already taken",
	"vouchers_code_key":  "voucher code already exists",
}

// translate maps driver failures onto the apperr taxonomy. Only the
// unavailable and internal paths keep the driver error in the chain, so
// client-facing messages never carry driver text.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			msg, ok := conflictMessages[pqErr.Constraint]
			if !ok {
				msg = "record already exists"
			}
			return fmt.Errorf("%w: %s", apperr.ErrConflict, msg)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: referenced record does not exist", apperr.ErrNotFound)
		case pqCheckViolation:
			if pqErr.Constraint == balanceCheckConstraint {
				return fmt.Errorf("%w: balance would become negative", apperr.ErrInsufficientFunds)
			}
			return fmt.Errorf("%w: value rejected by %s", apperr.ErrInvalidArgument, op)
		}
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return fmt.Errorf("%w: %s: %w", apperr.ErrUnavailable, op, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %w", apperr.ErrUnavailable, op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

package types

import "time"

// Top-up bounds in currency minor units, inclusive.
const (
	MinTopUpAmount int64 = 5_000
	MaxTopUpAmount int64 = 1_000_000
)

// CreditCause names what produced a ledger movement.
type CreditCause string

const (
	CauseTopUp   CreditCause = "topup"
	CauseVoucher CreditCause = "voucher"
	CauseDebit   CreditCause = "debit"
)

// Balance is the single balance record of a user.
type Balance struct {
	UserID    int       `json:"user_id" db:"user_id"`
	Amount    int64     `json:"balance" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LedgerEntry records exactly one balance movement and its cause.
// Credits carry a positive Amount, debits a negative one.
type LedgerEntry struct {
	ID           string      `json:"id" db:"id"`
	UserID       int         `json:"user_id" db:"user_id"`
	Amount       int64       `json:"amount" db:"amount"`
	Cause        CreditCause `json:"cause" db:"cause"`
	Reference    string      `json:"reference,omitempty" db:"reference"`
	BalanceAfter int64       `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

package types

import "time"

// MaxVoucherCodeLength matches the width of the code column.
const MaxVoucherCodeLength = 50

// Voucher is a single-use code redeemable for a fixed credit.
type Voucher struct {
	ID         int        `json:"id" db:"id"`
	Code       string     `json:"code" db:"code"`
	Amount     int64      `json:"amount" db:"amount"`
	Used       bool       `json:"is_used" db:"is_used"`
	RedeemedBy *int       `json:"used_by" db:"used_by"`
	RedeemedAt *time.Time `json:"used_at" db:"used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Redemption is the outcome of a successful voucher redemption.
type Redemption struct {
	Voucher Voucher     `json:"voucher"`
	Entry   LedgerEntry `json:"entry"`
}

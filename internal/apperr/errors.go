// Package apperr defines the error kinds shared by every layer. Callers wrap
// them with fmt.Errorf("%w: ...") and match with errors.Is.
package apperr

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnavailable       = errors.New("unavailable")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Kind names are part of the HTTP error body and must stay stable.
const (
	KindUnauthorized      = "unauthorized"
	KindForbidden         = "forbidden"
	KindNotFound          = "not_found"
	KindConflict          = "conflict"
	KindInvalidArgument   = "invalid_argument"
	KindUnavailable       = "unavailable"
	KindInsufficientFunds = "insufficient_funds"
	KindInternal          = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrUnavailable, KindUnavailable},
	{ErrInsufficientFunds, KindInsufficientFunds},
}

// KindOf returns the kind of the first taxonomy error found in err's chain,
// or KindInternal.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

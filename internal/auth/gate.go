package auth

import (
	"fmt"

	"github.com/memberhub/apiserver/internal/apperr"
)

// RequireAdmin fails with Forbidden unless p is the administrator.
func RequireAdmin(p Principal) error {
	if p == nil {
		return fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	if !IsAdmin(p) {
		return fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	return nil
}

// RequireNonAdmin fails with Forbidden when p is the administrator and
// otherwise returns the user variant.
func RequireNonAdmin(p Principal) (User, error) {
	switch v := p.(type) {
	case User:
		return v, nil
	case Admin:
		return User{}, fmt.Errorf("%w: not available to the administrator", apperr.ErrForbidden)
	default:
		return User{}, fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
}

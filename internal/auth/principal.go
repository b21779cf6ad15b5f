// Package auth issues and verifies session tokens and resolves the Principal
// attached to each request.
package auth

import "context"

// Principal is the authenticated identity behind a request. It is either a
// User or the Admin; no other implementations exist.
type Principal interface {
	principal()
}

// User is a principal backed by a row in the credential store.
type User struct {
	ID       int
	Username string
	Email    string
}

// Admin is the synthetic administrator. It owns no store row, balance, or
// voucher redemption.
type Admin struct{}

func (User) principal()  {}
func (Admin) principal() {}

// IsAdmin reports whether p is the administrator.
func IsAdmin(p Principal) bool {
	_, ok := p.(Admin)
	return ok
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p != nil
}

package types

import "time"

// User represents a member account.
// It contains identity, premium state, and audit metadata.
type User struct {
	// ID is the unique identifier of the user. It is never zero.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique, lower-cased email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsPremium is set once an administrator approves a premium request.
	IsPremium bool `json:"is_premium" db:"is_premium"`

	// PremiumRequested is set while a premium request awaits approval.
	PremiumRequested bool `json:"premium_requested" db:"premium_requested"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PremiumState is the position of a user in the premium request flow.
type PremiumState string

const (
	PremiumNone      PremiumState = "none"
	PremiumRequested PremiumState = "requested"
	PremiumApproved  PremiumState = "approved"
)

// PremiumState derives the flow state from the stored flags.
func (u User) PremiumState() PremiumState {
	switch {
	case u.IsPremium:
		return PremiumApproved
	case u.PremiumRequested:
		return PremiumRequested
	default:
		return PremiumNone
	}
}

// UserSummary is the public view of a user returned by register and login.
type UserSummary struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, IsPremium: u.IsPremium}
}

// UserWithBalance pairs a user with the current ledger balance.
type UserWithBalance struct {
	User
	Balance int64 `json:"balance"`
}

// Profile is what GET /profile returns. The administrator has no user row
// and is reported with ID 0.
type Profile struct {
	ID               int       `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email,omitempty"`
	IsPremium        bool      `json:"is_premium"`
	PremiumRequested bool      `json:"premium_requested"`
	Balance          int64     `json:"balance"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
}

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

// SessionTTL is the fixed validity window of every session token.
const SessionTTL = 24 * time.Hour

const adminSubject = "0"

var (
	ErrTokenMissing    = fmt.Errorf("%w: missing token", apperr.ErrUnauthorized)
	ErrTokenInvalid    = fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)
	ErrInvalidPasscode = fmt.Errorf("%w: invalid admin passcode", apperr.ErrUnauthorized)
)

// Claims is the signed claim set of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// Issuer mints and verifies HS256 session tokens. Verification is stateless:
// there is no revocation list, so a token stays valid until it expires.
type Issuer struct {
	secret         []byte
	issuer         string
	ttl            time.Duration
	passcodeDigest [sha256.Size]byte
	adminEnabled   bool
	now            func() time.Time
}

// NewIssuer creates an Issuer. An empty adminPasscode disables admin sessions.
func NewIssuer(secret, issuer, adminPasscode string) *Issuer {
	return &Issuer{
		secret:         []byte(secret),
		issuer:         issuer,
		ttl:            SessionTTL,
		passcodeDigest: sha256.Sum256([]byte(adminPasscode)),
		adminEnabled:   adminPasscode != "",
		now:            time.Now,
	}
}

// IssueUser encodes a user session for u.
func (i *Issuer) IssueUser(u types.User) (string, error) {
	if u.ID < 1 {
		return "", errors.New("cannot issue a session for an unsaved user")
	}
	return i.sign(Claims{
		RegisteredClaims: i.registered(strconv.Itoa(u.ID)),
		Username:         u.Username,
		Email:            u.Email,
	})
}

// IssueAdmin encodes an admin session if passcode matches the configured one
// exactly. The comparison runs in constant time over digests so neither the
// length nor a shared prefix is observable.
func (i *Issuer) IssueAdmin(passcode string) (string, error) {
	candidate := sha256.Sum256([]byte(passcode))
	if !i.adminEnabled || subtle.ConstantTimeCompare(candidate[:], i.passcodeDigest[:]) != 1 {
		return "", ErrInvalidPasscode
	}
	return i.sign(Claims{
		RegisteredClaims: i.registered(adminSubject),
		Username:         "admin",
		IsAdmin:          true,
	})
}

// Verify checks the signature, issuer and expiry of tokenString and returns
// the principal it encodes.
func (i *Issuer) Verify(tokenString string) (Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.IsAdmin {
		if claims.Subject != adminSubject {
			return nil, ErrTokenInvalid
		}
		return Admin{}, nil
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id < 1 {
		return nil, ErrTokenInvalid
	}
	return User{ID: id, Username: claims.Username, Email: claims.Email}, nil
}

func (i *Issuer) registered(subject string) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

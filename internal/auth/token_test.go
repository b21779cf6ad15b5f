package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

func newTestIssuer() *Issuer {
	return NewIssuer("super-secret", "memberhub-test", "011090")
}

func TestIssueUser_RoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	user := types.User{ID: 42, Username: "alice", Email: "alice@x.com"}

	tok, err := iss.IssueUser(user)
	if err != nil {
		t.Fatalf("IssueUser error: %v", err)
	}

	p, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	got, ok := p.(User)
	if !ok {
		t.Fatalf("expected User principal, got %T", p)
	}
	want := User{ID: 42, Username: "alice", Email: "alice@x.com"}
	if got != want {
		t.Fatalf("principal mismatch: got %+v want %+v", got, want)
	}
	if IsAdmin(p) {
		t.Fatal("user token must never verify as admin")
	}
}

func TestIssueUser_RejectsUnsavedUser(t *testing.T) {
	t.Parallel()

	if _, err := newTestIssuer().IssueUser(types.User{Username: "ghost"}); err == nil {
		t.Fatal("expected error for user without id")
	}
}

func TestIssueAdmin(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()

	for _, bad := range []string{"", "011091", "01109", "0110900", " 011090"} {
		if _, err := iss.IssueAdmin(bad); !errors.Is(err, apperr.ErrUnauthorized) {
			t.Fatalf("passcode %q: expected unauthorized, got %v", bad, err)
		}
	}

	tok, err := iss.IssueAdmin("011090")
	if err != nil {
		t.Fatalf("IssueAdmin error: %v", err)
	}
	p, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !IsAdmin(p) {
		t.Fatalf("expected admin principal, got %T", p)
	}
}

func TestIssueAdmin_DisabledWithoutPasscode(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("secret", "memberhub", "")
	if _, err := iss.IssueAdmin(""); !errors.Is(err, ErrInvalidPasscode) {
		t.Fatalf("expected ErrInvalidPasscode, got %v", err)
	}
}

func TestVerify_Missing(t *testing.T) {
	t.Parallel()

	if _, err := newTestIssuer().Verify("  "); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	iss.now = func() time.Time { return time.Now().Add(-SessionTTL - time.Minute) }
	tok, err := iss.IssueUser(types.User{ID: 1, Username: "u"})
	if err != nil {
		t.Fatalf("IssueUser error: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestVerify_StillValidJustBeforeExpiry(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	iss.now = func() time.Time { return time.Now().Add(-SessionTTL + time.Minute) }
	tok, err := iss.IssueUser(types.User{ID: 1, Username: "u"})
	if err != nil {
		t.Fatalf("IssueUser error: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(tok); err != nil {
		t.Fatalf("token inside the window should verify: %v", err)
	}
}

func TestVerify_WrongSecretOrIssuer(t *testing.T) {
	t.Parallel()

	tok, err := newTestIssuer().IssueUser(types.User{ID: 5})
	if err != nil {
		t.Fatalf("IssueUser error: %v", err)
	}

	if _, err := NewIssuer("other-secret", "memberhub-test", "x").Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := NewIssuer("super-secret", "someone-else", "x").Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong issuer: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := newTestIssuer().Verify(tok + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("tampered: expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_RejectsInconsistentClaims(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	cases := map[string]Claims{
		"admin flag on user subject": {RegisteredClaims: iss.registered("7"), IsAdmin: true},
		"user claims on admin id":    {RegisteredClaims: iss.registered(adminSubject)},
		"non-numeric subject":        {RegisteredClaims: iss.registered("abc")},
	}
	for name, claims := range cases {
		tok, err := iss.sign(claims)
		if err != nil {
			t.Fatalf("%s: sign error: %v", name, err)
		}
		if _, err := iss.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	claims := Claims{RegisteredClaims: iss.registered("1")}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := iss.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxUsernameLength = 50
	maxEmailLength    = 100

	adminUsername = "admin"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is a freshly issued token and the user it belongs to.
type Session struct {
	Token string            `json:"token"`
	User  types.UserSummary `json:"user"`
}

// UserService encapsulates account use-cases: registration, login, profile
// and the premium request flow.
type UserService struct {
	repo     UserRepository
	ledger   LedgerRepository
	issuer   *auth.Issuer
	emitter  *events.Emitter
	hashCost int
}

func NewUserService(repo UserRepository, ledger LedgerRepository, issuer *auth.Issuer, emitter *events.Emitter) *UserService {
	return &UserService{
		repo:     repo,
		ledger:   ledger,
		issuer:   issuer,
		emitter:  emitter,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an account with a zero balance.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: username, email and password are required", apperr.ErrInvalidArgument)
	}
	if len(username) > maxUsernameLength || len(email) > maxEmailLength {
		return types.User{}, fmt.Errorf("%w: username or email too long", apperr.ErrInvalidArgument)
	}
	if !strings.Contains(email, "@") {
		return types.User{}, fmt.Errorf("%w: invalid email address", apperr.ErrInvalidArgument)
	}
	if len(in.Password) < minPasswordLength {
		return types.User{}, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidArgument, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return types.User{}, err
	}

	s.emitter.Emit(ctx, events.UserRegistered, user.Summary())
	return user, nil
}

// Login checks the password and issues a user session. Unknown email and
// wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", apperr.ErrInvalidArgument)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, errInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, errInvalidCredentials
	}

	token, err := s.issuer.IssueUser(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	return Session{Token: token, User: user.Summary()}, nil
}

// AdminLogin exchanges the admin passcode for an admin session.
func (s *UserService) AdminLogin(passcode string) (string, error) {
	return s.issuer.IssueAdmin(passcode)
}

// Profile returns the caller's profile and balance. The administrator gets
// a synthetic profile.
func (s *UserService) Profile(ctx context.Context, p auth.Principal) (types.Profile, error) {
	switch v := p.(type) {
	case auth.Admin:
		return types.Profile{ID: 0, Username: adminUsername, IsAdmin: true}, nil
	case auth.User:
		user, err := s.repo.GetByID(ctx, v.ID)
		if err != nil {
			return types.Profile{}, err
		}
		balance, err := s.ledger.Balance(ctx, user.ID)
		if err != nil {
			return types.Profile{}, err
		}
		return types.Profile{
			ID:               user.ID,
			Username:         user.Username,
			Email:            user.Email,
			IsPremium:        user.IsPremium,
			PremiumRequested: user.PremiumRequested,
			Balance:          balance,
			CreatedAt:        user.CreatedAt,
		}, nil
	default:
		return types.Profile{}, fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
}

// List returns every user with balance. Admin only.
func (s *UserService) List(ctx context.Context, p auth.Principal) ([]types.UserWithBalance, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// RequestPremium moves the caller from none to requested.
func (s *UserService) RequestPremium(ctx context.Context, p auth.Principal) (types.User, error) {
	caller, err := auth.RequireNonAdmin(p)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.repo.RequestPremium(ctx, caller.ID)
	if err != nil {
		return types.User{}, err
	}
	s.emitter.Emit(ctx, events.PremiumRequested, user.Summary())
	return user, nil
}

// ApprovePremium moves userID from requested to approved. Admin only.
func (s *UserService) ApprovePremium(ctx context.Context, p auth.Principal, userID int) (types.User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return types.User{}, err
	}
	if userID < 1 {
		return types.User{}, fmt.Errorf("%w: invalid user id", apperr.ErrInvalidArgument)
	}
	user, err := s.repo.ApprovePremium(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	s.emitter.Emit(ctx, events.PremiumApproved, user.Summary())
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

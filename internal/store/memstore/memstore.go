// Package memstore keeps every repository in process memory behind one
// mutex. It backs DB_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

// DB is the shared state of the in-memory repositories.
type DB struct {
	mu  sync.Mutex
	now func() time.Time

	users    []types.User
	balances map[int]types.Balance
	entries  []types.LedgerEntry
	vouchers []types.Voucher
	messages []types.ChatMessage
}

func New() *DB {
	return &DB{
		now:      time.Now,
		balances: make(map[int]types.Balance),
	}
}

func (db *DB) Users() *Users       { return &Users{db: db} }
func (db *DB) Ledger() *Ledger     { return &Ledger{db: db} }
func (db *DB) Vouchers() *Vouchers { return &Vouchers{db: db} }
func (db *DB) Chat() *Chat         { return &Chat{db: db} }

func (db *DB) userIndex(id int) int {
	if id < 1 || id > len(db.users) {
		return -1
	}
	return id - 1
}

// credit must be called with mu held.
func (db *DB) credit(userID int, amount int64, cause types.CreditCause, reference string) (types.LedgerEntry, error) {
	if db.userIndex(userID) < 0 {
		return types.LedgerEntry{}, fmt.Errorf("%w: referenced record does not exist", apperr.ErrNotFound)
	}
	now := db.now()
	balance := db.balances[userID]
	balance.UserID = userID
	balance.Amount += amount
	balance.UpdatedAt = now
	db.balances[userID] = balance

	entry := types.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		Cause:        cause,
		Reference:    reference,
		BalanceAfter: balance.Amount,
		CreatedAt:    now,
	}
	db.entries = append(db.entries, entry)
	return entry, nil
}

// Users is the in-memory user repository.
type Users struct {
	db *DB
}

func (r *Users) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return types.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		if u.Username == user.Username {
			return types.User{}, fmt.Errorf("%w: username already taken", apperr.ErrConflict)
		}
	}

	now := r.db.now()
	user.ID = len(r.db.users) + 1
	user.IsPremium = false
	user.PremiumRequested = false
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users = append(r.db.users, user)
	r.db.balances[user.ID] = types.Balance{UserID: user.ID, UpdatedAt: now}
	return user, nil
}

func (r *Users) GetByID(_ context.Context, id int) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.userIndex(id)
	if i < 0 {
		return types.User{}, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	return r.db.users[i], nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, fmt.Errorf("%w: no user with that email", apperr.ErrNotFound)
}

func (r *Users) List(_ context.Context) ([]types.UserWithBalance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]types.UserWithBalance, 0, len(r.db.users))
	for i := len(r.db.users) - 1; i >= 0; i-- {
		u := r.db.users[i]
		out = append(out, types.UserWithBalance{User: u, Balance: r.db.balances[u.ID].Amount})
	}
	return out, nil
}

func (r *Users) RequestPremium(_ context.Context, id int) (types.User, error) {
	return r.transition(id, func(u *types.User) error {
		switch u.PremiumState() {
		case types.PremiumApproved:
			return fmt.Errorf("%w: user is already premium", apperr.ErrConflict)
		case types.PremiumRequested:
			return fmt.Errorf("%w: premium already requested", apperr.ErrConflict)
		}
		u.PremiumRequested = true
		return nil
	})
}

func (r *Users) ApprovePremium(_ context.Context, id int) (types.User, error) {
	return r.transition(id, func(u *types.User) error {
		switch u.PremiumState() {
		case types.PremiumApproved:
			return fmt.Errorf("%w: user is already premium", apperr.ErrConflict)
		case types.PremiumNone:
			return fmt.Errorf("%w: no pending premium request", apperr.ErrConflict)
		}
		u.IsPremium = true
		u.PremiumRequested = false
		return nil
	})
}

func (r *Users) transition(id int, apply func(*types.User) error) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.userIndex(id)
	if i < 0 {
		return types.User{}, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	user := r.db.users[i]
	if err := apply(&user); err != nil {
		return types.User{}, err
	}
	user.UpdatedAt = r.db.now()
	r.db.users[i] = user
	return user, nil
}

// Ledger is the in-memory balance ledger.
type Ledger struct {
	db *DB
}

func (r *Ledger) Credit(_ context.Context, userID int, amount int64, cause types.CreditCause, reference string) (types.LedgerEntry, error) {
	if amount <= 0 {
		return types.LedgerEntry{}, fmt.Errorf("%w: credit amount must be positive", apperr.ErrInvalidArgument)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.credit(userID, amount, cause, reference)
}

func (r *Ledger) Debit(_ context.Context, userID int, amount int64, reference string) (types.LedgerEntry, error) {
	if amount <= 0 {
		return types.LedgerEntry{}, fmt.Errorf("%w: debit amount must be positive", apperr.ErrInvalidArgument)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	balance, ok := r.db.balances[userID]
	if !ok || balance.Amount < amount {
		return types.LedgerEntry{}, fmt.Errorf("%w: balance is lower than %d", apperr.ErrInsufficientFunds, amount)
	}
	now := r.db.now()
	balance.Amount -= amount
	balance.UpdatedAt = now
	r.db.balances[userID] = balance

	entry := types.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       -amount,
		Cause:        types.CauseDebit,
		Reference:    reference,
		BalanceAfter: balance.Amount,
		CreatedAt:    now,
	}
	r.db.entries = append(r.db.entries, entry)
	return entry, nil
}

func (r *Ledger) Balance(_ context.Context, userID int) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.balances[userID].Amount, nil
}

func (r *Ledger) Entries(_ context.Context, userID, offset, limit int) ([]types.LedgerEntry, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var own []types.LedgerEntry
	for i := len(r.db.entries) - 1; i >= 0; i-- {
		if r.db.entries[i].UserID == userID {
			own = append(own, r.db.entries[i])
		}
	}
	total := len(own)
	if offset >= total {
		return []types.LedgerEntry{}, total, nil
	}
	end := min(offset+limit, total)
	return append([]types.LedgerEntry(nil), own[offset:end]...), total, nil
}

func (r *Ledger) EachSince(_ context.Context, since time.Time, fn func(types.LedgerEntry) error) error {
	r.db.mu.Lock()
	snapshot := append([]types.LedgerEntry(nil), r.db.entries...)
	r.db.mu.Unlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
	})
	for _, e := range snapshot {
		if e.CreatedAt.Before(since) {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Vouchers is the in-memory voucher registry.
type Vouchers struct {
	db *DB
}

func (r *Vouchers) Create(_ context.Context, voucher types.Voucher) (types.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, v := range r.db.vouchers {
		if v.Code == voucher.Code {
			return types.Voucher{}, fmt.Errorf("%w: voucher code already exists", apperr.ErrConflict)
		}
	}
	created := types.Voucher{
		ID:        len(r.db.vouchers) + 1,
		Code:      voucher.Code,
		Amount:    voucher.Amount,
		CreatedAt: r.db.now(),
	}
	r.db.vouchers = append(r.db.vouchers, created)
	return created, nil
}

func (r *Vouchers) List(_ context.Context) ([]types.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]types.Voucher, 0, len(r.db.vouchers))
	for i := len(r.db.vouchers) - 1; i >= 0; i-- {
		out = append(out, r.db.vouchers[i])
	}
	return out, nil
}

func (r *Vouchers) Redeem(_ context.Context, code string, userID int) (types.Redemption, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, v := range r.db.vouchers {
		if v.Code != code || v.Used {
			continue
		}
		if r.db.userIndex(userID) < 0 {
			return types.Redemption{}, fmt.Errorf("%w: referenced record does not exist", apperr.ErrNotFound)
		}
		entry, err := r.db.credit(userID, v.Amount, types.CauseVoucher, v.Code)
		if err != nil {
			return types.Redemption{}, err
		}
		redeemer, at := userID, entry.CreatedAt
		v.Used = true
		v.RedeemedBy = &redeemer
		v.RedeemedAt = &at
		r.db.vouchers[i] = v
		return types.Redemption{Voucher: v, Entry: entry}, nil
	}
	return types.Redemption{}, fmt.Errorf("%w: invalid or already used code", apperr.ErrNotFound)
}

// Chat is the in-memory chat message store.
type Chat struct {
	db *DB
}

func (r *Chat) Create(_ context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	if !msg.Sender.Valid() {
		return types.ChatMessage{}, fmt.Errorf("%w: invalid chat sender", apperr.ErrInvalidArgument)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	msg.ID = len(r.db.messages) + 1
	msg.CreatedAt = r.db.now()
	msg.Username = "admin"
	if id, ok := msg.Sender.UserID(); ok {
		i := r.db.userIndex(id)
		if i < 0 {
			return types.ChatMessage{}, fmt.Errorf("%w: referenced record does not exist", apperr.ErrNotFound)
		}
		msg.Username = r.db.users[i].Username
	}
	r.db.messages = append(r.db.messages, msg)
	return msg, nil
}

func (r *Chat) List(_ context.Context) ([]types.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return append([]types.ChatMessage{}, r.db.messages...), nil
}

func (r *Chat) ListVisibleTo(_ context.Context, userID int) ([]types.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]types.ChatMessage, 0)
	for _, m := range r.db.messages {
		if id, ok := m.Sender.UserID(); m.Sender.IsAdmin() || (ok && id == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

package services

import (
	"context"
	"sync"
	"testing"

	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/store/memstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testPasscode = "011090"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, attrs["type"])
	return "id", nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type env struct {
	db       *memstore.DB
	issuer   *auth.Issuer
	events   *recordingPublisher
	users    *UserService
	ledger   *LedgerService
	vouchers *VoucherService
	chat     *ChatService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memstore.New()
	issuer := auth.NewIssuer(testSecret, "memberhub", testPasscode)
	pub := &recordingPublisher{}
	emitter := events.NewEmitter(pub, "memberhub.events", logging.Discard())

	users := NewUserService(db.Users(), db.Ledger(), issuer, emitter)
	users.hashCost = bcrypt.MinCost

	return &env{
		db:       db,
		issuer:   issuer,
		events:   pub,
		users:    users,
		ledger:   NewLedgerService(db.Ledger(), emitter),
		vouchers: NewVoucherService(db.Vouchers(), emitter),
		chat:     NewChatService(db.Chat(), emitter),
	}
}

// register creates a user and returns its principal.
func (e *env) register(t *testing.T, username string) auth.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return auth.User{ID: user.ID, Username: user.Username, Email: user.Email}
}

func (e *env) balance(t *testing.T, p auth.User) int64 {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), p)
	require.NoError(t, err)
	return b
}

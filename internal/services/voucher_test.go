package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoucherCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	_, err := e.vouchers.Create(ctx, alice, "WELCOME10", 10000)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	v, err := e.vouchers.Create(ctx, auth.Admin{}, "  welcome10 ", 10000)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", v.Code)
	assert.False(t, v.Used)

	_, err = e.vouchers.Create(ctx, auth.Admin{}, "WELCOME10", 500)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.vouchers.Create(ctx, auth.Admin{}, "ZERO", 0)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = e.vouchers.Create(ctx, auth.Admin{}, strings.Repeat("X", types.MaxVoucherCodeLength+1), 10)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	list, err := e.vouchers.List(ctx, auth.Admin{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVoucherRedeem_Scenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	_, err := e.vouchers.Redeem(ctx, alice, "NOPE")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.vouchers.Create(ctx, auth.Admin{}, "WELCOME10", 10000)
	require.NoError(t, err)

	got, err := e.vouchers.Redeem(ctx, alice, "welcome10")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.Voucher.Amount)
	assert.Equal(t, types.CauseVoucher, got.Entry.Cause)
	assert.Equal(t, "WELCOME10", got.Entry.Reference)
	assert.Equal(t, int64(10000), e.balance(t, alice))

	_, err = e.vouchers.Redeem(ctx, alice, "WELCOME10")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, int64(10000), e.balance(t, alice))

	_, err = e.vouchers.Redeem(ctx, auth.Admin{}, "WELCOME10")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	assert.Subset(t, e.events.published(), []string{events.VoucherCreated, events.VoucherRedeemed, events.LedgerCredited})
}

func TestVoucherRedeem_ConcurrentSameCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 25
	users := make([]auth.User, n)
	for i := range users {
		users[i] = e.register(t, fmt.Sprintf("user%02d", i))
	}
	_, err := e.vouchers.Create(ctx, auth.Admin{}, "RACE", 10000)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u auth.User) {
			defer wg.Done()
			<-start
			_, err := e.vouchers.Redeem(ctx, u, "RACE")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.ErrNotFound):
				notFound++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, notFound)

	var total int64
	for _, u := range users {
		total += e.balance(t, u)
	}
	assert.Equal(t, int64(10000), total)
}

package services

import (
	"context"
	"sync"
	"testing"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUp_Bounds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	for _, amount := range []int64{-1, 0, 4_999, 1_000_001} {
		_, err := e.ledger.TopUp(ctx, alice, amount)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument, "amount %d", amount)
		assert.Zero(t, e.balance(t, alice), "balance must not change for %d", amount)
	}

	for _, amount := range []int64{types.MinTopUpAmount, types.MaxTopUpAmount} {
		_, err := e.ledger.TopUp(ctx, alice, amount)
		require.NoError(t, err)
	}
	assert.Equal(t, types.MinTopUpAmount+types.MaxTopUpAmount, e.balance(t, alice))
}

func TestTopUp_AdminForbidden(t *testing.T) {
	e := newEnv(t)

	_, err := e.ledger.TopUp(context.Background(), auth.Admin{}, 5000)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.ledger.Balance(context.Background(), auth.Admin{})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTopUp_RecordsEntry(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")

	entry, err := e.ledger.TopUp(context.Background(), alice, 7500)
	require.NoError(t, err)
	assert.Equal(t, types.CauseTopUp, entry.Cause)
	assert.Equal(t, int64(7500), entry.BalanceAfter)

	entries, total, err := e.ledger.Entries(context.Background(), alice, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestConcurrentCredits_AreAllApplied(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	const perUser = 50
	var wg sync.WaitGroup
	for i := 0; i < perUser; i++ {
		for _, p := range []auth.User{alice, bob} {
			wg.Add(1)
			go func(p auth.User, amount int64) {
				defer wg.Done()
				_, err := e.ledger.TopUp(ctx, p, amount)
				assert.NoError(t, err)
			}(p, 5000+int64(i))
		}
	}
	wg.Wait()

	var want int64
	for i := 0; i < perUser; i++ {
		want += 5000 + int64(i)
	}
	assert.Equal(t, want, e.balance(t, alice))
	assert.Equal(t, want, e.balance(t, bob))

	_, total, err := e.ledger.Entries(ctx, alice, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, perUser, total)
}

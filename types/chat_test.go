package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderVariants(t *testing.T) {
	admin := AdminSender()
	assert.True(t, admin.IsAdmin())
	_, ok := admin.UserID()
	assert.False(t, ok)
	assert.True(t, admin.Valid())

	user := UserSender(7)
	assert.False(t, user.IsAdmin())
	id, ok := user.UserID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	assert.False(t, Sender{}.Valid(), "zero sender must not be valid")
}

func TestSenderJSON(t *testing.T) {
	data, err := json.Marshal(UserSender(3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"user","user_id":3}`, string(data))

	data, err = json.Marshal(AdminSender())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"admin"}`, string(data))

	var s Sender
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"user","user_id":9}`), &s))
	assert.Equal(t, UserSender(9), s)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"user"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bot"}`), &s))

	_, err = json.Marshal(Sender{})
	assert.Error(t, err)
}

func TestPremiumState(t *testing.T) {
	assert.Equal(t, PremiumNone, User{}.PremiumState())
	assert.Equal(t, PremiumRequested, User{PremiumRequested: true}.PremiumState())
	assert.Equal(t, PremiumApproved, User{IsPremium: true}.PremiumState())
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chatRowColumns = []string{"id", "user_id", "is_admin", "body", "created_at", "username"}

func TestChatCreate_AdminSenderHasNoUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO chat_messages \(user_id, body, is_admin\)`).
		WithArgs(nil, "hello", true).
		WillReturnRows(sqlmock.NewRows(chatRowColumns).AddRow(1, nil, true, "hello", now, ""))

	msg, err := repo.Create(context.Background(), types.ChatMessage{Sender: types.AdminSender(), Body: "hello"})
	require.NoError(t, err)
	assert.True(t, msg.Sender.IsAdmin())
	assert.Equal(t, "admin", msg.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatCreate_RejectsZeroSender(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewChatRepository(db, time.Second)

	_, err := repo.Create(context.Background(), types.ChatMessage{Body: "hello"})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestChatListVisibleTo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db, time.Second)
	now := time.Now()

	mock.ExpectQuery(`WHERE m.is_admin OR m.user_id = \$1\s+ORDER BY m.created_at, m.id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(chatRowColumns).
			AddRow(1, int64(7), false, "help", now, "alice").
			AddRow(2, nil, true, "on it", now.Add(time.Second), ""))

	messages, err := repo.ListVisibleTo(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	id, ok := messages[0].Sender.UserID()
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, "alice", messages[0].Username)
	assert.True(t, messages[1].Sender.IsAdmin())
	require.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/types"
)

const adminDisplayName = "admin"

// ChatRepository stores support chat messages. Messages are never updated.
type ChatRepository struct {
	db      *sql.DB
	timeout queryTimeout
}

func NewChatRepository(db *sql.DB, timeout time.Duration) *ChatRepository {
	return &ChatRepository{db: db, timeout: queryTimeout(timeout)}
}

func (r *ChatRepository) Create(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	if !msg.Sender.Valid() {
		return types.ChatMessage{}, fmt.Errorf("%w: invalid chat sender", apperr.ErrInvalidArgument)
	}

	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	var userID sql.NullInt64
	if id, ok := msg.Sender.UserID(); ok {
		userID = sql.NullInt64{Int64: int64(id), Valid: true}
	}

	const query = `
		WITH inserted AS (
			INSERT INTO chat_messages (user_id, body, is_admin)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, is_admin, body, created_at
		)
		SELECT i.id, i.user_id, i.is_admin, i.body, i.created_at, COALESCE(u.username, '')
		FROM inserted i
		LEFT JOIN users u ON u.id = i.user_id`
	created, err := scanChatMessage(r.db.QueryRowContext(ctx, query, userID, msg.Body, msg.Sender.IsAdmin()))
	if err != nil {
		return types.ChatMessage{}, translate("create chat message", err)
	}
	return created, nil
}

// List returns every message, oldest first.
func (r *ChatRepository) List(ctx context.Context) ([]types.ChatMessage, error) {
	const query = `
		SELECT m.id, m.user_id, m.is_admin, m.body, m.created_at, COALESCE(u.username, '')
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.user_id
		ORDER BY m.created_at, m.id`
	return r.query(ctx, "list chat messages", query)
}

// ListVisibleTo returns the messages userID wrote plus every administrator
// message, oldest first.
func (r *ChatRepository) ListVisibleTo(ctx context.Context, userID int) ([]types.ChatMessage, error) {
	const query = `
		SELECT m.id, m.user_id, m.is_admin, m.body, m.created_at, COALESCE(u.username, '')
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.is_admin OR m.user_id = $1
		ORDER BY m.created_at, m.id`
	return r.query(ctx, "list visible chat messages", query, userID)
}

func (r *ChatRepository) query(ctx context.Context, op, query string, args ...any) ([]types.ChatMessage, error) {
	ctx, cancel := r.timeout.context(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	messages := make([]types.ChatMessage, 0)
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return messages, nil
}

func scanChatMessage(row rowScanner) (types.ChatMessage, error) {
	var msg types.ChatMessage
	var userID sql.NullInt64
	var isAdmin bool
	if err := row.Scan(&msg.ID, &userID, &isAdmin, &msg.Body, &msg.CreatedAt, &msg.Username); err != nil {
		return types.ChatMessage{}, err
	}
	if isAdmin {
		msg.Sender = types.AdminSender()
		msg.Username = adminDisplayName
	} else {
		msg.Sender = types.UserSender(int(userID.Int64))
	}
	return msg, nil
}

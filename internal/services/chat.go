package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/types"
)

// ChatService applies the chat visibility rules: the administrator reads
// everything, a user reads only their own and the administrator's messages.
type ChatService struct {
	repo    ChatRepository
	emitter *events.Emitter
}

func NewChatService(repo ChatRepository, emitter *events.Emitter) *ChatService {
	return &ChatService{repo: repo, emitter: emitter}
}

// ListVisible returns the messages p may read, oldest first.
func (s *ChatService) ListVisible(ctx context.Context, p auth.Principal) ([]types.ChatMessage, error) {
	switch v := p.(type) {
	case auth.Admin:
		return s.repo.List(ctx)
	case auth.User:
		return s.repo.ListVisibleTo(ctx, v.ID)
	default:
		return nil, fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
}

// Post stores body as a message from p.
func (s *ChatService) Post(ctx context.Context, p auth.Principal, body string) (types.ChatMessage, error) {
	var sender types.Sender
	switch v := p.(type) {
	case auth.Admin:
		sender = types.AdminSender()
	case auth.User:
		sender = types.UserSender(v.ID)
	default:
		return types.ChatMessage{}, fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return types.ChatMessage{}, fmt.Errorf("%w: message is required", apperr.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(body) > types.MaxChatMessageLength {
		return types.ChatMessage{}, fmt.Errorf("%w: message longer than %d characters", apperr.ErrInvalidArgument, types.MaxChatMessageLength)
	}

	msg, err := s.repo.Create(ctx, types.ChatMessage{Sender: sender, Body: body})
	if err != nil {
		return types.ChatMessage{}, err
	}
	s.emitter.Emit(ctx, events.ChatPosted, msg)
	return msg, nil
}

package types

import (
	"encoding/json"
	"errors"
	"time"
)

// MaxChatMessageLength bounds the body of a single chat message, in runes.
const MaxChatMessageLength = 2000

// Sender identifies who wrote a chat message: the administrator or a
// specific user. The zero value is not a valid sender.
type Sender struct {
	admin  bool
	userID int
}

// AdminSender returns the sender used for administrator messages.
func AdminSender() Sender { return Sender{admin: true} }

// UserSender returns the sender for messages written by user id.
func UserSender(id int) Sender { return Sender{userID: id} }

func (s Sender) IsAdmin() bool { return s.admin }

// UserID returns the authoring user, or false for administrator messages.
func (s Sender) UserID() (int, bool) {
	if s.admin || s.userID == 0 {
		return 0, false
	}
	return s.userID, true
}

// Valid reports whether s is one of the two sender variants.
func (s Sender) Valid() bool {
	return s.admin != (s.userID > 0)
}

type senderJSON struct {
	Kind   string `json:"kind"`
	UserID *int   `json:"user_id,omitempty"`
}

const (
	senderKindAdmin = "admin"
	senderKindUser  = "user"
)

func (s Sender) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New("invalid chat sender")
	}
	if s.admin {
		return json.Marshal(senderJSON{Kind: senderKindAdmin})
	}
	id := s.userID
	return json.Marshal(senderJSON{Kind: senderKindUser, UserID: &id})
}

func (s *Sender) UnmarshalJSON(data []byte) error {
	var raw senderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case senderKindAdmin:
		*s = AdminSender()
	case senderKindUser:
		if raw.UserID == nil || *raw.UserID < 1 {
			return errors.New("user sender requires a positive user_id")
		}
		*s = UserSender(*raw.UserID)
	default:
		return errors.New("unknown chat sender kind")
	}
	return nil
}

// ChatMessage is an append-only support message.
type ChatMessage struct {
	ID        int       `json:"id" db:"id"`
	Sender    Sender    `json:"sender"`
	Username  string    `json:"username,omitempty" db:"username"`
	Body      string    `json:"message" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

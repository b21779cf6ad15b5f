// Package events publishes domain events to the message broker after the
// state change they describe has been committed.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/mq"
)

// Event types, carried in the "type" message attribute.
const (
	UserRegistered   = "user.registered"
	LedgerCredited   = "ledger.credited"
	VoucherCreated   = "voucher.created"
	VoucherRedeemed  = "voucher.redeemed"
	PremiumRequested = "premium.requested"
	PremiumApproved  = "premium.approved"
	ChatPosted       = "chat.posted"
)

const (
	typeAttribute  = "type"
	publishTimeout = 5 * time.Second
)

// Envelope is the JSON body of every event message.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher is the publishing half of mq.Backend.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Emitter publishes events on one channel. Delivery is best effort: a
// failed publish is logged and never returned to the caller.
type Emitter struct {
	pub     Publisher
	channel string
	log     logging.Logger
	now     func() time.Time
}

// NewEmitter returns an Emitter that drops every event when pub is nil.
func NewEmitter(pub Publisher, channel string, log logging.Logger) *Emitter {
	if log == nil {
		log = logging.Discard()
	}
	return &Emitter{pub: pub, channel: channel, log: log, now: time.Now}
}

// Emit publishes payload as an event of the given type.
func (e *Emitter) Emit(ctx context.Context, eventType string, payload any) {
	if e == nil || e.pub == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		e.log.Error(ctx, "encode event payload", "type", eventType, "error", err)
		return
	}
	data, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: e.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		e.log.Error(ctx, "encode event", "type", eventType, "error", err)
		return
	}

	// The request may finish before the broker answers.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := e.pub.Publish(pubCtx, e.channel, data, map[string]string{typeAttribute: eventType})
	if err != nil {
		e.log.Warn(ctx, "publish event failed", "type", eventType, "channel", e.channel, "error", err)
		return
	}
	e.log.Debug(ctx, "event published", "type", eventType, "message_id", id)
}

// Tail subscribes to channel and logs every event until ctx is done.
// Messages that are not event envelopes are logged and acknowledged.
func Tail(ctx context.Context, backend mq.Backend, channel string, log logging.Logger) error {
	return backend.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Warn(ctx, "undecodable event", "message_id", msg.ID, "error", err)
			return nil
		}
		log.Info(ctx, "event",
			"message_id", msg.ID,
			"id", env.ID,
			"type", env.Type,
			"occurred_at", env.OccurredAt,
			"payload", string(env.Payload),
		)
		return nil
	})
}

package mq

import (
	"context"
	"testing"

	"github.com/memberhub/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NoneBackend(t *testing.T) {
	backend, err := Open(context.Background(), config.Config{MQ: config.MQConfig{Backend: config.BackendNone}})
	require.NoError(t, err)
	assert.Nil(t, backend)
}

func TestOpen_RequiresSettings(t *testing.T) {
	_, err := Open(context.Background(), config.Config{MQ: config.MQConfig{Backend: config.BackendRabbitMQ}})
	require.ErrorContains(t, err, "RABBITMQ_URL")

	_, err = Open(context.Background(), config.Config{MQ: config.MQConfig{Backend: config.BackendPubSub}})
	require.ErrorContains(t, err, "PUBSUB_PROJECT_ID")

	_, err = Open(context.Background(), config.Config{MQ: config.MQConfig{Backend: "kafka"}})
	require.Error(t, err)
}

func TestHeaderStrings(t *testing.T) {
	got := headerStrings(amqp.Table{"type": "voucher.redeemed", "raw": []byte("x"), "n": int32(3)})
	assert.Equal(t, map[string]string{"type": "voucher.redeemed", "raw": "x", "n": "3"}, got)
	assert.Nil(t, headerStrings(nil))
}

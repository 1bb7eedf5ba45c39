package messaging

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPublishing(t *testing.T) {
	env := NewEnvelope("notification.dispatched", "", map[string]string{"orderId": "TEST123"})

	msg, err := BuildPublishing(env, "order-notifications")
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, env.Meta.ID, msg.MessageId)
	assert.Equal(t, env.Meta.ID, msg.CorrelationId, "correlation id falls back to message id")
	assert.Equal(t, "notification.dispatched", msg.Type)
	assert.Equal(t, "order-notifications", msg.AppId)

	var decoded struct {
		Meta Meta              `json:"meta"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "TEST123", decoded.Data["orderId"])
	assert.Equal(t, "order-notifications", decoded.Meta.Source)
}

func TestBuildPublishing_RequiresID(t *testing.T) {
	_, err := BuildPublishing(Envelope{Meta: Meta{Type: "x"}}, "app")
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "k", NewEnvelope("t", "", nil)))
	assert.NoError(t, p.Close())
}

package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaDataRoutingStrategy(t *testing.T) {
	s := NewMetaDataRoutingStrategy("aggregate_id", UnresolvedError, "")

	key, err := s.RoutingKey(Message{Name: "Pay", MetaData: map[string]string{"aggregate_id": "order-7"}})
	require.NoError(t, err)
	assert.Equal(t, "order-7", key)

	_, err = s.RoutingKey(Message{Name: "Pay"})
	assert.True(t, errors.Is(err, ErrRoutingKeyUnresolved))
}

func TestPayloadFieldRoutingStrategy(t *testing.T) {
	s := NewPayloadFieldRoutingStrategy("order_id", UnresolvedError, "")

	key, err := s.RoutingKey(Message{Payload: map[string]any{"order_id": float64(42)}})
	require.NoError(t, err)
	assert.Equal(t, "42", key)

	key2, err := s.RoutingKey(Message{Payload: map[string]any{"order_id": float64(42)}})
	require.NoError(t, err)
	assert.Equal(t, key, key2)

	key, err = s.RoutingKey(Message{Payload: map[string]any{"order_id": float64(12345678)}})
	require.NoError(t, err)
	assert.Equal(t, "12345678", key)
}

func TestUnresolvedPolicies(t *testing.T) {
	msg := Message{Name: "Audit"}

	static := NewPayloadFieldRoutingStrategy("order_id", UnresolvedStaticKey, "")
	k1, err := static.RoutingKey(msg)
	require.NoError(t, err)
	assert.Equal(t, DefaultStaticRoutingKey, k1)

	custom := NewMetaDataRoutingStrategy("tenant", UnresolvedStaticKey, "fallback")
	k2, err := custom.RoutingKey(msg)
	require.NoError(t, err)
	assert.Equal(t, "fallback", k2)

	random := NewPayloadFieldRoutingStrategy("order_id", UnresolvedRandomKey, "")
	r1, err := random.RoutingKey(msg)
	require.NoError(t, err)
	r2, err := random.RoutingKey(msg)
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
	assert.Len(t, r1, 32)
}

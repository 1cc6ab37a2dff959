package command

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrRoutingKeyUnresolved = errors.New("routing key unresolved")

// RoutingStrategy derives the ring lookup key for a command.
// Implementations must be deterministic for the same message content.
type RoutingStrategy interface {
	RoutingKey(msg Message) (string, error)
}

// UnresolvedRoutingKeyPolicy decides what happens when a strategy finds no key.
type UnresolvedRoutingKeyPolicy string

const (
	// UnresolvedError fails the lookup with ErrRoutingKeyUnresolved.
	UnresolvedError UnresolvedRoutingKeyPolicy = "error"
	// UnresolvedRandomKey spreads unresolved commands with a random key each time.
	UnresolvedRandomKey UnresolvedRoutingKeyPolicy = "random"
	// UnresolvedStaticKey sends every unresolved command to the same member.
	UnresolvedStaticKey UnresolvedRoutingKeyPolicy = "static"
)

// DefaultStaticRoutingKey is used by UnresolvedStaticKey when none is configured.
const DefaultStaticRoutingKey = "unresolved"

type fallback struct {
	policy    UnresolvedRoutingKeyPolicy
	staticKey string
}

func (f fallback) resolve(msg Message, source string) (string, error) {
	switch f.policy {
	case UnresolvedRandomKey:
		return randomKey(), nil
	case UnresolvedStaticKey:
		if f.staticKey == "" {
			return DefaultStaticRoutingKey, nil
		}
		return f.staticKey, nil
	default:
		return "", fmt.Errorf("%w: %s has no %s", ErrRoutingKeyUnresolved, msg, source)
	}
}

// MetaDataRoutingStrategy reads the routing key from a metadata entry.
type MetaDataRoutingStrategy struct {
	key string
	fallback
}

func NewMetaDataRoutingStrategy(key string, policy UnresolvedRoutingKeyPolicy, staticKey string) *MetaDataRoutingStrategy {
	return &MetaDataRoutingStrategy{key: key, fallback: fallback{policy: policy, staticKey: staticKey}}
}

func (s *MetaDataRoutingStrategy) RoutingKey(msg Message) (string, error) {
	if v, ok := msg.MetaData[s.key]; ok && v != "" {
		return v, nil
	}
	return s.resolve(msg, "metadata "+s.key)
}

// PayloadFieldRoutingStrategy reads the routing key from a top-level payload
// field, typically the target aggregate identifier.
type PayloadFieldRoutingStrategy struct {
	field string
	fallback
}

func NewPayloadFieldRoutingStrategy(field string, policy UnresolvedRoutingKeyPolicy, staticKey string) *PayloadFieldRoutingStrategy {
	return &PayloadFieldRoutingStrategy{field: field, fallback: fallback{policy: policy, staticKey: staticKey}}
}

func (s *PayloadFieldRoutingStrategy) RoutingKey(msg Message) (string, error) {
	if v, ok := msg.PayloadField(s.field); ok && v != "" {
		return v, nil
	}
	return s.resolve(msg, "payload field "+s.field)
}

func randomKey() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

var (
	_ RoutingStrategy = (*MetaDataRoutingStrategy)(nil)
	_ RoutingStrategy = (*PayloadFieldRoutingStrategy)(nil)
)

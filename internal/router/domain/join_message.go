package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
)

// JoinMessage announces a member's load factor and command filter to the
// group. Receivers resolve the member from SenderAddress and treat the
// filter as an opaque predicate they only evaluate.
type JoinMessage struct {
	SenderAddress string         `json:"sender_address"`
	LoadFactor    int            `json:"load_factor"`
	CommandFilter command.Filter `json:"command_filter"`
}

func NewJoinMessage(sender string, loadFactor int, filter command.Filter) JoinMessage {
	return JoinMessage{SenderAddress: sender, LoadFactor: loadFactor, CommandFilter: filter}
}

func EncodeJoinMessage(msg JoinMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeJoinMessage decodes and validates a join message received from a peer.
func DecodeJoinMessage(data []byte) (JoinMessage, error) {
	var msg JoinMessage
	if len(data) == 0 {
		return msg, fmt.Errorf("%w: empty join message", ErrMalformed)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return JoinMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(msg.SenderAddress) == "" {
		return JoinMessage{}, fmt.Errorf("%w: join message without sender", ErrMalformed)
	}
	if msg.LoadFactor < 0 {
		return JoinMessage{}, fmt.Errorf("%w: negative load factor %d from %s", ErrMalformed, msg.LoadFactor, msg.SenderAddress)
	}
	if err := msg.CommandFilter.Validate(); err != nil {
		return JoinMessage{}, fmt.Errorf("%w: filter from %s: %v", ErrMalformed, msg.SenderAddress, err)
	}
	return msg, nil
}

package port

import "github.com/anthanhphan/go-distributed-command-router/pkg/shard"

//go:generate mockgen -destination=../service/mocks/transport_mock.go -package=mocks -source=transport.go

// GroupTransport is the group-communication channel join messages travel on.
// Delivery is best effort; duplicates and reordering are expected. Inbound
// traffic is handed to a GroupHandler registered on the concrete transport.
type GroupTransport interface {
	// LocalMember returns the identity and endpoints of this node.
	LocalMember() shard.Member

	// Member resolves a sender address to a known group member.
	Member(address string) (shard.Member, bool)

	// Broadcast sends an encoded join message to every other member.
	Broadcast(payload []byte) error
}

// GroupHandler consumes what the transport delivers.
type GroupHandler interface {
	// HandleMessage processes an encoded join message from a peer.
	HandleMessage(payload []byte) error

	// HandleDeparture is called once the transport detects a member is gone.
	HandleDeparture(memberID string)

	// LocalAnnouncement returns the last encoded local join message, or nil.
	// Transports send it during state exchange with newly joined peers.
	LocalAnnouncement() []byte
}

package port

import (
	"context"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
)

//go:generate mockgen -destination=../service/mocks/service_mock.go -package=mocks -source=service.go

// CommandRouter is what the application and the inbound adapters use.
type CommandRouter interface {
	// UpdateMembership announces the local load factor and filter.
	UpdateMembership(ctx context.Context, loadFactor int, filter command.Filter) error

	// Route finds the member for msg. ok is false when no member accepts it.
	Route(msg command.Message) (member shard.Member, ok bool, err error)

	// LocalRoutingInformation returns what peers fetch from this node.
	LocalRoutingInformation() (domain.MessageRoutingInformation, bool)

	// Snapshot returns the current ring.
	Snapshot() *shard.Ring
}

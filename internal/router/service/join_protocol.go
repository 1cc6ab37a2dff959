package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

// JoinProtocol announces the local capability over the group transport and
// ingests the announcements of peers.
type JoinProtocol struct {
	transport port.GroupTransport
	registry  *MembershipRegistry
	local     *LocalRoutingInfo
	metrics   *metrics.RouterMetrics

	announcement atomic.Pointer[[]byte]
}

var _ port.GroupHandler = (*JoinProtocol)(nil)

// NewJoinProtocol creates the protocol. It must still be registered as the
// transport's receive handler.
func NewJoinProtocol(transport port.GroupTransport, registry *MembershipRegistry, local *LocalRoutingInfo, m *metrics.RouterMetrics) *JoinProtocol {
	return &JoinProtocol{
		transport: transport,
		registry:  registry,
		local:     local,
		metrics:   m,
	}
}

// Announce applies the local capability to the registry and broadcasts it.
// A failed broadcast is logged only: the local ring is already correct and
// peers catch up on the next state exchange.
func (p *JoinProtocol) Announce(_ context.Context, loadFactor int, filter command.Filter) error {
	if err := validateCapability(loadFactor, filter); err != nil {
		return err
	}

	member := p.transport.LocalMember()
	payload, err := domain.EncodeJoinMessage(domain.NewJoinMessage(member.ID, loadFactor, filter))
	if err != nil {
		return fmt.Errorf("encode join message: %w", err)
	}

	p.local.Set(domain.NewMessageRoutingInformation(member.ID, loadFactor, filter))
	p.announcement.Store(&payload)
	if p.registry.Update(shard.NewCapability(member, loadFactor, filter)) {
		p.metrics.RecordMembership(metrics.SourceLocal, metrics.OperationUpdate)
	}

	if err := p.transport.Broadcast(payload); err != nil {
		logger.Warnw("Failed to broadcast join message", "member", member.ID, "error", err.Error())
	}
	return nil
}

// HandleMessage ingests a peer's join message. Malformed messages are
// dropped and counted; the returned error wraps port.ErrDecodeFailure and is
// informational only.
func (p *JoinProtocol) HandleMessage(payload []byte) error {
	msg, err := domain.DecodeJoinMessage(payload)
	if err != nil {
		p.metrics.RecordDecodeFailure(metrics.SourceGossip)
		logger.Warnw("Dropping malformed join message", "size", len(payload), "error", err.Error())
		return err
	}

	// Only live members join the ring. A message delivered after the
	// sender's departure must not bring it back.
	member, ok := p.transport.Member(msg.SenderAddress)
	if !ok {
		logger.Warnw("Dropping join message from unknown member", "member", msg.SenderAddress)
		return nil
	}

	if !p.registry.Update(shard.NewCapability(member, msg.LoadFactor, msg.CommandFilter)) {
		return nil
	}
	if _, live := p.transport.Member(member.ID); !live {
		// departed while the update was applied
		p.registry.Remove(member.ID)
		return nil
	}
	p.metrics.RecordMembership(metrics.SourceGossip, metrics.OperationUpdate)
	logger.Infow("Member capability updated", "member", member.ID, "load_factor", msg.LoadFactor, "filter", msg.CommandFilter.String())
	return nil
}

// HandleDeparture removes a member the transport declared gone.
func (p *JoinProtocol) HandleDeparture(memberID string) {
	if memberID == p.transport.LocalMember().ID {
		return
	}
	if p.registry.Remove(memberID) {
		p.metrics.RecordMembership(metrics.SourceGossip, metrics.OperationRemove)
		logger.Infow("Member left", "member", memberID)
	}
}

func (p *JoinProtocol) LocalAnnouncement() []byte {
	payload := p.announcement.Load()
	if payload == nil {
		return nil
	}
	return *payload
}

func validateCapability(loadFactor int, filter command.Filter) error {
	if loadFactor < 0 {
		return fmt.Errorf("%w: %d", port.ErrInvalidLoadFactor, loadFactor)
	}
	return filter.Validate()
}

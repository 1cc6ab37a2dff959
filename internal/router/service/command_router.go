package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

// Announcer publishes the local capability to the cluster. JoinProtocol and
// DirectoryAnnouncer implement it.
type Announcer interface {
	Announce(ctx context.Context, loadFactor int, filter command.Filter) error
}

type RouterState int32

const (
	StateUninitialized RouterState = iota
	StateActive
)

func (s RouterState) String() string {
	if s == StateActive {
		return "active"
	}
	return "uninitialized"
}

// CommandRouterImpl is the façade the application talks to.
type CommandRouterImpl struct {
	registry  *MembershipRegistry
	announcer Announcer
	strategy  command.RoutingStrategy
	local     *LocalRoutingInfo
	join      *JoinProtocol
	sync      *DirectorySync
	metrics   *metrics.RouterMetrics

	state atomic.Int32
}

var _ port.CommandRouter = (*CommandRouterImpl)(nil)

type RouterOption func(*CommandRouterImpl)

// WithJoinProtocol routes peer join messages through p.
func WithJoinProtocol(p *JoinProtocol) RouterOption {
	return func(r *CommandRouterImpl) {
		r.join = p
	}
}

// WithDirectorySync routes discovered instances through s.
func WithDirectorySync(s *DirectorySync) RouterOption {
	return func(r *CommandRouterImpl) {
		r.sync = s
	}
}

func WithRouterMetrics(m *metrics.RouterMetrics) RouterOption {
	return func(r *CommandRouterImpl) {
		r.metrics = m
	}
}

func NewCommandRouter(registry *MembershipRegistry, announcer Announcer, strategy command.RoutingStrategy, local *LocalRoutingInfo, opts ...RouterOption) *CommandRouterImpl {
	r := &CommandRouterImpl{
		registry:  registry,
		announcer: announcer,
		strategy:  strategy,
		local:     local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UpdateMembership announces the local capability. The first successful call
// moves the router to StateActive; later calls replace the capability.
func (r *CommandRouterImpl) UpdateMembership(ctx context.Context, loadFactor int, filter command.Filter) error {
	if err := r.announcer.Announce(ctx, loadFactor, filter); err != nil {
		return err
	}
	if r.state.CompareAndSwap(int32(StateUninitialized), int32(StateActive)) {
		logger.Infow("Command router active", "load_factor", loadFactor, "filter", filter.String())
	}
	return nil
}

// Route returns the member responsible for msg. ok is false when no member
// accepts it, which is a normal outcome. err is set only when the routing
// key cannot be derived.
func (r *CommandRouterImpl) Route(msg command.Message) (shard.Member, bool, error) {
	key, err := r.strategy.RoutingKey(msg)
	if err != nil {
		r.metrics.RecordRoute(metrics.OutcomeKeyError)
		return shard.Member{}, false, err
	}

	member, ok := r.registry.Snapshot().Route(key, msg)
	if !ok {
		r.metrics.RecordRoute(metrics.OutcomeNoHandler)
		logger.Debugw("No handler for command", "command", msg.Name, "key", key)
		return shard.Member{}, false, nil
	}
	r.metrics.RecordRoute(metrics.OutcomeRouted)
	return member, true, nil
}

func (r *CommandRouterImpl) LocalRoutingInformation() (domain.MessageRoutingInformation, bool) {
	if r.State() != StateActive {
		return domain.MessageRoutingInformation{}, false
	}
	return r.local.Get()
}

func (r *CommandRouterImpl) Snapshot() *shard.Ring {
	return r.registry.Snapshot()
}

func (r *CommandRouterImpl) State() RouterState {
	return RouterState(r.state.Load())
}

// HandleJoinMessage feeds a join message received outside the group
// transport into the join protocol.
func (r *CommandRouterImpl) HandleJoinMessage(payload []byte) error {
	if r.join == nil {
		return errors.New("join protocol not configured")
	}
	return r.join.HandleMessage(payload)
}

// HandleInstance applies one discovered instance immediately instead of
// waiting for the next directory poll.
func (r *CommandRouterImpl) HandleInstance(ctx context.Context, instance port.ServiceInstance) error {
	if r.sync == nil {
		return errors.New("directory sync not configured")
	}
	return r.sync.Apply(ctx, instance)
}

// MemberLeft removes a member reported gone by the surrounding application.
func (r *CommandRouterImpl) MemberLeft(memberID string) {
	if r.sync != nil {
		r.sync.Forget(memberID)
	}
	if r.join != nil {
		r.join.HandleDeparture(memberID)
		return
	}
	if r.registry.Remove(memberID) {
		r.metrics.RecordMembership(metrics.SourceDirectory, metrics.OperationRemove)
		logger.Infow("Member left", "member", memberID)
	}
}

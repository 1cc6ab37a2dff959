package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/resilience"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

const defaultResolveTimeout = 3 * time.Second

// RoutingInfoResolver fetches a member's routing information point to point
// when the discovery directory cannot carry it.
type RoutingInfoResolver struct {
	localID  string
	local    *LocalRoutingInfo
	fetchers []port.RoutingInfoFetcher
	breakers *resilience.EndpointBreakers
	timeout  time.Duration
	metrics  *metrics.RouterMetrics
	now      func() time.Time
}

type ResolverOption func(*RoutingInfoResolver)

// WithResolveTimeout bounds every remote fetch.
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *RoutingInfoResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithEndpointBreakers guards fetches with per-endpoint circuit breakers.
func WithEndpointBreakers(b *resilience.EndpointBreakers) ResolverOption {
	return func(r *RoutingInfoResolver) {
		r.breakers = b
	}
}

func WithResolverMetrics(m *metrics.RouterMetrics) ResolverOption {
	return func(r *RoutingInfoResolver) {
		r.metrics = m
	}
}

// NewRoutingInfoResolver creates a resolver. fetchers are tried in
// preference order: the first one whose protocol the member advertises wins.
func NewRoutingInfoResolver(localID string, local *LocalRoutingInfo, fetchers []port.RoutingInfoFetcher, opts ...ResolverOption) *RoutingInfoResolver {
	r := &RoutingInfoResolver{
		localID:  localID,
		local:    local,
		fetchers: fetchers,
		timeout:  defaultResolveTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the routing information of member. The local member is
// answered from memory without any network call. Remote failures are
// reported as port.ErrEndpointUnavailable or port.ErrRoutingInfoUnreachable;
// retrying is up to the caller.
func (r *RoutingInfoResolver) Resolve(ctx context.Context, member shard.Member) (domain.MessageRoutingInformation, error) {
	if member.ID == r.localID {
		info, ok := r.local.Get()
		if !ok {
			return domain.MessageRoutingInformation{}, port.ErrLocalMembershipUnset
		}
		r.metrics.RecordResolve(metrics.ResultLocal, 0)
		return info, nil
	}

	fetcher, endpoint, ok := r.selectEndpoint(member)
	if !ok {
		r.metrics.RecordResolve(metrics.ResultUnavailable, 0)
		return domain.MessageRoutingInformation{}, &port.EndpointUnavailableError{
			MemberID:  member.ID,
			Protocols: r.protocols(),
		}
	}

	start := r.now()
	info, err := r.fetch(ctx, fetcher, endpoint)
	if err == nil {
		err = checkMemberID(member.ID, &info)
	}
	if err != nil {
		r.metrics.RecordResolve(metrics.ResultUnreachable, r.now().Sub(start))
		if r.breakers != nil {
			logger.Debugw("Routing information fetch failed", "member", member.ID, "endpoint", endpoint,
				"circuit", string(r.breakers.State(breakerKey(fetcher, endpoint))))
		}
		return domain.MessageRoutingInformation{}, fmt.Errorf("%w: member %s at %s: %w", port.ErrRoutingInfoUnreachable, member.ID, endpoint, err)
	}
	r.metrics.RecordResolve(metrics.ResultFetched, r.now().Sub(start))
	return info, nil
}

func (r *RoutingInfoResolver) fetch(ctx context.Context, fetcher port.RoutingInfoFetcher, endpoint string) (domain.MessageRoutingInformation, error) {
	var info domain.MessageRoutingInformation
	call := func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		var err error
		info, err = fetcher.Fetch(fetchCtx, endpoint)
		return err
	}

	if r.breakers == nil {
		return info, call(ctx)
	}
	return info, r.breakers.Execute(ctx, breakerKey(fetcher, endpoint), call)
}

// Forget drops the circuits of every endpoint member advertises.
func (r *RoutingInfoResolver) Forget(member shard.Member) {
	if r.breakers == nil {
		return
	}
	for _, f := range r.fetchers {
		if endpoint, ok := member.Endpoint(f.Protocol()); ok {
			r.breakers.Forget(breakerKey(f, endpoint))
		}
	}
}

func breakerKey(fetcher port.RoutingInfoFetcher, endpoint string) string {
	return fetcher.Protocol() + "://" + endpoint
}

func (r *RoutingInfoResolver) selectEndpoint(member shard.Member) (port.RoutingInfoFetcher, string, bool) {
	for _, f := range r.fetchers {
		if endpoint, ok := member.Endpoint(f.Protocol()); ok {
			return f, endpoint, true
		}
	}
	return nil, "", false
}

func (r *RoutingInfoResolver) protocols() []string {
	out := make([]string, 0, len(r.fetchers))
	for _, f := range r.fetchers {
		out = append(out, f.Protocol())
	}
	return out
}

// checkMemberID binds anonymous information to the requested member and
// rejects information served for someone else.
func checkMemberID(memberID string, info *domain.MessageRoutingInformation) error {
	if info.MemberID == "" {
		info.MemberID = memberID
		return nil
	}
	if info.MemberID != memberID {
		return fmt.Errorf("%w: expected member %s, got %s", port.ErrDecodeFailure, memberID, info.MemberID)
	}
	return nil
}

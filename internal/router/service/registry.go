package service

import (
	"sync/atomic"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

// MembershipRegistry is the local view of every known member capability.
// The ring it holds is swapped as a whole on each change, so Snapshot never
// blocks and never observes a partially applied update.
//
// Updates for the same member are last-write-wins. There is no versioning,
// a delayed stale update can overwrite a newer one until the member announces
// again.
type MembershipRegistry struct {
	ring    atomic.Pointer[shard.Ring]
	metrics *metrics.RouterMetrics
}

func NewMembershipRegistry(m *metrics.RouterMetrics) *MembershipRegistry {
	r := &MembershipRegistry{metrics: m}
	r.ring.Store(shard.NewRing())
	return r
}

// Update upserts the capability by member identity. It reports whether the
// ring changed; re-applying an identical capability is a no-op.
func (r *MembershipRegistry) Update(c shard.Capability) bool {
	return r.apply(func(ring *shard.Ring) *shard.Ring {
		return ring.WithMember(c)
	})
}

// Remove evicts the member. It reports whether the member was known.
func (r *MembershipRegistry) Remove(memberID string) bool {
	return r.apply(func(ring *shard.Ring) *shard.Ring {
		return ring.WithoutMember(memberID)
	})
}

// Retain evicts every member for which keep returns false and returns the
// evicted identities.
func (r *MembershipRegistry) Retain(keep func(shard.Capability) bool) []string {
	var removed []string
	r.apply(func(ring *shard.Ring) *shard.Ring {
		removed = removed[:0]
		next := ring
		for _, c := range ring.Members() {
			if !keep(c) {
				removed = append(removed, c.Member.ID)
				next = next.WithoutMember(c.Member.ID)
			}
		}
		return next
	})
	return removed
}

// Snapshot returns the current ring. Callers must treat it as read only.
func (r *MembershipRegistry) Snapshot() *shard.Ring {
	return r.ring.Load()
}

// apply publishes fn(current) with a compare-and-swap loop so concurrent
// updates of different members are never lost.
func (r *MembershipRegistry) apply(fn func(*shard.Ring) *shard.Ring) bool {
	for {
		current := r.ring.Load()
		next := fn(current)
		if next == current {
			return false
		}
		if r.ring.CompareAndSwap(current, next) {
			r.metrics.RecordRing(next.Len(), next.Size())
			logger.Debugw("Ring rebuilt", "members", next.Len(), "vnodes", next.Size(), "checksum", next.Checksum())
			return true
		}
	}
}

// LocalRoutingInfo holds the routing information this node last announced.
type LocalRoutingInfo struct {
	info atomic.Pointer[domain.MessageRoutingInformation]
}

func (l *LocalRoutingInfo) Set(info domain.MessageRoutingInformation) {
	l.info.Store(&info)
}

// Get returns false until the local member announced itself.
func (l *LocalRoutingInfo) Get() (domain.MessageRoutingInformation, bool) {
	info := l.info.Load()
	if info == nil {
		return domain.MessageRoutingInformation{}, false
	}
	return *info, true
}

package service

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

const (
	defaultPollInterval = 5 * time.Second
	maxInstanceBackoff  = time.Minute
)

// DirectorySync keeps the registry in line with the discovery directory.
// Each poll resolves new or changed instances through the configured
// RoutingInfoSource; instances that fail to resolve are treated as
// unroutable and backed off until a later poll succeeds.
type DirectorySync struct {
	directory    port.DiscoveryDirectory
	source       RoutingInfoSource
	registry     *MembershipRegistry
	localID      string
	pollInterval time.Duration
	metrics      *metrics.RouterMetrics
	now          func() time.Time

	pollMu  sync.Mutex
	mu      sync.Mutex
	applied map[string]port.ServiceInstance
	seen    map[string]shard.Member
	backoff map[string]time.Time
	fails   map[string]int

	stop     chan struct{}
	stopOnce sync.Once
}

func NewDirectorySync(directory port.DiscoveryDirectory, source RoutingInfoSource, registry *MembershipRegistry, localID string, pollInterval time.Duration, m *metrics.RouterMetrics) *DirectorySync {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &DirectorySync{
		directory:    directory,
		source:       source,
		registry:     registry,
		localID:      localID,
		pollInterval: pollInterval,
		metrics:      m,
		now:          time.Now,
		applied:      make(map[string]port.ServiceInstance),
		seen:         make(map[string]shard.Member),
		backoff:      make(map[string]time.Time),
		fails:        make(map[string]int),
		stop:         make(chan struct{}),
	}
}

// Start polls until ctx is done or Stop is called.
func (s *DirectorySync) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Initial poll
	_ = s.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			_ = s.Poll(ctx)
		}
	}
}

func (s *DirectorySync) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Poll reads the directory once and applies the differences. A directory
// error leaves the registry untouched.
func (s *DirectorySync) Poll(ctx context.Context) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	instances, err := s.directory.Instances(ctx)
	if err != nil {
		logger.Warnw("Failed to list directory instances", "error", err.Error())
		return err
	}

	now := s.now()
	present := make(map[string]struct{}, len(instances))
	var wg sync.WaitGroup
	for _, instance := range instances {
		if instance.ID == "" || instance.ID == s.localID {
			continue
		}
		present[instance.ID] = struct{}{}
		if s.isUnchanged(instance) || s.shouldSkip(instance.ID, now) {
			continue
		}

		wg.Add(1)
		go func(instance port.ServiceInstance) {
			defer wg.Done()
			_ = s.Apply(ctx, instance)
		}(instance)
	}
	wg.Wait()

	removed := s.registry.Retain(func(c shard.Capability) bool {
		if c.Member.ID == s.localID {
			return true
		}
		_, ok := present[c.Member.ID]
		return ok
	})
	for _, id := range removed {
		s.metrics.RecordMembership(metrics.SourceDirectory, metrics.OperationRemove)
		logger.Infow("Member left directory", "member", id)
	}
	s.forgetMissing(present)
	return nil
}

// Apply resolves one instance and updates the registry. On failure the
// member is removed from the ring until a later resolve succeeds.
func (s *DirectorySync) Apply(ctx context.Context, instance port.ServiceInstance) error {
	s.mu.Lock()
	s.seen[instance.ID] = instance.Member()
	s.mu.Unlock()

	info, err := s.source.RoutingInformation(ctx, instance)
	if err != nil {
		s.recordFailure(instance.ID)
		if errors.Is(err, port.ErrDecodeFailure) {
			s.metrics.RecordDecodeFailure(metrics.SourceDirectory)
		}
		if s.registry.Remove(instance.ID) {
			s.metrics.RecordMembership(metrics.SourceDirectory, metrics.OperationRemove)
		}
		logger.Warnw("Member temporarily unroutable", "member", instance.ID, "error", err.Error())
		return err
	}

	s.recordSuccess(instance)
	if s.registry.Update(info.Capability(instance.Member())) {
		s.metrics.RecordMembership(metrics.SourceDirectory, metrics.OperationUpdate)
		logger.Infow("Member capability updated", "member", instance.ID, "load_factor", info.LoadFactor, "filter", info.CommandFilter.String())
	}
	return nil
}

func (s *DirectorySync) isUnchanged(instance port.ServiceInstance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.applied[instance.ID]
	return ok && maps.Equal(last.Endpoints, instance.Endpoints) && maps.Equal(last.Metadata, instance.Metadata)
}

func (s *DirectorySync) shouldSkip(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.backoff[id]
	return ok && now.Before(next)
}

func (s *DirectorySync) recordFailure(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.applied, id)
	s.fails[id]++
	failCount := s.fails[id]
	if failCount > 6 {
		failCount = 6
	}
	backoff := s.pollInterval * time.Duration(1<<failCount)
	if backoff > maxInstanceBackoff {
		backoff = maxInstanceBackoff
	}
	s.backoff[id] = s.now().Add(backoff)
}

func (s *DirectorySync) recordSuccess(instance port.ServiceInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fails, instance.ID)
	delete(s.backoff, instance.ID)
	s.applied[instance.ID] = instance
}

func (s *DirectorySync) forgetMissing(present map[string]struct{}) {
	var gone []shard.Member
	s.mu.Lock()
	for id := range s.applied {
		if _, ok := present[id]; !ok {
			delete(s.applied, id)
		}
	}
	for id := range s.backoff {
		if _, ok := present[id]; !ok {
			delete(s.backoff, id)
			delete(s.fails, id)
		}
	}
	for id, member := range s.seen {
		if _, ok := present[id]; !ok {
			delete(s.seen, id)
			gone = append(gone, member)
		}
	}
	s.mu.Unlock()

	for _, member := range gone {
		s.source.Forget(member)
	}
}

// Forget drops what is remembered about an instance so the next poll
// resolves it again.
func (s *DirectorySync) Forget(id string) {
	s.mu.Lock()
	member, ok := s.seen[id]
	delete(s.applied, id)
	delete(s.seen, id)
	delete(s.backoff, id)
	delete(s.fails, id)
	s.mu.Unlock()

	if ok {
		s.source.Forget(member)
	}
}

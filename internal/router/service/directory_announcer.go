package service

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

const defaultHeartbeatInterval = 10 * time.Second

// DirectoryAnnouncer publishes the local member to the discovery directory
// and keeps its entry alive.
type DirectoryAnnouncer struct {
	directory     port.DiscoveryDirectory
	member        shard.Member
	metadata      map[string]string
	embedMetadata bool
	heartbeat     time.Duration
	registry      *MembershipRegistry
	local         *LocalRoutingInfo
	metrics       *metrics.RouterMetrics

	mu       sync.Mutex
	instance *port.ServiceInstance

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDirectoryAnnouncer creates an announcer. When embedMetadata is set the
// load factor and filter are written into the instance metadata, otherwise
// peers fetch them from the member.
func NewDirectoryAnnouncer(directory port.DiscoveryDirectory, member shard.Member, metadata map[string]string, embedMetadata bool, heartbeat time.Duration, registry *MembershipRegistry, local *LocalRoutingInfo, m *metrics.RouterMetrics) *DirectoryAnnouncer {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	return &DirectoryAnnouncer{
		directory:     directory,
		member:        member,
		metadata:      maps.Clone(metadata),
		embedMetadata: embedMetadata,
		heartbeat:     heartbeat,
		registry:      registry,
		local:         local,
		metrics:       m,
		stop:          make(chan struct{}),
	}
}

// Announce applies the capability locally, then registers the instance.
func (a *DirectoryAnnouncer) Announce(ctx context.Context, loadFactor int, filter command.Filter) error {
	if err := validateCapability(loadFactor, filter); err != nil {
		return err
	}

	info := domain.NewMessageRoutingInformation(a.member.ID, loadFactor, filter)
	instance, err := a.buildInstance(info)
	if err != nil {
		return err
	}

	a.local.Set(info)
	if a.registry.Update(info.Capability(a.member)) {
		a.metrics.RecordMembership(metrics.SourceLocal, metrics.OperationUpdate)
	}

	a.mu.Lock()
	a.instance = &instance
	a.mu.Unlock()

	if err := a.directory.Register(ctx, instance); err != nil {
		return fmt.Errorf("register %s: %w", a.member.ID, err)
	}
	logger.Infow("Registered in directory", "member", a.member.ID, "load_factor", loadFactor, "embedded", a.embedMetadata)
	return nil
}

// Start refreshes the registration every heartbeat until ctx is done or
// Close is called. Nothing is sent before the first Announce.
func (a *DirectoryAnnouncer) Start(ctx context.Context) {
	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stop:
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

// Close stops the heartbeat and removes the local instance.
func (a *DirectoryAnnouncer) Close(ctx context.Context) error {
	a.stopOnce.Do(func() {
		close(a.stop)
	})

	a.mu.Lock()
	registered := a.instance != nil
	a.mu.Unlock()
	if !registered {
		return nil
	}
	return a.directory.Deregister(ctx, a.member.ID)
}

func (a *DirectoryAnnouncer) refresh(ctx context.Context) {
	a.mu.Lock()
	instance := a.instance
	a.mu.Unlock()
	if instance == nil {
		return
	}
	if err := a.directory.Register(ctx, *instance); err != nil {
		logger.Warnw("Failed to refresh directory registration", "member", a.member.ID, "error", err.Error())
	}
}

func (a *DirectoryAnnouncer) buildInstance(info domain.MessageRoutingInformation) (port.ServiceInstance, error) {
	metadata := maps.Clone(a.metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if a.embedMetadata {
		embedded, err := domain.RoutingMetadata(info)
		if err != nil {
			return port.ServiceInstance{}, fmt.Errorf("encode routing metadata: %w", err)
		}
		maps.Copy(metadata, embedded)
	}
	metadata[domain.MetadataRoutingRevision] = info.Revision()

	return port.ServiceInstance{
		ID:        a.member.ID,
		Endpoints: maps.Clone(a.member.Endpoints),
		Metadata:  metadata,
	}, nil
}

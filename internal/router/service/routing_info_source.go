package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
)

// Routing information source names used in configuration.
const (
	SourceMetadata          = "metadata"
	SourceFetch             = "fetch"
	SourceMetadataWithFetch = "metadata_with_fetch"
)

// RoutingInfoSource turns a discovered instance into routing information.
type RoutingInfoSource interface {
	RoutingInformation(ctx context.Context, instance port.ServiceInstance) (domain.MessageRoutingInformation, error)
	// Forget releases per-member state once the member left the directory.
	Forget(member shard.Member)
}

// MetadataSource reads routing information embedded in instance metadata.
type MetadataSource struct {
	metrics *metrics.RouterMetrics
}

func NewMetadataSource(m *metrics.RouterMetrics) *MetadataSource {
	return &MetadataSource{metrics: m}
}

func (s *MetadataSource) RoutingInformation(_ context.Context, instance port.ServiceInstance) (domain.MessageRoutingInformation, error) {
	info, ok, err := domain.RoutingInformationFromMetadata(instance.ID, instance.Metadata)
	if !ok {
		return domain.MessageRoutingInformation{}, fmt.Errorf("%w: %s", port.ErrNoEmbeddedMetadata, instance.ID)
	}
	if err != nil {
		return domain.MessageRoutingInformation{}, fmt.Errorf("instance %s: %w", instance.ID, err)
	}
	s.metrics.RecordResolve(metrics.ResultEmbedded, 0)
	return info, nil
}

func (s *MetadataSource) Forget(shard.Member) {}

// FetchSource always asks the member itself.
type FetchSource struct {
	resolver *RoutingInfoResolver
}

func NewFetchSource(resolver *RoutingInfoResolver) *FetchSource {
	return &FetchSource{resolver: resolver}
}

func (s *FetchSource) RoutingInformation(ctx context.Context, instance port.ServiceInstance) (domain.MessageRoutingInformation, error) {
	return s.resolver.Resolve(ctx, instance.Member())
}

func (s *FetchSource) Forget(member shard.Member) {
	s.resolver.Forget(member)
}

// MetadataWithFetchSource uses embedded metadata when present and falls
// back to fetching from the member otherwise. Malformed embedded metadata is
// not retried over the network.
type MetadataWithFetchSource struct {
	metadata *MetadataSource
	fetch    *FetchSource
}

func NewMetadataWithFetchSource(metadata *MetadataSource, fetch *FetchSource) *MetadataWithFetchSource {
	return &MetadataWithFetchSource{metadata: metadata, fetch: fetch}
}

func (s *MetadataWithFetchSource) RoutingInformation(ctx context.Context, instance port.ServiceInstance) (domain.MessageRoutingInformation, error) {
	info, err := s.metadata.RoutingInformation(ctx, instance)
	if errors.Is(err, port.ErrNoEmbeddedMetadata) {
		return s.fetch.RoutingInformation(ctx, instance)
	}
	return info, err
}

func (s *MetadataWithFetchSource) Forget(member shard.Member) {
	s.fetch.Forget(member)
}

// NewRoutingInfoSource builds the source named in configuration.
func NewRoutingInfoSource(name string, resolver *RoutingInfoResolver, m *metrics.RouterMetrics) (RoutingInfoSource, error) {
	switch name {
	case SourceMetadata:
		return NewMetadataSource(m), nil
	case SourceFetch:
		return NewFetchSource(resolver), nil
	case SourceMetadataWithFetch, "":
		return NewMetadataWithFetchSource(NewMetadataSource(m), NewFetchSource(resolver)), nil
	default:
		return nil, fmt.Errorf("unknown routing information source %q", name)
	}
}

package port

import (
	"context"

	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
)

//go:generate mockgen -destination=../service/mocks/directory_mock.go -package=mocks -source=directory.go

// ServiceInstance is one entry of the discovery directory.
// Metadata may or may not embed routing information.
type ServiceInstance struct {
	ID        string            `json:"id"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Member returns the routing member the instance represents.
func (i ServiceInstance) Member() shard.Member {
	return shard.NewMember(i.ID, i.Endpoints)
}

// DiscoveryDirectory enumerates the current service instances.
type DiscoveryDirectory interface {
	// Register creates or refreshes an instance entry.
	Register(ctx context.Context, instance ServiceInstance) error

	// Deregister removes an instance entry.
	Deregister(ctx context.Context, instanceID string) error

	// Instances lists every live instance.
	Instances(ctx context.Context) ([]ServiceInstance, error)
}

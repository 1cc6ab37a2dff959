package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/service/mocks"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDirectoryAnnouncer_AnnounceEmbedsMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDiscoveryDirectory(ctrl)
	registry := NewMembershipRegistry(nil)
	local := &LocalRoutingInfo{}
	a := NewDirectoryAnnouncer(directory, localMember, map[string]string{"zone": "a"}, true, time.Second, registry, local, nil)

	var registered port.ServiceInstance
	directory.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, instance port.ServiceInstance) error {
		registered = instance
		return nil
	})

	require.NoError(t, a.Announce(context.Background(), 2, command.CommandNames("Ship")))

	assert.Equal(t, "node-a", registered.ID)
	assert.Equal(t, "a", registered.Metadata["zone"])
	assert.Equal(t, "http://node-a:8080", registered.Endpoints[shard.ProtocolHTTP])
	info, ok, err := domain.RoutingInformationFromMetadata(registered.ID, registered.Metadata)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, info.LoadFactor)
	assert.Equal(t, info.Revision(), registered.Metadata[domain.MetadataRoutingRevision])

	_, ok = local.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, registry.Snapshot().Size())
}

func TestDirectoryAnnouncer_FetchOnlyPublishesRevision(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDiscoveryDirectory(ctrl)
	a := NewDirectoryAnnouncer(directory, localMember, nil, false, time.Second, NewMembershipRegistry(nil), &LocalRoutingInfo{}, nil)

	directory.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, instance port.ServiceInstance) error {
		_, hasLoad := instance.Metadata[domain.MetadataLoadFactor]
		assert.False(t, hasLoad)
		assert.NotEmpty(t, instance.Metadata[domain.MetadataRoutingRevision])
		return nil
	})
	require.NoError(t, a.Announce(context.Background(), 1, command.AcceptAll()))
}

func TestDirectoryAnnouncer_RegisterFailureStillAppliesLocally(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDiscoveryDirectory(ctrl)
	registry := NewMembershipRegistry(nil)
	a := NewDirectoryAnnouncer(directory, localMember, nil, true, time.Second, registry, &LocalRoutingInfo{}, nil)

	directory.EXPECT().Register(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	assert.Error(t, a.Announce(context.Background(), 1, command.AcceptAll()))
	assert.Equal(t, 1, registry.Snapshot().Len())
}

func TestDirectoryAnnouncer_HeartbeatAndClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDiscoveryDirectory(ctrl)
	a := NewDirectoryAnnouncer(directory, localMember, nil, true, 10*time.Millisecond, NewMembershipRegistry(nil), &LocalRoutingInfo{}, nil)

	refreshed := make(chan struct{}, 8)
	directory.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, port.ServiceInstance) error {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return nil
	}).MinTimes(2)
	directory.EXPECT().Deregister(gomock.Any(), "node-a").Return(nil)

	require.NoError(t, a.Announce(context.Background(), 1, command.AcceptAll()))
	<-refreshed

	done := make(chan struct{})
	go func() {
		a.Start(context.Background())
		close(done)
	}()

	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("no heartbeat")
	}

	require.NoError(t, a.Close(context.Background()))
	<-done
}

func TestDirectoryAnnouncer_CloseBeforeAnnounce(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := NewDirectoryAnnouncer(mocks.NewMockDiscoveryDirectory(ctrl), localMember, nil, true, time.Second, NewMembershipRegistry(nil), &LocalRoutingInfo{}, nil)
	assert.NoError(t, a.Close(context.Background()))
}

package grpc_handler

import (
	"context"
	"testing"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/grpcapi"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/service/mocks"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestServer_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockCommandRouter(ctrl)
	s := NewServer(router)

	router.EXPECT().LocalRoutingInformation().Return(domain.MessageRoutingInformation{}, false)
	_, err := s.Get(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	router.EXPECT().LocalRoutingInformation().Return(domain.NewMessageRoutingInformation("node-a", 2, command.DenyAll()), true)
	out, err := s.Get(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	info, err := grpcapi.FromStruct(out)
	require.NoError(t, err)
	assert.Equal(t, "node-a", info.MemberID)
	assert.Equal(t, 2, info.LoadFactor)
}

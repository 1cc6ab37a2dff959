package grpc_handler

import (
	"context"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/grpcapi"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/gosdk/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements the gRPC RoutingInformation service.
type Server struct {
	router port.CommandRouter
}

var _ grpcapi.RoutingInformationServer = (*Server)(nil)

func NewServer(router port.CommandRouter) *Server {
	return &Server{
		router: router,
	}
}

// Get returns the local routing information, or FailedPrecondition before
// the local member announced itself.
func (s *Server) Get(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	info, ok := s.router.LocalRoutingInformation()
	if !ok {
		return nil, status.Error(codes.FailedPrecondition, port.ErrLocalMembershipUnset.Error())
	}

	out, err := grpcapi.ToStruct(info)
	if err != nil {
		logger.Errorw("Failed to encode routing information", "member", info.MemberID, "error", err.Error())
		return nil, status.Errorf(codes.Internal, "encode routing information: %v", err)
	}
	return out, nil
}

// Package grpcapi holds the gRPC contract of the RoutingInformation service.
// Messages are well-known protobuf types, so no generated code is needed.
package grpcapi

import (
	"context"
	"fmt"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "commandrouter.v1.RoutingInformation"
	GetFullMethod = "/" + ServiceName + "/Get"
)

// RoutingInformationServer serves the local member's routing information.
type RoutingInformationServer interface {
	Get(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

var RoutingInformationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoutingInformationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler:    getHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "commandrouter/v1/routing_information.proto",
}

func RegisterRoutingInformationServer(s grpc.ServiceRegistrar, srv RoutingInformationServer) {
	s.RegisterService(&RoutingInformationServiceDesc, srv)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutingInformationServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoutingInformationServer).Get(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ToStruct carries the JSON form of info in a protobuf Struct.
func ToStruct(info domain.MessageRoutingInformation) (*structpb.Struct, error) {
	data, err := domain.EncodeRoutingInformation(info)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert routing information: %w", err)
	}
	return out, nil
}

// FromStruct decodes routing information sent by ToStruct.
func FromStruct(s *structpb.Struct) (domain.MessageRoutingInformation, error) {
	if s == nil {
		return domain.MessageRoutingInformation{}, fmt.Errorf("%w: empty response", domain.ErrMalformed)
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return domain.MessageRoutingInformation{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return domain.DecodeRoutingInformation(data)
}

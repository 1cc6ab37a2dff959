package routing_client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/grpcapi"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubServer struct {
	info domain.MessageRoutingInformation
	err  error
}

func (s *stubServer) Get(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if s.err != nil {
		return nil, s.err
	}
	return grpcapi.ToStruct(s.info)
}

func startBufServer(t *testing.T, srv grpcapi.RoutingInformationServer) *GRPCFetcher {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	grpcapi.RegisterRoutingInformationServer(server, srv)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	fetcher := NewGRPCFetcher(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	t.Cleanup(func() { _ = fetcher.Close() })
	return fetcher
}

func TestGRPCFetcher_Fetch(t *testing.T) {
	fetcher := startBufServer(t, &stubServer{
		info: domain.NewMessageRoutingInformation("node-b", 4, command.PayloadFieldEquals("region", "eu")),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	info, err := fetcher.Fetch(ctx, "passthrough:///bufnet")
	require.NoError(t, err)
	assert.Equal(t, "node-b", info.MemberID)
	assert.Equal(t, 4, info.LoadFactor)
	assert.True(t, info.CommandFilter.Matches(command.Message{Payload: map[string]any{"region": "eu"}}))
}

func TestGRPCFetcher_ServerError(t *testing.T) {
	fetcher := startBufServer(t, &stubServer{err: status.Error(codes.FailedPrecondition, "not announced")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := fetcher.Fetch(ctx, "passthrough:///bufnet")
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestNormalizeRPCErr(t *testing.T) {
	assert.ErrorIs(t, normalizeRPCErr(context.Background(), status.Error(codes.Canceled, "x")), context.Canceled)
	assert.ErrorIs(t, normalizeRPCErr(context.Background(), status.Error(codes.DeadlineExceeded, "x")), context.DeadlineExceeded)
	assert.Equal(t, codes.Unavailable, status.Code(normalizeRPCErr(context.Background(), status.Error(codes.Unavailable, "x"))))
}

package routing_client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/grpcapi"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
)

// GRPCFetcher fetches routing information from the RoutingInformation gRPC
// service. Connections are cached per endpoint.
type GRPCFetcher struct {
	conns    map[string]*grpc.ClientConn
	dialOpts []grpc.DialOption
	mu       sync.RWMutex
}

var _ port.RoutingInfoFetcher = (*GRPCFetcher)(nil)

func NewGRPCFetcher(opts ...grpc.DialOption) *GRPCFetcher {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCFetcher{
		conns:    make(map[string]*grpc.ClientConn),
		dialOpts: opts,
	}
}

func (f *GRPCFetcher) Protocol() string {
	return shard.ProtocolGRPC
}

func (f *GRPCFetcher) Fetch(ctx context.Context, addr string) (domain.MessageRoutingInformation, error) {
	conn, err := f.getConn(addr)
	if err != nil {
		return domain.MessageRoutingInformation{}, err
	}

	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, grpcapi.GetFullMethod, &emptypb.Empty{}, out); err != nil {
		err = normalizeRPCErr(ctx, err)
		if status.Code(err) == codes.Unavailable {
			f.dropConn(addr)
		}
		return domain.MessageRoutingInformation{}, fmt.Errorf("%s %s: %w", grpcapi.GetFullMethod, addr, err)
	}
	return grpcapi.FromStruct(out)
}

// Close releases every cached connection.
func (f *GRPCFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for addr, conn := range f.conns {
		errs = append(errs, conn.Close())
		delete(f.conns, addr)
	}
	return errors.Join(errs...)
}

func (f *GRPCFetcher) getConn(addr string) (*grpc.ClientConn, error) {
	f.mu.RLock()
	conn, ok := f.conns[addr]
	f.mu.RUnlock()
	if ok {
		return conn, nil
	}

	newConn, err := grpc.NewClient(addr, f.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if conn, ok := f.conns[addr]; ok {
		_ = newConn.Close()
		return conn, nil
	}
	f.conns[addr] = newConn
	return newConn, nil
}

func (f *GRPCFetcher) dropConn(addr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conn, ok := f.conns[addr]; ok {
		_ = conn.Close()
		delete(f.conns, addr)
	}
}

func normalizeRPCErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return err
}

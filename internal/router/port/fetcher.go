package port

import (
	"context"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
)

//go:generate mockgen -destination=../service/mocks/fetcher_mock.go -package=mocks -source=fetcher.go

// RoutingInfoFetcher retrieves a member's routing information point to point.
type RoutingInfoFetcher interface {
	// Protocol is the endpoint protocol this fetcher speaks (shard.ProtocolHTTP, ...).
	Protocol() string

	// Fetch requests the routing information served at endpoint. Errors wrap
	// ErrDecodeFailure when the response could not be decoded.
	Fetch(ctx context.Context, endpoint string) (domain.MessageRoutingInformation, error)
}

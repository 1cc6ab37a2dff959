package routing_client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/gofiber/fiber/v2"
)

const defaultHTTPTimeout = 3 * time.Second

// HTTPFetcher fetches routing information with the fiber client.
type HTTPFetcher struct {
	timeout time.Duration
}

var _ port.RoutingInfoFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher. timeout applies when the context has no
// earlier deadline.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPFetcher{timeout: timeout}
}

func (f *HTTPFetcher) Protocol() string {
	return shard.ProtocolHTTP
}

// Fetch issues GET <baseURI>/message-routing-information.
func (f *HTTPFetcher) Fetch(ctx context.Context, baseURI string) (domain.MessageRoutingInformation, error) {
	if err := ctx.Err(); err != nil {
		return domain.MessageRoutingInformation{}, err
	}

	target, err := RoutingInformationURL(baseURI)
	if err != nil {
		return domain.MessageRoutingInformation{}, err
	}

	agent := fiber.Get(target)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return domain.MessageRoutingInformation{}, fmt.Errorf("invalid endpoint %q: %w", baseURI, err)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Timeout(f.requestTimeout(ctx)).Bytes()
	if len(errs) > 0 {
		return domain.MessageRoutingInformation{}, fmt.Errorf("GET %s: %w", target, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return domain.MessageRoutingInformation{}, fmt.Errorf("GET %s: unexpected status %d", target, code)
	}
	return domain.DecodeRoutingInformation(body)
}

func (f *HTTPFetcher) requestTimeout(ctx context.Context) time.Duration {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

// RoutingInformationURL appends the fixed routing information path to the
// path of baseURI. Query and fragment are dropped.
func RoutingInformationURL(baseURI string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", baseURI, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", baseURI)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.JoinPath(domain.MessageRoutingInformationPath).String(), nil
}

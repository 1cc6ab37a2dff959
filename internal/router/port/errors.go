package port

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
)

var (
	// ErrDecodeFailure marks a malformed join message or routing information body.
	ErrDecodeFailure = domain.ErrMalformed
	// ErrEndpointUnavailable marks a member without any usable fetch endpoint.
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
	// ErrRoutingInfoUnreachable marks a failed backup fetch (network, timeout or bad response).
	ErrRoutingInfoUnreachable = errors.New("routing information unreachable")
	// ErrLocalMembershipUnset is returned before the local member announced itself.
	ErrLocalMembershipUnset = errors.New("local membership not announced yet")
	ErrInvalidLoadFactor    = errors.New("load factor must not be negative")
	ErrNoEmbeddedMetadata   = errors.New("instance carries no routing metadata")
	ErrRoutingKeyUnresolved = command.ErrRoutingKeyUnresolved
)

// EndpointUnavailableError reports which protocols were looked for on a member.
type EndpointUnavailableError struct {
	MemberID  string
	Protocols []string
}

func (e *EndpointUnavailableError) Error() string {
	return fmt.Sprintf("%v: member %s advertises none of [%s]", ErrEndpointUnavailable, e.MemberID, strings.Join(e.Protocols, ", "))
}

func (e *EndpointUnavailableError) Is(target error) bool {
	return target == ErrEndpointUnavailable
}

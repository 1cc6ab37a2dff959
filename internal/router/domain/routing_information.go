package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/spaolacci/murmur3"
)

var ErrMalformed = errors.New("malformed routing message")

// MessageRoutingInformationPath is where every member serves its own
// MessageRoutingInformation, appended to the member's advertised base URI.
const MessageRoutingInformationPath = "/message-routing-information"

// Directory metadata keys used when routing information is embedded in a
// service instance. MetadataRoutingRevision is always published so watchers
// notice a changed capability even when it is only fetchable.
const (
	MetadataLoadFactor      = "load_factor"
	MetadataCommandFilter   = "command_filter"
	MetadataRoutingRevision = "routing_revision"
)

// MessageRoutingInformation is the fetchable form of a member's capability,
// keyed by the member's directory identity.
type MessageRoutingInformation struct {
	MemberID      string         `json:"member_id"`
	LoadFactor    int            `json:"load_factor"`
	CommandFilter command.Filter `json:"command_filter"`
}

func NewMessageRoutingInformation(memberID string, loadFactor int, filter command.Filter) MessageRoutingInformation {
	return MessageRoutingInformation{MemberID: memberID, LoadFactor: loadFactor, CommandFilter: filter}
}

// Capability binds the routing information to the member it was fetched for.
func (i MessageRoutingInformation) Capability(member shard.Member) shard.Capability {
	return shard.NewCapability(member, i.LoadFactor, i.CommandFilter)
}

// Validate rejects information a router cannot act on.
func (i MessageRoutingInformation) Validate() error {
	if i.LoadFactor < 0 {
		return fmt.Errorf("%w: negative load factor %d", ErrMalformed, i.LoadFactor)
	}
	if err := i.CommandFilter.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Revision is a short digest of the routing relevant fields.
func (i MessageRoutingInformation) Revision() string {
	sum := murmur3.Sum32([]byte(fmt.Sprintf("%s:%d:%s", i.MemberID, i.LoadFactor, i.CommandFilter.Canonical())))
	return fmt.Sprintf("%08x", sum)
}

func EncodeRoutingInformation(info MessageRoutingInformation) ([]byte, error) {
	return json.Marshal(info)
}

func DecodeRoutingInformation(data []byte) (MessageRoutingInformation, error) {
	var info MessageRoutingInformation
	if len(data) == 0 {
		return info, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return MessageRoutingInformation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := info.Validate(); err != nil {
		return MessageRoutingInformation{}, err
	}
	return info, nil
}

// RoutingMetadata renders the information as flat directory metadata.
func RoutingMetadata(info MessageRoutingInformation) (map[string]string, error) {
	filter, err := json.Marshal(info.CommandFilter)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		MetadataLoadFactor:    strconv.Itoa(info.LoadFactor),
		MetadataCommandFilter: string(filter),
	}, nil
}

// RoutingInformationFromMetadata reads information embedded by
// RoutingMetadata. ok is false when the metadata carries none.
func RoutingInformationFromMetadata(memberID string, metadata map[string]string) (info MessageRoutingInformation, ok bool, err error) {
	rawLoad, hasLoad := metadata[MetadataLoadFactor]
	rawFilter, hasFilter := metadata[MetadataCommandFilter]
	if !hasLoad || !hasFilter {
		return MessageRoutingInformation{}, false, nil
	}

	loadFactor, err := strconv.Atoi(rawLoad)
	if err != nil {
		return MessageRoutingInformation{}, true, fmt.Errorf("%w: load factor %q", ErrMalformed, rawLoad)
	}
	filter, err := command.ParseFilter([]byte(rawFilter))
	if err != nil {
		return MessageRoutingInformation{}, true, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	info = NewMessageRoutingInformation(memberID, loadFactor, filter)
	if err := info.Validate(); err != nil {
		return MessageRoutingInformation{}, true, err
	}
	return info, true, nil
}

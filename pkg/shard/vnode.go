package shard

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
)

// Well-known endpoint protocols a member can advertise.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Member represents a physical node able to handle commands.
// Members are compared by ID only; Endpoints maps a protocol to the
// connection info peers use to reach the member directly.
type Member struct {
	ID        string            `json:"id"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

func NewMember(id string, endpoints map[string]string) Member {
	return Member{ID: id, Endpoints: maps.Clone(endpoints)}
}

// Endpoint returns the connection info advertised for protocol.
func (m Member) Endpoint(protocol string) (string, bool) {
	ep, ok := m.Endpoints[protocol]
	if !ok || strings.TrimSpace(ep) == "" {
		return "", false
	}
	return ep, true
}

func (m Member) Equal(other Member) bool {
	return m.ID == other.ID
}

func (m Member) String() string {
	if len(m.Endpoints) == 0 {
		return m.ID
	}
	protocols := make([]string, 0, len(m.Endpoints))
	for p := range m.Endpoints {
		protocols = append(protocols, p+"="+m.Endpoints[p])
	}
	sort.Strings(protocols)
	return fmt.Sprintf("%s[%s]", m.ID, strings.Join(protocols, ","))
}

// Capability is a member's advertised weight and command filter.
// Capabilities are replaced whole on every announcement, never mutated.
type Capability struct {
	Member     Member         `json:"member"`
	LoadFactor int            `json:"load_factor"`
	Filter     command.Filter `json:"command_filter"`
}

func NewCapability(member Member, loadFactor int, filter command.Filter) Capability {
	if loadFactor < 0 {
		loadFactor = 0
	}
	return Capability{Member: member, LoadFactor: loadFactor, Filter: filter}
}

// Accepts reports whether the member is willing to handle msg.
func (c Capability) Accepts(msg command.Message) bool {
	return c.Filter.Matches(msg)
}

// sameRouting reports whether both capabilities produce identical ring
// positions and lookups.
func (c Capability) sameRouting(other Capability) bool {
	return c.Member.ID == other.Member.ID &&
		c.LoadFactor == other.LoadFactor &&
		c.Filter.Canonical() == other.Filter.Canonical()
}

// VNode represents a virtual node on the ring.
// It points to a physical Member by ID.
type VNode struct {
	Token    uint64
	MemberID string
}

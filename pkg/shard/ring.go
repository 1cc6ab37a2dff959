package shard

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/spaolacci/murmur3"
)

// Ring is an immutable consistent hashing ring of member capabilities.
//
// Every member owns exactly LoadFactor virtual nodes. Mutations return a new
// Ring and leave the receiver untouched, so a *Ring can be shared between
// goroutines without locking.
type Ring struct {
	vnodes   []VNode // Sorted by token, then member ID
	members  map[string]Capability
	checksum uint32
}

// NewRing creates an empty ring. It routes nothing.
func NewRing(capabilities ...Capability) *Ring {
	r := &Ring{members: make(map[string]Capability)}
	for _, c := range capabilities {
		r = r.WithMember(c)
	}
	return r
}

// WithMember returns a ring where the member's previous virtual nodes, if any,
// are replaced by LoadFactor new ones. Re-announcing an identical capability
// returns the receiver unchanged.
func (r *Ring) WithMember(c Capability) *Ring {
	if existing, ok := r.members[c.Member.ID]; ok &&
		existing.sameRouting(c) && maps.Equal(existing.Member.Endpoints, c.Member.Endpoints) {
		return r
	}

	next := &Ring{
		vnodes:  make([]VNode, 0, len(r.vnodes)+c.LoadFactor),
		members: make(map[string]Capability, len(r.members)+1),
	}
	for id, existing := range r.members {
		if id != c.Member.ID {
			next.members[id] = existing
		}
	}
	next.members[c.Member.ID] = c

	for _, vn := range r.vnodes {
		if vn.MemberID != c.Member.ID {
			next.vnodes = append(next.vnodes, vn)
		}
	}
	for i := 0; i < c.LoadFactor; i++ {
		next.vnodes = append(next.vnodes, VNode{
			Token:    vnodeToken(c.Member.ID, i),
			MemberID: c.Member.ID,
		})
	}
	next.sortVNodes()
	next.checksum = next.computeChecksum()
	return next
}

// WithoutMember returns a ring without any virtual node of the member.
func (r *Ring) WithoutMember(memberID string) *Ring {
	if _, ok := r.members[memberID]; !ok {
		return r
	}

	next := &Ring{
		vnodes:  make([]VNode, 0, len(r.vnodes)),
		members: make(map[string]Capability, len(r.members)),
	}
	for id, existing := range r.members {
		if id != memberID {
			next.members[id] = existing
		}
	}
	// Filtering a sorted slice keeps it sorted.
	for _, vn := range r.vnodes {
		if vn.MemberID != memberID {
			next.vnodes = append(next.vnodes, vn)
		}
	}
	next.checksum = next.computeChecksum()
	return next
}

// Route finds the member responsible for key that accepts msg.
// It starts at the first virtual node with token >= hash(key) and walks
// clockwise past members whose filter rejects msg. The boolean is false when
// the ring is empty or no member accepts the command.
func (r *Ring) Route(key string, msg command.Message) (Member, bool) {
	return r.locate(HashKey(key), msg)
}

// locate is Route for an already hashed key.
func (r *Ring) locate(token uint64, msg command.Message) (Member, bool) {
	if len(r.vnodes) == 0 {
		return Member{}, false
	}

	// Binary search for the first vnode with token >= target token
	start := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].Token >= token
	})

	visited := make(map[string]struct{}, len(r.members))
	for i := 0; i < len(r.vnodes); i++ {
		vn := r.vnodes[(start+i)%len(r.vnodes)]
		if _, seen := visited[vn.MemberID]; seen {
			continue
		}
		visited[vn.MemberID] = struct{}{}

		if c := r.members[vn.MemberID]; c.Accepts(msg) {
			return c.Member, true
		}
		if len(visited) == len(r.members) {
			break
		}
	}
	return Member{}, false
}

// Member returns the capability registered for memberID.
func (r *Ring) Member(memberID string) (Capability, bool) {
	c, ok := r.members[memberID]
	return c, ok
}

// Members returns all capabilities sorted by member ID.
func (r *Ring) Members() []Capability {
	out := make([]Capability, 0, len(r.members))
	for _, c := range r.members {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Member.ID < out[j].Member.ID
	})
	return out
}

// Len returns the number of members, including those with load factor 0.
func (r *Ring) Len() int {
	return len(r.members)
}

// Size returns the number of virtual nodes on the ring.
func (r *Ring) Size() int {
	return len(r.vnodes)
}

// VNodes returns a copy of the virtual nodes in ring order.
func (r *Ring) VNodes() []VNode {
	out := make([]VNode, len(r.vnodes))
	copy(out, r.vnodes)
	return out
}

// Checksum fingerprints the routing-relevant content of the ring. Two rings
// with the same checksum route every key to the same member.
func (r *Ring) Checksum() uint32 {
	return r.checksum
}

func (r *Ring) computeChecksum() uint32 {
	members := r.Members()
	parts := make([]string, 0, len(members))
	for _, c := range members {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", c.Member.ID, c.LoadFactor, c.Filter.Canonical()))
	}
	return murmur3.Sum32([]byte(strings.Join(parts, ";")))
}

func (r *Ring) sortVNodes() {
	sort.Slice(r.vnodes, func(i, j int) bool {
		if r.vnodes[i].Token != r.vnodes[j].Token {
			return r.vnodes[i].Token < r.vnodes[j].Token
		}
		return r.vnodes[i].MemberID < r.vnodes[j].MemberID
	})
}

// HashKey maps a routing key onto the ring.
// Using Murmur3 for better distribution.
func HashKey(key string) uint64 {
	return murmur3.Sum64([]byte(key))
}

func vnodeToken(memberID string, i int) uint64 {
	return HashKey(fmt.Sprintf("%s-%d", memberID, i))
}

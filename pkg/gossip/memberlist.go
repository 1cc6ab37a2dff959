package gossip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/pkg/resilience"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/hashicorp/memberlist"
)

var ErrTransportClosed = errors.New("gossip transport is closed")

// Handler consumes what the transport delivers. Calls run on the transport's
// worker pool, never on memberlist's own goroutines.
type Handler interface {
	HandleMessage(payload []byte) error
	HandleDeparture(memberID string)
	LocalAnnouncement() []byte
}

type Config struct {
	NodeID   string
	BindAddr string
	BindPort int
	// Endpoints are advertised in the node metadata (protocol -> address).
	Endpoints      map[string]string
	Workers        int
	QueueSize      int
	RetransmitMult int
}

// Transport is a memberlist-backed group transport. Join messages are
// gossiped through a TransmitLimitedQueue and exchanged in full during
// push/pull so late joiners learn every capability.
type Transport struct {
	list  *memberlist.Memberlist
	conf  *memberlist.Config
	queue *memberlist.TransmitLimitedQueue
	pool  *resilience.WorkerPool

	nodeID    string
	endpoints map[string]string

	handler atomic.Pointer[handlerRef]

	mu      sync.RWMutex
	members map[string]shard.Member

	closed atomic.Bool
}

type handlerRef struct {
	h Handler
}

// Ensure Transport implements the memberlist delegates
var (
	_ memberlist.Delegate      = (*Transport)(nil)
	_ memberlist.EventDelegate = (*Transport)(nil)
)

// NewTransport creates the transport and starts memberlist. Call OnReceive
// before Join so no early message is dropped.
func NewTransport(cfg Config) (*Transport, error) {
	t := newTransport(cfg)

	conf := memberlist.DefaultLANConfig()
	conf.Name = cfg.NodeID
	conf.BindAddr = cfg.BindAddr
	conf.BindPort = cfg.BindPort
	conf.AdvertisePort = cfg.BindPort

	// memberlist logs are too chatty for the node log
	conf.LogOutput = io.Discard

	conf.Events = t
	conf.Delegate = t
	t.conf = conf

	list, err := memberlist.Create(conf)
	if err != nil {
		t.pool.Close()
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	t.list = list
	return t, nil
}

func newTransport(cfg Config) *Transport {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	retransmit := cfg.RetransmitMult
	if retransmit <= 0 {
		retransmit = memberlist.DefaultLANConfig().RetransmitMult
	}

	t := &Transport{
		pool:      resilience.NewWorkerPool(workers, cfg.QueueSize),
		nodeID:    cfg.NodeID,
		endpoints: maps.Clone(cfg.Endpoints),
		members:   make(map[string]shard.Member),
	}
	t.members[cfg.NodeID] = shard.NewMember(cfg.NodeID, cfg.Endpoints)
	t.queue = &memberlist.TransmitLimitedQueue{
		NumNodes:       t.numNodes,
		RetransmitMult: retransmit,
	}
	return t
}

// OnReceive registers the handler for messages, state exchange and departures.
func (t *Transport) OnReceive(h Handler) {
	t.handler.Store(&handlerRef{h: h})
}

// Join contacts the seed nodes.
func (t *Transport) Join(seeds []string) error {
	if len(seeds) == 0 {
		return nil
	}
	if _, err := t.list.Join(seeds); err != nil {
		return fmt.Errorf("failed to join cluster: %w", err)
	}
	return nil
}

// Leave leaves the cluster and stops the workers.
func (t *Transport) Leave(timeout time.Duration) error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if t.list != nil {
		err = errors.Join(t.list.Leave(timeout), t.list.Shutdown())
	}
	t.pool.Close()
	t.pool.Wait()
	return err
}

func (t *Transport) LocalMember() shard.Member {
	return shard.NewMember(t.nodeID, t.endpoints)
}

// Member resolves a node name to the member it advertised.
func (t *Transport) Member(address string) (shard.Member, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.members[address]
	return m, ok
}

// Broadcast queues payload for gossip. A newer payload from the same sender
// replaces one still in the queue.
func (t *Transport) Broadcast(payload []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	t.queue.QueueBroadcast(&joinBroadcast{
		sender: t.nodeID,
		msg:    append([]byte(nil), payload...),
	})
	return nil
}

// NodeMeta returns the local node metadata.
func (t *Transport) NodeMeta(limit int) []byte {
	data, err := json.Marshal(nodeMeta{Endpoints: t.endpoints})
	if err != nil {
		logger.Warnw("failed to marshal gossip node meta", "error", err.Error())
		return nil
	}
	if len(data) > limit {
		logger.Warnw("gossip node meta exceeds limit", "size", len(data), "limit", limit)
		return nil
	}
	return data
}

// NotifyMsg hands a gossiped join message to the handler. The buffer is
// owned by memberlist, so it is copied first.
func (t *Transport) NotifyMsg(buf []byte) {
	if len(buf) == 0 {
		return
	}
	payload := append([]byte(nil), buf...)
	t.dispatch(func(h Handler) {
		_ = h.HandleMessage(payload)
	})
}

func (t *Transport) GetBroadcasts(overhead, limit int) [][]byte {
	return t.queue.GetBroadcasts(overhead, limit)
}

// LocalState sends the last local join message during push/pull.
func (t *Transport) LocalState(join bool) []byte {
	ref := t.handler.Load()
	if ref == nil {
		return nil
	}
	return ref.h.LocalAnnouncement()
}

func (t *Transport) MergeRemoteState(buf []byte, join bool) {
	t.NotifyMsg(buf)
}

// NotifyJoin is invoked when a node joins.
func (t *Transport) NotifyJoin(node *memberlist.Node) {
	m := t.storeNode(node)
	logger.Infow("Node joined", "id", m.ID, "endpoints", m.Endpoints)
}

// NotifyUpdate is invoked when a node's metadata changes.
func (t *Transport) NotifyUpdate(node *memberlist.Node) {
	t.storeNode(node)
}

// NotifyLeave is invoked when a node leaves or is declared dead.
func (t *Transport) NotifyLeave(node *memberlist.Node) {
	if node.Name == t.nodeID {
		return
	}
	t.mu.Lock()
	delete(t.members, node.Name)
	t.mu.Unlock()

	logger.Infow("Node left", "id", node.Name)
	ref := t.handler.Load()
	if ref == nil || t.closed.Load() {
		return
	}
	name := node.Name
	if err := t.pool.Submit(context.Background(), func() { ref.h.HandleDeparture(name) }); err != nil {
		logger.Warnw("Dropping departure notification", "id", name, "error", err.Error())
	}
}

func (t *Transport) storeNode(node *memberlist.Node) shard.Member {
	m := shard.NewMember(node.Name, decodeMeta(node.Meta))
	if node.Name == t.nodeID {
		m = t.LocalMember()
	}
	t.mu.Lock()
	t.members[node.Name] = m
	t.mu.Unlock()
	return m
}

func (t *Transport) dispatch(fn func(Handler)) {
	ref := t.handler.Load()
	if ref == nil {
		logger.Debugw("Dropping gossip message, no handler registered")
		return
	}
	if err := t.pool.TryDispatch(func() { fn(ref.h) }); err != nil {
		logger.Warnw("Dropping gossip message", "error", err.Error(), "dropped_total", t.pool.Dropped())
	}
}

func (t *Transport) numNodes() int {
	if t.list == nil {
		return 1
	}
	return t.list.NumMembers()
}

type nodeMeta struct {
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

func decodeMeta(meta []byte) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	var m nodeMeta
	if err := json.Unmarshal(meta, &m); err != nil {
		logger.Warnw("failed to decode node metadata", "error", err.Error())
		return nil
	}
	return m.Endpoints
}

// joinBroadcast is one queued join message.
type joinBroadcast struct {
	sender string
	msg    []byte
}

func (b *joinBroadcast) Invalidates(other memberlist.Broadcast) bool {
	o, ok := other.(*joinBroadcast)
	return ok && o.sender == b.sender
}

func (b *joinBroadcast) Message() []byte {
	return b.msg
}

func (b *joinBroadcast) Finished() {}

package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/goccy/go-json"
)

// EventCSVListUpdated is sent after every successful upload or delete.
const EventCSVListUpdated = "csv_list_updated"

// Event is the structured frame pushed to every connection.
type Event struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Transport is one client's outbound channel.
type Transport interface {
	WriteText(payload []byte) error
	Close() error
}

// Handle identifies a registered connection.
type Handle struct {
	id        uint64
	transport Transport
	closeOnce sync.Once
}

func (h *Handle) ID() uint64 { return h.id }

func (h *Handle) close() {
	h.closeOnce.Do(func() { _ = h.transport.Close() })
}

// BroadcastResult reports how many connections received an event and how
// many were dropped because the write failed.
type BroadcastResult struct {
	Delivered int
	Pruned    int
}

// Metrics receives registry observations. A nil Metrics is allowed.
type Metrics interface {
	ConnectionsChanged(n int)
	Broadcasted(res BroadcastResult)
}

type Registry struct {
	mu     sync.Mutex
	conns  []*Handle
	nextID uint64
	closed bool

	log     logging.Logger
	metrics Metrics
}

type Option func(*Registry)

func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(log logging.Logger, opts ...Option) *Registry {
	r := &Registry{log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Connect registers t. The connection is part of every Broadcast that
// starts after Connect returns. After CloseAll the transport is closed
// immediately and the returned handle is not registered.
func (r *Registry) Connect(t Transport) *Handle {
	r.mu.Lock()
	r.nextID++
	h := &Handle{id: r.nextID, transport: t}
	if r.closed {
		r.mu.Unlock()
		h.close()
		return h
	}
	r.conns = append(r.conns, h)
	r.connectionsChanged(len(r.conns))
	r.mu.Unlock()

	return h
}

// Disconnect removes h and closes its transport. Unknown or already removed
// handles are ignored.
func (r *Registry) Disconnect(h *Handle) {
	if h == nil {
		return
	}

	r.mu.Lock()
	i := slices.Index(r.conns, h)
	if i >= 0 {
		r.conns = slices.Delete(r.conns, i, i+1)
		r.connectionsChanged(len(r.conns))
	}
	r.mu.Unlock()

	h.close()
}

// Len is the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Broadcast delivers ev to every registered connection in registration
// order. With no connections it does nothing.
func (r *Registry) Broadcast(ctx context.Context, ev Event) BroadcastResult {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error(ctx, "encode event", "event", ev.Event, "error", err)
		return BroadcastResult{}
	}
	return r.broadcast(ctx, payload)
}

func (r *Registry) broadcast(ctx context.Context, payload []byte) BroadcastResult {
	r.mu.Lock()
	snapshot := slices.Clone(r.conns)
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return BroadcastResult{}
	}

	var failed []*Handle
	res := BroadcastResult{}
	for _, h := range snapshot {
		if err := h.transport.WriteText(payload); err != nil {
			r.log.Debug(ctx, "drop connection after failed send", "conn", h.id, "error", err)
			failed = append(failed, h)
			continue
		}
		res.Delivered++
	}

	if len(failed) > 0 {
		res.Pruned = r.prune(failed)
		for _, h := range failed {
			h.close()
		}
	}

	if r.metrics != nil {
		r.metrics.Broadcasted(res)
	}
	return res
}

// prune removes the given handles in one pass and returns how many were
// still registered.
func (r *Registry) prune(failed []*Handle) int {
	r.mu.Lock()
	before := len(r.conns)
	r.conns = slices.DeleteFunc(r.conns, func(h *Handle) bool {
		return slices.Contains(failed, h)
	})
	removed := before - len(r.conns)
	if removed > 0 {
		r.connectionsChanged(len(r.conns))
	}
	r.mu.Unlock()

	return removed
}

// CloseAll closes every transport and refuses further registrations.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.closed = true
	r.connectionsChanged(0)
	r.mu.Unlock()

	for _, h := range conns {
		h.close()
	}
}

// connectionsChanged must be called with mu held so gauge updates follow
// the order of membership changes.
func (r *Registry) connectionsChanged(n int) {
	if r.metrics != nil {
		r.metrics.ConnectionsChanged(n)
	}
}

package feed

import (
	"time"

	"github.com/dmitrymomot/pricefeed/core/cache"
	"github.com/dmitrymomot/pricefeed/pkg/broadcast"
)

// Hub ties the latest-value cache to the broadcaster. The producer is the
// only writer; connection handlers read through Latest and Subscribe.
type Hub struct {
	latest *cache.Latest[Value]
	bc     *broadcast.Broadcaster[Update]
}

// NewHub creates a Hub whose subscriptions buffer up to lagCapacity updates.
func NewHub(lagCapacity int, opts ...broadcast.Option) *Hub {
	return &Hub{
		latest: cache.NewLatest[Value](),
		bc:     broadcast.New[Update](lagCapacity, opts...),
	}
}

// Update stores v in the cache and then publishes it. Cache first, so a
// handler that subscribes and then reads the cache never sees an older value
// than the one it is about to receive.
func (h *Hub) Update(v Value) Update {
	seq := h.latest.Set(v)
	u := Update{Seq: seq, Value: v}
	h.bc.Publish(u)
	return u
}

// Latest returns the cached value and its sequence number; 0 means none yet.
func (h *Hub) Latest() (Value, uint64) {
	return h.latest.Snapshot()
}

// Subscribe registers a subscription for updates published after this call.
func (h *Hub) Subscribe() *broadcast.Subscription[Update] {
	return h.bc.Subscribe()
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	return h.bc.Subscribers()
}

// UpdatedAt returns when the cache was last written.
func (h *Hub) UpdatedAt() time.Time {
	return h.latest.UpdatedAt()
}

// Close stops fan-out. Subscribers drain and then see broadcast.ErrClosed.
func (h *Hub) Close() {
	h.bc.Close()
}

// Package realtime fans message patches out to the sockets watching a
// connection's thread.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
)

const defaultBufferSize = 32

// Subscription receives the patches of one connection's thread.
// C is closed when the subscription ends, either through Close or because
// the subscriber fell behind and its buffer filled up. A lagging client
// must reload the thread before resubscribing.
type Subscription struct {
	C            <-chan domain.MessagePatch
	ch           chan domain.MessagePatch
	connectionID primitive.ObjectID
	hub          *Hub
	closeOnce    sync.Once
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub routes patches by connection id.
type Hub struct {
	mu         sync.Mutex
	subs       map[primitive.ObjectID]map[*Subscription]struct{}
	bufferSize int
	log        zerolog.Logger
}

func NewHub(bufferSize int, log zerolog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[primitive.ObjectID]map[*Subscription]struct{}),
		bufferSize: bufferSize,
		log:        log.With().Str("component", "realtime_hub").Logger(),
	}
}

// Subscribe opens a subscription to one connection's thread.
func (h *Hub) Subscribe(connectionID primitive.ObjectID) *Subscription {
	ch := make(chan domain.MessagePatch, h.bufferSize)
	sub := &Subscription{C: ch, ch: ch, connectionID: connectionID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[connectionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[connectionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers patch to every subscriber of its connection without
// blocking. Subscribers whose buffer is full are dropped.
func (h *Hub) Publish(patch domain.MessagePatch) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[patch.ConnectionID] {
		select {
		case sub.ch <- patch:
		default:
			h.log.Warn().Str("connection_id", patch.ConnectionID.Hex()).Msg("subscriber lagging, dropping")
			h.removeLocked(sub)
		}
	}
}

// Subscribers returns the number of open subscriptions for a connection.
func (h *Hub) Subscribers(connectionID primitive.ObjectID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[connectionID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	if set, ok := h.subs[sub.connectionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.connectionID)
		}
	}
	sub.closeOnce.Do(func() { close(sub.ch) })
}

// Package feed turns database change notifications into in-process
// subscriptions and keeps replace-on-change snapshots of the record set and
// the master configuration.
package feed

import "sync"

const (
	TopicTransactions = "transactions"
	TopicMaster       = "master"
)

// Topics lists every topic the database triggers emit.
var Topics = []string{TopicTransactions, TopicMaster}

// Hub fans out change signals per topic. Signals carry no payload and
// coalesce: a slow subscriber sees at most one pending signal.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe returns a signal channel for topic and a func that releases it.
func (h *Hub) Subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan struct{}]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

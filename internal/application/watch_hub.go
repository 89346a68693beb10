package application

import "sync"

// WatchHub fans out schedule change signals to live subscribers. A signal
// carries no payload; subscribers re-read their schedule, so changes made
// while a subscriber was away are picked up on resubscribe.
type WatchHub struct {
	mu          sync.Mutex
	subscribers map[string]map[int]chan struct{}
	nextID      int
}

// NewWatchHub creates an empty hub.
func NewWatchHub() *WatchHub {
	return &WatchHub{subscribers: make(map[string]map[int]chan struct{})}
}

// Subscribe registers a live view for ownerID. The returned channel is
// signalled whenever the owner's schedule changes. The cancel function must
// be called when the subscriber goes away.
func (h *WatchHub) Subscribe(ownerID string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffer one signal so notifiers never block; coalescing repeated
	// signals is fine because subscribers re-read the whole schedule.
	ch := make(chan struct{}, 1)
	id := h.nextID
	h.nextID++

	if h.subscribers[ownerID] == nil {
		h.subscribers[ownerID] = make(map[int]chan struct{})
	}
	h.subscribers[ownerID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if channels, ok := h.subscribers[ownerID]; ok {
			delete(channels, id)
			if len(channels) == 0 {
				delete(h.subscribers, ownerID)
			}
		}
	}
	return ch, cancel
}

// Notify signals every live subscriber of the given owners.
func (h *WatchHub) Notify(ownerIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ownerID := range ownerIDs {
		for _, ch := range h.subscribers[ownerID] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// SubscriberCount reports how many live views ownerID currently has.
func (h *WatchHub) SubscriberCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[ownerID])
}

package listings

import "sync"

// Op names a Repository operation.
type Op string

const (
	OpRefresh Op = "refresh"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpStatus  Op = "status"
	OpDelete  Op = "delete"
)

type EventKind int

const (
	// EventChanged means the canonical set changed.
	EventChanged EventKind = iota
	// EventSyncFailed carries a *SyncError in Err.
	EventSyncFailed
	// EventActivity reports Loading for Op flipping.
	EventActivity
)

func (k EventKind) String() string {
	switch k {
	case EventChanged:
		return "changed"
	case EventSyncFailed:
		return "sync_failed"
	case EventActivity:
		return "activity"
	}
	return "unknown"
}

type Event struct {
	Kind      EventKind
	Op        Op
	ListingID string
	Loading   bool
	Err       error
}

// Subscription delivers events until Cancel. A slow reader loses the oldest
// queued events, never blocks the Repository.
type Subscription struct {
	C      <-chan Event
	id     int
	hub    *hub
	cancel sync.Once
}

// Cancel stops delivery and closes C. Writes already in flight still apply
// to the canonical set.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() { s.hub.remove(s.id) })
}

type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.subs[h.next] = ch
	return &Subscription{C: ch, id: h.next, hub: h}
}

func (h *hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		// full: drop the oldest event to make room
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

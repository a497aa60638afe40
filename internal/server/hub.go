package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/flowviz/flowviz/pkg/observability"
)

// subscriberBuffer is the per-subscriber frame backlog. A subscriber that
// falls further behind loses frames instead of stalling the broadcast loop.
const subscriberBuffer = 16

// subscriber is one connected SSE stream. Frames arrive already serialized;
// the channel is closed when the subscriber leaves or the session ends.
type subscriber struct {
	frames chan []byte
}

// hub fans one session's frames out to its subscribers. All subscriber
// bookkeeping happens on the run goroutine; handlers reach it through the
// register, unregister, and broadcast channels.
type hub struct {
	sessionID string
	logger    *log.Logger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	done       chan struct{}

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newHub(sessionID string, logger *log.Logger) *hub {
	return &hub{
		sessionID:  sessionID,
		logger:     logger,
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte, subscriberBuffer),
		done:       make(chan struct{}),
		subs:       make(map[*subscriber]struct{}),
	}
}

// run is the broadcast loop. It owns the subscriber set until stop is
// called, at which point every remaining subscriber channel is closed.
func (h *hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subs[sub] = struct{}{}
			n := len(h.subs)
			h.mu.Unlock()
			h.logger.Debug("subscriber joined", "session", h.sessionID, "subscribers", n)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.frames)
			}
			n := len(h.subs)
			h.mu.Unlock()
			h.logger.Debug("subscriber left", "session", h.sessionID, "subscribers", n)

		case frame := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subs {
				select {
				case sub.frames <- frame:
				default:
					observability.Session().OnFrameDropped(context.Background(), h.sessionID)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subs {
				close(sub.frames)
				delete(h.subs, sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

// subscribe registers a new subscriber. The second return is false when the
// session has already ended.
func (h *hub) subscribe() (*subscriber, bool) {
	sub := &subscriber{frames: make(chan []byte, subscriberBuffer)}
	select {
	case h.register <- sub:
		return sub, true
	case <-h.done:
		return nil, false
	}
}

// unsubscribe removes a subscriber and closes its channel. Safe to call
// after the hub has stopped.
func (h *hub) unsubscribe(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// publish hands a serialized frame to the broadcast loop. A backed-up loop
// drops the frame for every subscriber at once.
func (h *hub) publish(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	default:
		observability.Session().OnFrameDropped(context.Background(), h.sessionID)
	}
}

// count returns the number of connected subscribers.
func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// stop ends the broadcast loop and disconnects every subscriber. Must be
// called exactly once, by the session's ticker goroutine.
func (h *hub) stop() {
	close(h.done)
}

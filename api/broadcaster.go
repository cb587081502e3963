package api

import "sync"

// EventType tags a broadcast event's category.
type EventType string

const (
	// EventTypeState announces ACC/PC/register changes after a step or run.
	EventTypeState EventType = "state"
	// EventTypeExecution announces breakpoint hits and run completion.
	EventTypeExecution EventType = "execution"
)

// BroadcastEvent is sent to every matching WebSocket subscriber.
type BroadcastEvent struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      map[string]interface{} `json:"data"`
}

// Subscription is one client's filter over the broadcast stream.
type Subscription struct {
	SessionID  string
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster fans out session events to subscribed WebSocket clients,
// grounded directly on the teacher's api/broadcaster.go (register/
// unregister/broadcast channels drained by one goroutine, non-blocking
// sends so a slow client never stalls the simulator thread producing
// events — the concurrency boundary spec.md §5 requires).
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a broadcaster's fan-out goroutine.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.SessionID != "" && sub.SessionID != event.SessionID {
					continue
				}
				if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new filtered subscription.
func (b *Broadcaster) Subscribe(sessionID string, eventTypes []EventType) *Subscription {
	m := make(map[EventType]bool, len(eventTypes))
	for _, et := range eventTypes {
		m[et] = true
	}
	sub := &Subscription{SessionID: sessionID, EventTypes: m, Channel: make(chan BroadcastEvent, 64)}
	b.register <- sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast sends an event to every matching subscriber, dropping it if the
// broadcaster's internal queue is full rather than blocking the caller.
func (b *Broadcaster) Broadcast(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
	}
}

// BroadcastState announces a state-change event for a session.
func (b *Broadcaster) BroadcastState(sessionID string, data map[string]interface{}) {
	b.Broadcast(BroadcastEvent{Type: EventTypeState, SessionID: sessionID, Data: data})
}

// BroadcastExecution announces a breakpoint hit or run completion.
func (b *Broadcaster) BroadcastExecution(sessionID, eventName string, details map[string]interface{}) {
	data := map[string]interface{}{"event": eventName}
	for k, v := range details {
		data[k] = v
	}
	b.Broadcast(BroadcastEvent{Type: EventTypeExecution, SessionID: sessionID, Data: data})
}

// Close shuts the broadcaster down, closing every subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount reports the number of live subscriptions, for tests and
// the health endpoint.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

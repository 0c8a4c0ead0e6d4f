package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"chainstats/internal/events"
)

// Message is one server-sent event: an event name and its data payload.
type Message struct {
	Event string
	Data  string
}

type refreshPayload struct {
	At      time.Time `json:"at"`
	Players int       `json:"players"`
	Events  int       `json:"events"`
	Error   string    `json:"error,omitempty"`
}

const (
	EventRefresh       = "refresh"
	EventRefreshFailed = "refreshFailed"
)

// Broadcaster fans refresh notices from the bus out to every subscriber.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool
}

func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
	}
	go func() {
		for ev := range bus.Refreshes {
			name := EventRefresh
			if ev.Failed() {
				name = EventRefreshFailed
			}
			data, _ := json.Marshal(refreshPayload{At: ev.At, Players: ev.Players, Events: ev.Events, Error: ev.Err})
			b.Broadcast(name, string(data))
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}

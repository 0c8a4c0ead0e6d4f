package events

import "time"

// RefreshEvent reports the outcome of one dataset reload.
type RefreshEvent struct {
	At      time.Time
	Players int
	Events  int
	Err     string
}

func (e RefreshEvent) Failed() bool { return e.Err != "" }

type Bus struct {
	Refreshes chan RefreshEvent
}

func NewBus() *Bus {
	return &Bus{
		Refreshes: make(chan RefreshEvent, 10),
	}
}

// PublishRefresh queues ev without blocking; it reports false when the bus is full.
func (b *Bus) PublishRefresh(ev RefreshEvent) bool {
	select {
	case b.Refreshes <- ev:
		return true
	default:
		return false
	}
}
